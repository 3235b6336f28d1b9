package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// maxLiveMessageBytes bounds a single streamed profile message.
const maxLiveMessageBytes = 64 << 10

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser intake clients run on their own origins; the endpoint
		// carries no credentials and evaluation is read-only.
		return true
	},
}

// liveError is the in-stream error frame for a rejected profile. The socket
// stays open so the client can correct the profile and resubmit.
type liveError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// handleLive upgrades the connection to a websocket and evaluates each
// patient profile the client streams, answering every message with either a
// full screening result or an error frame.
func (s *Server) handleLive(c *gin.Context) {
	conn, err := liveUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade failures already wrote an HTTP error response.
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxLiveMessageBytes)

	correlationID := c.GetString("correlation_id")
	s.logger.WithField("correlation_id", correlationID).Info("Live screening session started")

	ctx := c.Request.Context()
	evaluated := 0

	for {
		var profile domain.PatientProfile
		if err := conn.ReadJSON(&profile); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.WithError(err).WithField("correlation_id", correlationID).Debug("Live screening session ended unexpectedly")
			}
			break
		}

		result, err := s.screening.EvaluateProfile(ctx, profile)
		if err != nil {
			if writeErr := conn.WriteJSON(liveError{Error: err.Error(), Code: domain.ErrCodeInvalidInput}); writeErr != nil {
				break
			}
			continue
		}

		if err := conn.WriteJSON(result); err != nil {
			break
		}
		evaluated++
	}

	s.logger.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"evaluated":      evaluated,
	}).Info("Live screening session closed")
}
