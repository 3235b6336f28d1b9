package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
	"github.com/prushi369-byte/uspstf-screening/internal/feedback"
	"github.com/prushi369-byte/uspstf-screening/internal/service"
	"github.com/prushi369-byte/uspstf-screening/pkg/render"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{
		"status":           "healthy",
		"timestamp":        time.Now().UTC(),
		"version":          serverVersion,
		"catalog_size":     len(s.screening.Catalog()),
		"history_enabled":  s.screening.HistoryEnabled(),
		"feedback_enabled": s.feedback != nil,
		"rate_limiter":     s.rateLimiter.Stats(),
	}

	if s.cacheStats != nil {
		resp["cache"] = s.cacheStats()
	}

	c.JSON(http.StatusOK, resp)
}

// handleEvaluate evaluates an already-typed patient profile
func (s *Server) handleEvaluate(c *gin.Context) {
	var req domain.ScreeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.screening.EvaluateProfile(c.Request.Context(), req.Profile)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	if wantsText(c) {
		c.String(http.StatusOK, render.ResultText(result))
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleIntake parses raw intake form fields and evaluates the result
func (s *Server) handleIntake(c *gin.Context) {
	var req domain.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.screening.EvaluateIntake(c.Request.Context(), req.Fields)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	if wantsText(c) {
		c.String(http.StatusOK, render.ResultText(result))
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleCatalog returns the static screening catalog
func (s *Server) handleCatalog(c *gin.Context) {
	catalog := s.screening.Catalog()

	if wantsText(c) {
		c.String(http.StatusOK, render.CatalogText(catalog))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"catalog": catalog,
		"count":   len(catalog),
	})
}

// handleGetEvaluation returns one stored evaluation record
func (s *Server) handleGetEvaluation(c *gin.Context) {
	record, err := s.screening.GetEvaluation(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// handleListEvaluations pages through stored evaluation records
func (s *Server) handleListEvaluations(c *gin.Context) {
	limit, offset := pageParams(c)

	records, err := s.screening.ListEvaluations(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	total, err := s.screening.CountEvaluations(c.Request.Context())
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"evaluations": records,
		"total":       total,
		"limit":       limit,
		"offset":      offset,
	})
}

// handleDeleteEvaluation removes one stored evaluation record
func (s *Server) handleDeleteEvaluation(c *gin.Context) {
	if err := s.screening.DeleteEvaluation(c.Request.Context(), c.Param("id")); err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// feedbackRequest is the POST /feedback body. ProfileHash is the hash the
// evaluate endpoints return, tying the opinion to the exact profile.
type feedbackRequest struct {
	Topic            string `json:"topic" binding:"required"`
	ProfileHash      string `json:"profile_hash" binding:"required"`
	ProfileSummary   string `json:"profile_summary"`
	RecommendedGrade string `json:"recommended_grade" binding:"required"`
	Agreed           bool   `json:"agreed"`
	Comment          string `json:"comment"`
}

// handleSubmitFeedback records agreement or disagreement with a recommendation
func (s *Server) handleSubmitFeedback(c *gin.Context) {
	if s.feedback == nil {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrCodeDatabase, "Feedback collection is not enabled")
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	if !domain.Grade(req.RecommendedGrade).IsValid() {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "Invalid recommended grade: "+req.RecommendedGrade)
		return
	}

	fb := &feedback.Feedback{
		Topic:            req.Topic,
		ProfileHash:      req.ProfileHash,
		ProfileSummary:   req.ProfileSummary,
		RecommendedGrade: req.RecommendedGrade,
		Agreed:           req.Agreed,
		Comment:          req.Comment,
	}

	if err := s.feedback.Save(c.Request.Context(), fb); err != nil {
		s.logger.WithError(err).Error("Failed to save feedback")
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabase, "Failed to save feedback")
		return
	}

	c.JSON(http.StatusCreated, fb)
}

// handleListFeedback pages through stored feedback entries
func (s *Server) handleListFeedback(c *gin.Context) {
	if s.feedback == nil {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrCodeDatabase, "Feedback collection is not enabled")
		return
	}

	limit, offset := pageParams(c)

	list, err := s.feedback.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list feedback")
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabase, "Failed to list feedback")
		return
	}

	total, err := s.feedback.Count(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to count feedback")
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabase, "Failed to count feedback")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback": list,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// wantsText reports whether the client asked for the plain-text rendering.
func wantsText(c *gin.Context) bool {
	return c.Query("format") == "text"
}

// pageParams reads limit and offset query parameters with defaults and caps.
func pageParams(c *gin.Context) (limit, offset int) {
	limit = defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if raw := c.Query("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}

	return limit, offset
}

// respondError writes the structured error envelope shared by all endpoints.
func (s *Server) respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error":          message,
		"code":           code,
		"correlation_id": c.GetString("correlation_id"),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// respondServiceError maps service-layer errors onto HTTP statuses.
func (s *Server) respondServiceError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr):
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, validationErr.Error())
	case errors.Is(err, domain.ErrInvalidSex),
		errors.Is(err, domain.ErrInvalidSmokingStatus),
		errors.Is(err, domain.ErrInvalidProfile),
		errors.Is(err, domain.ErrInvalidGrade):
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		s.respondError(c, http.StatusNotFound, domain.ErrCodeNotFound, "Evaluation not found")
	case errors.Is(err, service.ErrHistoryDisabled):
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrCodeDatabase, "Evaluation history is not enabled")
	default:
		s.logger.WithError(err).WithField("correlation_id", c.GetString("correlation_id")).Error("Request failed")
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeInternal, "Internal server error")
	}
}
