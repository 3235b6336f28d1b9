package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
	"github.com/prushi369-byte/uspstf-screening/internal/feedback"
	"github.com/prushi369-byte/uspstf-screening/internal/service"
	"github.com/prushi369-byte/uspstf-screening/pkg/render"
)

// ParseProfileParams defines parameters for the parse_profile tool
type ParseProfileParams struct {
	Fields map[string]string `json:"fields"`
}

// SubmitFeedbackParams defines parameters for the submit_feedback tool
type SubmitFeedbackParams struct {
	Topic            string `json:"topic"`
	ProfileHash      string `json:"profile_hash"`
	ProfileSummary   string `json:"profile_summary,omitempty"`
	RecommendedGrade string `json:"recommended_grade"`
	Agreed           bool   `json:"agreed"`
	Comment          string `json:"comment,omitempty"`
}

// ListFeedbackParams defines parameters for the list_feedback tool
type ListFeedbackParams struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// handleEvaluateScreening handles the evaluate_screening tool invocation.
// Arguments are the typed patient profile fields; an unreported age must be
// sent as -1, the same contract as the HTTP evaluate endpoint.
func (s *LiteServer) handleEvaluateScreening(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "evaluate_screening").Info("Tool invoked")

	// Parse parameters
	var profile domain.PatientProfile
	if err := json.Unmarshal(req.Params.Arguments.(json.RawMessage), &profile); err != nil {
		return s.createErrorResult("Invalid parameters", err), nil
	}

	result, err := s.screening.EvaluateProfile(ctx, profile)
	if err != nil {
		return s.createErrorResult("Evaluation failed", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: render.ResultText(result),
			},
		},
		Meta: map[string]interface{}{
			"result": result,
		},
	}, nil
}

// handleParseProfile handles the parse_profile tool invocation
func (s *LiteServer) handleParseProfile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "parse_profile").Info("Tool invoked")

	// Parse parameters
	var params ParseProfileParams
	if err := json.Unmarshal(req.Params.Arguments.(json.RawMessage), &params); err != nil {
		return s.createErrorResult("Invalid parameters", err), nil
	}

	if len(params.Fields) == 0 {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("fields is required")), nil
	}

	profile, err := s.parser.Parse(params.Fields)
	if err != nil {
		return s.createErrorResult("Intake parsing failed", err), nil
	}
	derived := service.Derive(profile)

	ageText := "unknown"
	if derived.AgeKnown() {
		ageText = strconv.Itoa(derived.Age)
	}
	text := fmt.Sprintf("Parsed profile: %s, age %s, smoking status %s, %.1f pack-years, %d risk factor(s)",
		derived.Sex, ageText, derived.SmokingStatus, derived.PackYears, len(derived.Conditions))

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: text,
			},
		},
		Meta: map[string]interface{}{
			"profile": derived,
		},
	}, nil
}

// handleListCatalog handles the list_catalog tool invocation
func (s *LiteServer) handleListCatalog(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "list_catalog").Info("Tool invoked")

	entries := s.screening.Catalog()

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: render.CatalogText(entries),
			},
		},
		Meta: map[string]interface{}{
			"catalog": entries,
			"count":   len(entries),
		},
	}, nil
}

// handleSubmitFeedback handles the submit_feedback tool invocation
func (s *LiteServer) handleSubmitFeedback(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "submit_feedback").Info("Tool invoked")

	// Parse parameters
	var params SubmitFeedbackParams
	if err := json.Unmarshal(req.Params.Arguments.(json.RawMessage), &params); err != nil {
		return s.createErrorResult("Invalid parameters", err), nil
	}

	// Validate required parameters
	if params.Topic == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("topic is required")), nil
	}
	if params.ProfileHash == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("profile_hash is required")), nil
	}
	if !domain.Grade(params.RecommendedGrade).IsValid() {
		return s.createErrorResult("Invalid parameters", fmt.Errorf("recommended_grade must be one of A, B, C, D, I")), nil
	}

	fb := &feedback.Feedback{
		Topic:            params.Topic,
		ProfileHash:      params.ProfileHash,
		ProfileSummary:   params.ProfileSummary,
		RecommendedGrade: params.RecommendedGrade,
		Agreed:           params.Agreed,
		Comment:          params.Comment,
	}

	if err := s.feedbackStore.Save(ctx, fb); err != nil {
		return s.createErrorResult("Failed to save feedback", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Feedback recorded for %s (agreed: %t)", fb.Topic, fb.Agreed),
			},
		},
		Meta: map[string]interface{}{
			"feedback": fb,
		},
	}, nil
}

// handleListFeedback handles the list_feedback tool invocation
func (s *LiteServer) handleListFeedback(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "list_feedback").Info("Tool invoked")

	// Parse parameters
	var params ListFeedbackParams
	if err := json.Unmarshal(req.Params.Arguments.(json.RawMessage), &params); err != nil {
		return s.createErrorResult("Invalid parameters", err), nil
	}

	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Limit > 200 {
		params.Limit = 200
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	entries, err := s.feedbackStore.List(ctx, params.Limit, params.Offset)
	if err != nil {
		return s.createErrorResult("Failed to list feedback", err), nil
	}
	total, err := s.feedbackStore.Count(ctx)
	if err != nil {
		return s.createErrorResult("Failed to count feedback", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: feedbackText(entries, total),
			},
		},
		Meta: map[string]interface{}{
			"feedback": entries,
			"total":    total,
		},
	}, nil
}

// feedbackText renders feedback entries for the text content block, one line
// per entry in store order.
func feedbackText(entries []*feedback.Feedback, total int64) string {
	if len(entries) == 0 {
		return "No feedback has been recorded."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Showing %d of %d feedback entries:\n", len(entries), total)
	for i, fb := range entries {
		verdict := "disagree"
		if fb.Agreed {
			verdict = "agree"
		}
		fmt.Fprintf(&b, "%2d. %s [%s] Grade %s", i+1, fb.Topic, verdict, fb.RecommendedGrade)
		if fb.Comment != "" {
			fmt.Fprintf(&b, " (%s)", fb.Comment)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// createErrorResult creates a standardized error result for tool calls
func (s *LiteServer) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
