// Package mcp provides the MCP tool server implementation.
// This file contains the lightweight server that requires no external databases.
package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/prushi369-byte/uspstf-screening/internal/cache"
	litecfg "github.com/prushi369-byte/uspstf-screening/internal/config"
	"github.com/prushi369-byte/uspstf-screening/internal/feedback"
	"github.com/prushi369-byte/uspstf-screening/internal/service"
	"github.com/prushi369-byte/uspstf-screening/pkg/intake"
)

// LiteServer is a lightweight MCP server that requires no external databases.
// It uses in-memory caching for results and SQLite for feedback persistence.
type LiteServer struct {
	config        *litecfg.LiteConfig
	mcpServer     *mcp.Server
	screening     *service.ScreeningService
	parser        *intake.Parser
	feedbackStore feedback.Store
	cache         *cache.MemoryCache
	logger        *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithFeedbackStore sets a custom feedback store.
func WithFeedbackStore(store feedback.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.feedbackStore = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// NewLiteServer creates a new lightweight MCP server instance.
// It requires no external databases - uses in-memory cache and SQLite.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	// Create server with default logger
	server := &LiteServer{
		config: cfg,
		logger: logrus.New(),
	}

	// Configure default logger
	if cfg.LogFormat == "text" {
		server.logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		server.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	server.logger.SetLevel(level)

	// Apply options
	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Ensure data directory exists
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Initialize memory cache
	memCache, err := cache.NewMemoryCache(cfg.CacheMaxItems, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	server.cache = memCache

	// Initialize feedback store if not provided
	if server.feedbackStore == nil {
		store, err := feedback.NewSQLiteStore(cfg.FeedbackDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create feedback store: %w", err)
		}
		server.feedbackStore = store
	}

	// Create the screening service with the memory cache
	server.parser = intake.NewParser()
	server.screening = service.NewScreeningService(server.logger, server.parser,
		service.WithResultCache(memCache))

	// Create server info
	serverInfo := &mcp.Implementation{
		Name:    "uspstf-screening-mcp",
		Version: "v0.1.0",
	}

	// Create MCP server
	mcpServer := mcp.NewServer(serverInfo, nil)
	server.mcpServer = mcpServer

	// Register MCP tools
	server.registerMCPTools(mcpServer)

	server.logger.Info("Lite server initialized successfully")
	return server, nil
}

// registerMCPTools registers tools with the MCP SDK.
func (s *LiteServer) registerMCPTools(mcpServer *mcp.Server) {
	s.logger.Info("Registering tools with MCP SDK...")

	registrations := []struct {
		tool    *mcp.Tool
		handler mcp.ToolHandler
	}{
		{
			tool: &mcp.Tool{
				Name:        "evaluate_screening",
				Description: "Evaluate a patient profile against the USPSTF preventive screening catalog and return the recommendations that apply",
				InputSchema: &jsonschema.Schema{Type: "object"},
			},
			handler: s.handleEvaluateScreening,
		},
		{
			tool: &mcp.Tool{
				Name:        "parse_profile",
				Description: "Parse raw intake form fields into a normalized patient profile with derived pack-years",
				InputSchema: &jsonschema.Schema{Type: "object"},
			},
			handler: s.handleParseProfile,
		},
		{
			tool: &mcp.Tool{
				Name:        "list_catalog",
				Description: "List every screening topic in the catalog with its grades and eligibility summary",
				InputSchema: &jsonschema.Schema{Type: "object"},
			},
			handler: s.handleListCatalog,
		},
		{
			tool: &mcp.Tool{
				Name:        "submit_feedback",
				Description: "Record agreement or disagreement with a recommended screening topic for an evaluated profile",
				InputSchema: &jsonschema.Schema{Type: "object"},
			},
			handler: s.handleSubmitFeedback,
		},
		{
			tool: &mcp.Tool{
				Name:        "list_feedback",
				Description: "List recorded feedback entries with pagination",
				InputSchema: &jsonschema.Schema{Type: "object"},
			},
			handler: s.handleListFeedback,
		},
	}

	for _, reg := range registrations {
		mcpServer.AddTool(reg.tool, reg.handler)
		s.logger.WithField("tool_name", reg.tool.Name).Debug("Registered MCP tool")
	}

	s.logger.WithField("tool_count", len(registrations)).Info("Successfully registered all tools")
}

// Start starts the lite MCP server over stdio.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.Info("Starting USPSTF Screening MCP Server (Lite)...")

	if s.config.Transport != "stdio" {
		s.logger.WithField("transport", s.config.Transport).
			Warn("Lite server only supports stdio transport, falling back to stdio")
	}

	// Run the MCP server
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.feedbackStore != nil {
		if err := s.feedbackStore.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close feedback store")
		}
	}
	return nil
}

// GetFeedbackStore returns the feedback store for external access.
func (s *LiteServer) GetFeedbackStore() feedback.Store {
	return s.feedbackStore
}

// GetCache returns the memory cache for external access.
func (s *LiteServer) GetCache() *cache.MemoryCache {
	return s.cache
}
