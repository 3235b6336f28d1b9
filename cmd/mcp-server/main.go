// Package main is the standalone USPSTF screening MCP server. It needs no
// external services: results are cached in memory and feedback lands in a
// local SQLite file.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prushi369-byte/uspstf-screening/internal/config"
	"github.com/prushi369-byte/uspstf-screening/internal/mcp"
	"github.com/prushi369-byte/uspstf-screening/internal/setup"
)

func main() {
	// "mcp-server setup ..." is handled entirely by the setup CLI
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.NewCLI().Run(os.Args[2:]); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	cfg := config.LoadLiteConfig()
	log.Printf("Starting USPSTF screening MCP server (transport=%s, data=%s)", cfg.Transport, cfg.DataDir)

	server, err := mcp.NewLiteServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("MCP server stopped")
}
