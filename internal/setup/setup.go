// Package setup wires the stdio MCP server into Claude Desktop and inspects
// the resulting install. It backs the "mcp-server setup" subcommand.
package setup

import (
	"fmt"
	"os"
	"path/filepath"
)

// Status is a snapshot of the install as seen from the desktop config.
type Status struct {
	ConfigPath string // where claude_desktop_config.json lives (or would)
	Registered bool   // server entry present in the config
	BinaryPath string // command recorded in the entry
	DataDir    string // data directory the entry points at
	Issues     []Issue
}

// Issue is one problem found while inspecting the install. Warnings describe
// conditions the server resolves on its own, like a data directory that does
// not exist yet.
type Issue struct {
	Text    string
	Warning bool
}

// Inspect reads the desktop config and reports what is registered. It never
// fails outright; anything wrong lands in Issues.
func Inspect() *Status {
	status := &Status{}

	path, err := DesktopConfigPath()
	if err != nil {
		status.report("cannot determine desktop config path: %v", err)
	} else {
		status.ConfigPath = path
		status.readEntry(path)
	}

	if status.DataDir == "" {
		status.DataDir = DefaultDataDir()
	}
	if _, err := os.Stat(status.DataDir); os.IsNotExist(err) {
		status.warn("data directory %s will be created on first run", status.DataDir)
	}

	return status
}

// readEntry pulls this server's entry out of the desktop config and checks
// that the binary it points at is runnable.
func (s *Status) readEntry(path string) {
	cfg, err := LoadDesktopConfig(path)
	if err != nil {
		s.report("cannot load desktop config: %v", err)
		return
	}

	entry, ok := cfg.MCPServers[serverName]
	if !ok {
		return
	}

	s.Registered = true
	s.BinaryPath = entry.Command
	s.DataDir = entry.Env["USPSTF_DATA_DIR"]

	info, err := os.Stat(entry.Command)
	switch {
	case os.IsNotExist(err):
		s.report("server binary not found at %s", entry.Command)
	case err == nil && info.Mode()&0111 == 0:
		s.report("server binary %s is not executable", entry.Command)
	}
}

func (s *Status) report(format string, args ...any) {
	s.Issues = append(s.Issues, Issue{Text: fmt.Sprintf(format, args...)})
}

func (s *Status) warn(format string, args ...any) {
	s.Issues = append(s.Issues, Issue{Text: fmt.Sprintf(format, args...), Warning: true})
}

// Valid reports whether the install would start as registered. Warnings do
// not count against it.
func (s *Status) Valid() bool {
	if !s.Registered {
		return false
	}
	for _, issue := range s.Issues {
		if !issue.Warning {
			return false
		}
	}
	return true
}

// DefaultDataDir is where the stdio server keeps its feedback database when
// USPSTF_DATA_DIR is not set.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".uspstf-screening")
}

// EnsureDataDir creates dir (or the default) along with the exports
// subdirectory used by feedback export tooling.
func EnsureDataDir(dir string) error {
	if dir == "" {
		dir = DefaultDataDir()
	}
	if err := os.MkdirAll(filepath.Join(dir, "exports"), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}
