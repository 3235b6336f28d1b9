package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// serverName is the key this server registers under in Claude Desktop's
// mcpServers map.
const serverName = "uspstf-screening"

// binaryName is the stdio server binary users install.
const binaryName = "mcp-server"

// DesktopConfig mirrors claude_desktop_config.json.
type DesktopConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
}

// ServerEntry is one registered MCP server in the desktop config.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls how the server is registered.
type Options struct {
	BinaryPath  string
	DataDir     string
	AutoConfirm bool
}

// DesktopConfigPath locates claude_desktop_config.json for the current OS.
func DesktopConfigPath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "Claude", "claude_desktop_config.json"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA is not set")
		}
		return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
	default:
		return "", fmt.Errorf("no Claude Desktop config location for %s", runtime.GOOS)
	}
}

// LoadDesktopConfig reads the desktop config. A missing file yields an empty
// config rather than an error, since first-time setups start from nothing.
func LoadDesktopConfig(path string) (*DesktopConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &DesktopConfig{MCPServers: map[string]ServerEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading desktop config: %w", err)
	}

	var cfg DesktopConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing desktop config: %w", err)
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = map[string]ServerEntry{}
	}
	return &cfg, nil
}

// SaveDesktopConfig writes the desktop config, creating its directory when
// missing. Entries for other servers are preserved untouched.
func SaveDesktopConfig(path string, cfg *DesktopConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating desktop config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding desktop config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing desktop config: %w", err)
	}
	return nil
}

// serverEntry builds the mcpServers entry for this install.
func serverEntry(opts Options) ServerEntry {
	entry := ServerEntry{
		Command: opts.BinaryPath,
		Args:    []string{},
		Env:     map[string]string{},
	}
	if opts.DataDir != "" {
		entry.Env["USPSTF_DATA_DIR"] = opts.DataDir
	}
	return entry
}

// RegisterServer adds or replaces this server's entry in Claude Desktop's
// config. An empty BinaryPath falls back to searching PATH and the usual
// install locations.
func RegisterServer(opts Options) error {
	path, err := DesktopConfigPath()
	if err != nil {
		return err
	}
	cfg, err := LoadDesktopConfig(path)
	if err != nil {
		return err
	}

	if opts.BinaryPath == "" {
		opts.BinaryPath, err = locateBinary()
		if err != nil {
			return fmt.Errorf("locating server binary: %w", err)
		}
	}

	cfg.MCPServers[serverName] = serverEntry(opts)
	return SaveDesktopConfig(path, cfg)
}

// locateBinary searches PATH first, then the places the install docs suggest.
func locateBinary() (string, error) {
	if path, err := exec.LookPath(binaryName); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	candidates := []string{
		"./" + binaryName,
		"./build/" + binaryName,
		filepath.Join(home, ".local", "bin", binaryName),
		"/usr/local/bin/" + binaryName,
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if abs, err := filepath.Abs(candidate); err == nil {
			return abs, nil
		}
		return candidate, nil
	}
	return "", fmt.Errorf("%s not found on PATH or in the usual install locations", binaryName)
}
