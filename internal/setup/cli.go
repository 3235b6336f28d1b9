package setup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CLI implements the "setup" subcommand group. Output goes to out so tests
// can capture it; prompts read from in.
type CLI struct {
	in  *bufio.Reader
	out io.Writer
}

// NewCLI returns a CLI wired to stdin and stdout.
func NewCLI() *CLI {
	return &CLI{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// Run dispatches a setup command. No arguments shows usage.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}

	switch cmd := args[0]; cmd {
	case "claude-desktop":
		return c.register(args[1:])
	case "status":
		return c.status()
	case "validate":
		return c.validate()
	case "wizard":
		return c.wizard()
	case "help", "--help", "-h":
		return c.usage()
	default:
		fmt.Fprintf(c.out, "Unknown command %q\n\n", cmd)
		return c.usage()
	}
}

func (c *CLI) usage() error {
	fmt.Fprint(c.out, `USPSTF Screening MCP Server Setup

Usage:
  mcp-server setup <command> [options]

Commands:
  wizard          Interactive setup (recommended)
  claude-desktop  Register the server with Claude Desktop
  status          Show what is currently registered
  validate        Check that the registered install would start

Options for claude-desktop:
  --binary, -b PATH    server binary to register (default: this executable)
  --data-dir, -d PATH  data directory for the feedback database
  --auto, -y           skip the confirmation prompt
`)
	return nil
}

// register handles "setup claude-desktop".
func (c *CLI) register(args []string) error {
	opts := parseRegisterFlags(args)

	if opts.BinaryPath == "" {
		if execPath, err := os.Executable(); err == nil {
			opts.BinaryPath = execPath
		}
	}

	configPath, _ := DesktopConfigPath()
	fmt.Fprintln(c.out, "Registering with Claude Desktop")
	fmt.Fprintf(c.out, "  config: %s\n", configPath)
	fmt.Fprintf(c.out, "  binary: %s\n", opts.BinaryPath)
	if opts.DataDir != "" {
		fmt.Fprintf(c.out, "  data:   %s\n", opts.DataDir)
	}
	fmt.Fprintln(c.out)

	if !opts.AutoConfirm && !c.confirm("Proceed?", true) {
		fmt.Fprintln(c.out, "Cancelled.")
		return nil
	}

	if err := RegisterServer(opts); err != nil {
		return fmt.Errorf("registering with Claude Desktop: %w", err)
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "✓ Registered. Restart Claude Desktop to pick up the change.")
	c.printTryIt()
	return nil
}

func parseRegisterFlags(args []string) Options {
	var opts Options
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--binary", "-b":
			if i+1 < len(args) {
				i++
				opts.BinaryPath = args[i]
			}
		case "--data-dir", "-d":
			if i+1 < len(args) {
				i++
				opts.DataDir = args[i]
			}
		case "--auto", "-y":
			opts.AutoConfirm = true
		}
	}
	return opts
}

// status handles "setup status".
func (c *CLI) status() error {
	status := Inspect()

	fmt.Fprintln(c.out, "Claude Desktop")
	fmt.Fprintf(c.out, "  config: %s\n", status.ConfigPath)
	if status.Registered {
		fmt.Fprintln(c.out, "  server: ✓ registered")
		fmt.Fprintf(c.out, "  binary: %s\n", status.BinaryPath)
	} else {
		fmt.Fprintln(c.out, "  server: ✗ not registered")
	}
	fmt.Fprintln(c.out)

	fmt.Fprintln(c.out, "Data")
	fmt.Fprintf(c.out, "  directory:   %s\n", status.DataDir)
	if _, err := os.Stat(filepath.Join(status.DataDir, "feedback.db")); err == nil {
		fmt.Fprintln(c.out, "  feedback db: present")
	} else {
		fmt.Fprintln(c.out, "  feedback db: not created yet")
	}
	fmt.Fprintln(c.out)

	c.printIssues(status.Issues)
	return nil
}

// validate handles "setup validate".
func (c *CLI) validate() error {
	status := Inspect()

	if !status.Registered {
		fmt.Fprintln(c.out, "✗ Server is not registered with Claude Desktop.")
		fmt.Fprintln(c.out, "  Run: mcp-server setup wizard")
		return nil
	}

	c.printIssues(status.Issues)
	if status.Valid() {
		fmt.Fprintln(c.out, "✓ Install looks good.")
	}
	return nil
}

// wizard handles "setup wizard": inspect, prompt, register, done.
func (c *CLI) wizard() error {
	fmt.Fprintln(c.out, "USPSTF Screening MCP Server setup")
	fmt.Fprintln(c.out, "=================================")
	fmt.Fprintln(c.out)

	status := Inspect()
	if status.Registered {
		fmt.Fprintln(c.out, "Claude Desktop already has this server registered.")
		if !c.confirm("Reconfigure?", false) {
			fmt.Fprintln(c.out, "Nothing to do.")
			return nil
		}
	}

	execPath, _ := os.Executable()
	binaryPath := c.prompt("Server binary", execPath)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		fmt.Fprintf(c.out, "⚠ No file at %s\n", binaryPath)
		if !c.confirm("Register it anyway?", false) {
			return fmt.Errorf("setup cancelled")
		}
	}

	dataDir := c.prompt("Data directory", DefaultDataDir())

	if err := RegisterServer(Options{BinaryPath: binaryPath, DataDir: dataDir}); err != nil {
		return fmt.Errorf("registering with Claude Desktop: %w", err)
	}
	if err := EnsureDataDir(dataDir); err != nil {
		fmt.Fprintf(c.out, "⚠ Could not create data directory: %v\n", err)
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "✓ Setup complete. Restart Claude Desktop to pick up the change.")
	c.printTryIt()
	return nil
}

func (c *CLI) printIssues(issues []Issue) {
	for _, issue := range issues {
		marker := "✗"
		if issue.Warning {
			marker = "⚠"
		}
		fmt.Fprintf(c.out, "%s %s\n", marker, issue.Text)
	}
}

func (c *CLI) printTryIt() {
	fmt.Fprintln(c.out, `Try asking: "What screenings apply to a 55-year-old current smoker?"`)
}

// prompt reads one line, returning def when the user just hits enter.
func (c *CLI) prompt(label, def string) string {
	fmt.Fprintf(c.out, "%s [%s]: ", label, def)
	line, _ := c.in.ReadString('\n')
	if line = strings.TrimSpace(line); line != "" {
		return line
	}
	return def
}

// confirm asks a yes/no question; def is the answer for a bare enter.
func (c *CLI) confirm(label string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(c.out, "%s [%s]: ", label, hint)

	line, _ := c.in.ReadString('\n')
	switch strings.TrimSpace(strings.ToLower(line)) {
	case "":
		return def
	case "y", "yes":
		return true
	default:
		return false
	}
}
