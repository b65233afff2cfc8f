package cmd

import (
	"path/filepath"

	"buildboard/internal/config"
	"buildboard/internal/logging"
)

// CLI represents the command-line interface structure
type CLI struct {
	Debug       bool `help:"Enable debug logging to file" short:"d"`
	MaxLogFiles int  `help:"Maximum number of log files to keep (0 = unlimited)" default:"50"`

	Serve ServeCmd `cmd:"" help:"Start the buildboard API server (default)" default:"1"`

	// Internal fields (not flags)
	cfg *config.Config `kong:"-"`
}

// AfterApply loads configuration and initializes logging after CLI parsing
func (c *CLI) AfterApply() error {
	c.cfg = config.Load()
	if c.Debug {
		c.cfg.Debug = true
	}

	logDir := filepath.Join(filepath.Dir(c.cfg.DBPath), "logs")
	return logging.Initialize(c.cfg.Debug, logDir, c.MaxLogFiles)
}

// ServeCmd runs the HTTP API server until interrupted
type ServeCmd struct {
	Addr    string `help:"Listen address (overrides BUILDBOARD_ADDR)"`
	DBPath  string `help:"SQLite database path (overrides BUILDBOARD_DB_PATH)"`
	BlobDir string `help:"Blob store directory (overrides BUILDBOARD_BLOB_DIR)"`
}

// Run executes the serve command
func (cmd *ServeCmd) Run(cli *CLI) error {
	cfg := cli.cfg
	if cmd.Addr != "" {
		cfg.ListenAddr = cmd.Addr
	}
	if cmd.DBPath != "" {
		cfg.DBPath = cmd.DBPath
	}
	if cmd.BlobDir != "" {
		cfg.BlobDir = cmd.BlobDir
	}

	container, err := NewContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	return container.Server.Start()
}
