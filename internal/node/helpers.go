package node

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/insightwallet/insightwallet/config"
	"github.com/insightwallet/insightwallet/internal/log"
	"github.com/insightwallet/insightwallet/internal/signer"
)

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// InitLogging configures the global logger from cfg. An empty log file
// setting means <datadir>/logs/<name>.log.
func InitLogging(cfg *config.Config, name string) error {
	logFile := expandHome(cfg.Log.File)
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0700); err != nil {
			return fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, name+".log")
	}
	rot := log.Rotation{MaxSizeKB: cfg.Log.MaxSizeKB, MaxFiles: cfg.Log.MaxFiles}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, logFile, rot); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	return nil
}

// SignerPath resolves the signing tool executable: the configured path,
// or the platform tool name inside the data directory.
func SignerPath(cfg *config.Config) (string, error) {
	if cfg.Signer.Tool != "" {
		return expandHome(cfg.Signer.Tool), nil
	}
	name, err := signer.ToolName(runtime.GOOS)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.DataDir, name), nil
}

// NewSigner returns the signing tool configured in cfg, after checking it
// exists and, when verification is on, that its checksum matches.
func NewSigner(cfg *config.Config) (*signer.Tool, error) {
	path, err := SignerPath(cfg)
	if err != nil {
		return nil, err
	}
	tool := signer.NewTool(path, cfg.Signer.Timeout, cfg.Signer.Verify)
	if err := tool.Check(); err != nil {
		return nil, err
	}
	return tool, nil
}
