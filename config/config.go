// Package config handles application configuration.
//
// Settings are resolved in four layers: built-in defaults, the
// insightwallet.conf file in the data directory, INSIGHTWALLET_*
// environment variables, and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/insightwallet/insightwallet/internal/wallet"
)

// Config holds the wallet's runtime configuration.
type Config struct {
	DataDir string `conf:"datadir"`

	// Explorer access
	Chain ChainConfig

	// External signing tool
	Signer SignerConfig

	// Vault key derivation for new accounts
	KDF KDFConfig

	Accounts AccountsConfig

	// Logging
	Log LogConfig

	// Coin registry, built-ins merged with <datadir>/coins.json.
	Coins Registry `ignored:"true"`
}

// ChainConfig holds explorer client settings.
type ChainConfig struct {
	Timeout      time.Duration `conf:"chain.timeout"`
	PollInterval time.Duration `conf:"chain.poll_interval" split_words:"true"`
	RateLimit    float64       `conf:"chain.rate_limit" split_words:"true"` // Requests per second per coin, 0 = unlimited.
	Burst        int           `conf:"chain.burst"`
	UserAgent    string        `conf:"chain.user_agent" split_words:"true"`
}

// SignerConfig holds signing tool settings.
type SignerConfig struct {
	Tool    string        `conf:"signer.tool"` // Empty = <datadir>/<platform tool name>.
	Timeout time.Duration `conf:"signer.timeout"`
	Verify  bool          `conf:"signer.verify"`
}

// KDFConfig holds the Argon2id cost used when creating vaults.
type KDFConfig struct {
	Memory      uint32 `conf:"kdf.memory"` // KiB
	Iterations  uint32 `conf:"kdf.iterations"`
	Parallelism uint8  `conf:"kdf.parallelism"`
}

// Params converts to wallet encryption parameters.
func (k KDFConfig) Params() wallet.EncryptionParams {
	return wallet.EncryptionParams{
		Memory:      k.Memory,
		Iterations:  k.Iterations,
		Parallelism: k.Parallelism,
	}
}

// AccountsConfig limits local accounts.
type AccountsConfig struct {
	Max int `conf:"accounts.max"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level     string `conf:"log.level"`
	File      string `conf:"log.file"`
	JSON      bool   `conf:"log.json"`
	MaxSizeKB int    `conf:"log.max_size_kb" split_words:"true"`
	MaxFiles  int    `conf:"log.max_files" split_words:"true"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.insightwallet
//	macOS:   ~/Library/Application Support/InsightWallet
//	Windows: %APPDATA%\InsightWallet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".insightwallet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "InsightWallet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "InsightWallet")
		}
		return filepath.Join(home, "AppData", "Roaming", "InsightWallet")
	default:
		return filepath.Join(home, ".insightwallet")
	}
}

// VaultDir returns the directory holding one vault file per account.
func (c *Config) VaultDir() string {
	return filepath.Join(c.DataDir, "vaults")
}

// StateDir returns the sync-state database directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.DataDir, "state")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ExportDir returns the default directory for key exports.
func (c *Config) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "insightwallet.conf")
}

// CoinsFile returns the coin registry override file.
func (c *Config) CoinsFile() string {
	return filepath.Join(c.DataDir, "coins.json")
}
