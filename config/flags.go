package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Version is the release version reported by --version.
const Version = "0.1.0"

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	DataDir string
	Config  string

	// Daemon
	Account string
	Coins   []string

	// Explorer
	PollInterval time.Duration

	// Signing tool
	SignerTool string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetLogJSON bool
}

// ParseFlags parses daemon flags from args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("insightwalletd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var coins string

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Daemon
	fs.StringVar(&f.Account, "account", "", "Account to unlock")
	fs.StringVar(&coins, "coins", "", "Comma-separated coins to watch (default: all coins of the account)")

	// Explorer
	fs.DurationVar(&f.PollInterval, "poll-interval", 0, "Explorer poll interval")

	// Signing tool
	fs.StringVar(&f.SignerTool, "signer-tool", "", "Signing tool path")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			f.Help = true
			return f, nil
		}
		return nil, err
	}

	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Coins = parseStringList(strings.ToUpper(coins))
	f.Args = fs.Args()

	// Detect unparsed flags caused by positional arguments stopping the parser.
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}

	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	// Core
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Explorer
	if f.PollInterval != 0 {
		cfg.Chain.PollInterval = f.PollInterval
	}

	// Signing tool
	if f.SignerTool != "" {
		cfg.Signer.Tool = f.SignerTool
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the daemon help text.
func PrintUsage(w io.Writer) {
	usage := `InsightWallet watch daemon - unlock one account and follow its coins

Usage:
  insightwalletd --account <name> [options]
  insightwalletd --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --datadir       Data directory (default: ~/.insightwallet)
  --config, -c    Config file path (default: <datadir>/insightwallet.conf)

Daemon Options:
  --account       Account to unlock (required)
  --coins         Comma-separated coins to watch (default: all of the account)
  --poll-interval Explorer poll interval (default: 15s)
  --signer-tool   Signing tool path

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path, rotated (default: stdout only)
  --log-json      Output logs as JSON

Environment:
  Every config key can be overridden as INSIGHTWALLET_<SECTION>_<KEY>,
  e.g. INSIGHTWALLET_CHAIN_POLL_INTERVAL=30s. Flags win over the
  environment, the environment wins over the config file.

Examples:
  # Watch every coin of an account
  insightwalletd --account alice01

  # Watch two coins with debug logging
  insightwalletd --account alice01 --coins BTCZ,ZEC --log-level debug
`
	fmt.Fprint(w, usage)
}

// Load parses the daemon's flags and resolves its configuration.
func Load() (*Config, *Flags, error) {
	flags, err := ParseFlags(os.Args[1:])
	if err != nil {
		return nil, nil, err
	}

	// Handle help/version
	if flags.Help {
		PrintUsage(os.Stdout)
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("insightwalletd version " + Version)
		os.Exit(0)
	}

	cfg, err := Resolve(flags)
	if err != nil {
		return nil, nil, err
	}
	return cfg, flags, nil
}

// Resolve builds the configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file and coins.json
// 4. INSIGHTWALLET_* environment
// 5. Command-line flags
func Resolve(flags *Flags) (*Config, error) {
	cfg := Default()

	// The data directory decides where the config file lives, so settle it
	// from the environment and flags first.
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if flags != nil && flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}
	dataDir := cfg.DataDir

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := cfg.ConfigFile()
	if flags != nil && flags.Config != "" {
		configPath = flags.Config
	}

	// Load config file
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	delete(fileValues, "datadir")
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, fmt.Errorf("applying config file: %w", err)
	}
	if err := LoadCoins(cfg.CoinsFile(), cfg.Coins); err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	ApplyFlags(cfg, flags)
	cfg.DataDir = dataDir

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. This is idempotent and safe to call on
// every startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.VaultDir(),
		cfg.StateDir(),
		cfg.LogsDir(),
		cfg.ExportDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	// Create default config if it doesn't exist.
	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
