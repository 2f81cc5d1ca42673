package config

import (
	"fmt"
	"strings"
)

// MaxAccountsLimit is the hard cap on accounts.max.
const MaxAccountsLimit = 100

// Validate checks the runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("datadir must not be empty")
	}
	if cfg.Chain.Timeout <= 0 {
		return fmt.Errorf("chain.timeout must be > 0")
	}
	if cfg.Chain.PollInterval <= 0 {
		return fmt.Errorf("chain.poll_interval must be > 0")
	}
	if cfg.Chain.RateLimit < 0 {
		return fmt.Errorf("chain.rate_limit must be >= 0")
	}
	if cfg.Chain.RateLimit > 0 && cfg.Chain.Burst < 1 {
		return fmt.Errorf("chain.burst must be >= 1 when chain.rate_limit is set")
	}
	if cfg.Signer.Timeout <= 0 {
		return fmt.Errorf("signer.timeout must be > 0")
	}
	if err := cfg.KDF.Params().Validate(); err != nil {
		return err
	}
	if cfg.Accounts.Max < 1 || cfg.Accounts.Max > MaxAccountsLimit {
		return fmt.Errorf("accounts.max must be in range [1, %d]", MaxAccountsLimit)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error", "trace":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	if cfg.Log.File != "" && (cfg.Log.MaxSizeKB < 1 || cfg.Log.MaxFiles < 1) {
		return fmt.Errorf("log.max_size_kb and log.max_files must be >= 1 when log.file is set")
	}
	for _, c := range cfg.Coins {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
