package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g.
// INSIGHTWALLET_DATADIR, INSIGHTWALLET_CHAIN_POLL_INTERVAL,
// INSIGHTWALLET_LOG_MAX_SIZE_KB.
const EnvPrefix = "INSIGHTWALLET"

// ApplyEnv overrides cfg with the INSIGHTWALLET_* variables that are set.
// Unset variables leave the current value alone.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}
