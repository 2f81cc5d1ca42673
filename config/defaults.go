package config

import (
	"time"

	"github.com/insightwallet/insightwallet/internal/wallet"
)

// Default values.
const (
	DefaultPollInterval  = 15 * time.Second
	DefaultChainTimeout  = 15 * time.Second
	DefaultSignerTimeout = 30 * time.Second
	DefaultMaxAccounts   = 5
	DefaultUserAgent     = "insightwallet/0.1"
)

// Default returns the default configuration.
func Default() *Config {
	kdf := wallet.DefaultParams()
	return &Config{
		DataDir: DefaultDataDir(),
		Chain: ChainConfig{
			Timeout:      DefaultChainTimeout,
			PollInterval: DefaultPollInterval,
			RateLimit:    4,
			Burst:        4,
			UserAgent:    DefaultUserAgent,
		},
		Signer: SignerConfig{
			Timeout: DefaultSignerTimeout,
			Verify:  true,
		},
		KDF: KDFConfig{
			Memory:      kdf.Memory,
			Iterations:  kdf.Iterations,
			Parallelism: kdf.Parallelism,
		},
		Accounts: AccountsConfig{
			Max: DefaultMaxAccounts,
		},
		Log: LogConfig{
			Level:     "info",
			JSON:      false,
			MaxSizeKB: 10 * 1024,
			MaxFiles:  3,
		},
		Coins: DefaultCoins(),
	}
}
