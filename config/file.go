package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "datadir":
		cfg.DataDir = value

	// Explorer
	case "chain.timeout":
		return parseDuration(value, &cfg.Chain.Timeout)
	case "chain.poll_interval":
		return parseDuration(value, &cfg.Chain.PollInterval)
	case "chain.rate_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		cfg.Chain.RateLimit = f
	case "chain.burst":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Chain.Burst = n
	case "chain.user_agent":
		cfg.Chain.UserAgent = value

	// Signing tool
	case "signer.tool":
		cfg.Signer.Tool = value
	case "signer.timeout":
		return parseDuration(value, &cfg.Signer.Timeout)
	case "signer.verify":
		cfg.Signer.Verify = parseBool(value)

	// Key derivation
	case "kdf.memory":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.KDF.Memory = uint32(n)
	case "kdf.iterations":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.KDF.Iterations = uint32(n)
	case "kdf.parallelism":
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return err
		}
		cfg.KDF.Parallelism = uint8(n)

	// Accounts
	case "accounts.max":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Accounts.Max = n

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)
	case "log.max_size_kb":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Log.MaxSizeKB = n
	case "log.max_files":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Log.MaxFiles = n

	default:
		// Unknown keys are ignored
	}
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string) error {
	content := `# InsightWallet Configuration
#
# Precedence: defaults < this file < INSIGHTWALLET_* environment < flags.
# Explorer URLs are set per coin in coins.json next to this file.

# Data directory (default: ~/.insightwallet)
# datadir = ~/.insightwallet

# ============================================================================
# Explorer
# ============================================================================

chain.timeout = 15s
chain.poll_interval = 15s
# Requests per second per coin (0 = unlimited)
chain.rate_limit = 4
chain.burst = 4
# chain.user_agent = insightwallet/0.1

# ============================================================================
# Signing tool
# ============================================================================

# Path to the signing tool (default: <datadir>/mktx, mktx.exe or mktxmac)
# signer.tool =
signer.timeout = 30s
# Refuse to run a tool whose SHA-256 does not match the pinned digest
signer.verify = true

# ============================================================================
# Vault key derivation (Argon2id, applies to new accounts)
# ============================================================================

kdf.memory = 65536
kdf.iterations = 3
kdf.parallelism = 4

# ============================================================================
# Accounts
# ============================================================================

accounts.max = 5

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
log.max_size_kb = 10240
log.max_files = 3
`
	return os.WriteFile(path, []byte(content), 0600)
}
