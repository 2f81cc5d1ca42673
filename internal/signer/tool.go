package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/insightwallet/insightwallet/internal/log"
)

// DefaultTimeout bounds one tool invocation.
const DefaultTimeout = 30 * time.Second

// Tool runs the signing executable. Every call is a separate process.
type Tool struct {
	path    string
	timeout time.Duration
	verify  bool

	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

var _ Signer = (*Tool)(nil)

// NewTool creates a Tool for the executable at path. With verify set,
// Check and every invocation require the pinned digest for this platform.
func NewTool(path string, timeout time.Duration, verify bool) *Tool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tool{path: path, timeout: timeout, verify: verify, command: exec.CommandContext}
}

// Path returns the executable path.
func (t *Tool) Path() string {
	return t.path
}

// Check confirms the tool exists and, when verification is on, matches
// its pinned digest.
func (t *Tool) Check() error {
	info, err := os.Stat(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrToolMissing, t.path)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrToolMissing, t.path)
	}
	if !t.verify {
		return nil
	}
	return VerifyChecksum(t.path, runtime.GOOS)
}

// Sign builds and signs a transaction, returning raw hex.
func (t *Tool) Sign(ctx context.Context, req SignRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	utxos, err := json.Marshal(req.UTXOs)
	if err != nil {
		return "", fmt.Errorf("marshal utxos: %w", err)
	}
	out, err := t.run(ctx,
		"--network", req.Network,
		"--wif", req.WIF,
		"--to", req.Destination,
		"--amount", strconv.FormatUint(req.Amount, 10),
		"--fee", strconv.FormatUint(req.Fee, 10),
		"--utxos", string(utxos),
		"--blockheight", strconv.FormatInt(req.BlockHeight, 10),
	)
	if err != nil {
		return "", err
	}
	log.Signer.Debug().Str("network", req.Network).Int("inputs", len(req.UTXOs)).
		Int("size", len(out)/2).Msg("Transaction signed")
	return out, nil
}

// AddressFromWIF asks the tool for the address of wif.
func (t *Tool) AddressFromWIF(ctx context.Context, network, wif string) (string, error) {
	return t.run(ctx, "--network", network, "--address-from-wif", "--wif", wif)
}

// GenerateAddress asks the tool for a fresh key.
func (t *Tool) GenerateAddress(ctx context.Context, network string) (*GeneratedKey, error) {
	out, err := t.run(ctx, "--network", network, "--gen-address")
	if err != nil {
		return nil, err
	}
	var k GeneratedKey
	if err := json.Unmarshal([]byte(out), &k); err != nil {
		return nil, fmt.Errorf("decode generated key: %w", err)
	}
	if k.Address == "" || k.WIF == "" {
		return nil, fmt.Errorf("generated key: %w", ErrEmptyOutput)
	}
	return &k, nil
}

// run executes the tool and returns trimmed stdout.
func (t *Tool) run(ctx context.Context, args ...string) (string, error) {
	if t.verify {
		if err := t.Check(); err != nil {
			return "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := t.command(ctx, t.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("signing tool timed out after %s", t.timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Signer.Debug().Int("code", exitErr.ExitCode()).Msg("Signing tool failed")
			return "", &ToolError{ExitCode: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrToolMissing, t.path)
		}
		return "", fmt.Errorf("run signing tool: %w", err)
	}
	log.Signer.Trace().Dur("took", time.Since(start)).Msg("Signing tool finished")

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}
