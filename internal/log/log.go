// Package log provides structured, colored logging for the wallet.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrick/logrotate/rotator"
	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers for different parts of the system.
var (
	Vault   zerolog.Logger
	Chain   zerolog.Logger
	Sync    zerolog.Logger
	Spend   zerolog.Logger
	Signer  zerolog.Logger
	Storage zerolog.Logger
	Wallet  zerolog.Logger
	Node    zerolog.Logger
)

// Rotation bounds the log file: MaxSizeKB per file, MaxFiles rolled files.
type Rotation struct {
	MaxSizeKB int
	MaxFiles  int
}

// fileSink is the rotating file output, nil when logging to stdout only.
var fileSink *rotatingFile

type rotatingFile struct {
	pw   *io.PipeWriter
	done chan struct{}
}

func init() {
	// Default to colored console output
	Logger = NewConsoleLogger(os.Stdout, "info")
	initComponentLoggers()
}

// Init initializes the logger with the given configuration.
// When file is non-empty, logs are written to both the console (colored or
// JSON depending on jsonOutput) and a size-rotated file (always JSON for
// machine parsing).
func Init(level string, jsonOutput bool, file string, rot Rotation) error {
	if err := Close(); err != nil {
		return err
	}

	if file != "" {
		w, err := newRotatingFile(file, rot)
		if err != nil {
			return err
		}
		fileSink = w

		// Console writer (stdout): colored or JSON per flag.
		var consoleWriter io.Writer
		if jsonOutput {
			consoleWriter = os.Stdout
		} else {
			consoleWriter = zerolog.ConsoleWriter{
				Out:        os.Stdout,
				TimeFormat: "15:04:05",
			}
		}

		multi := zerolog.MultiLevelWriter(consoleWriter, w.pw)
		Logger = zerolog.New(multi).
			Level(parseLevel(level)).
			With().
			Timestamp().
			Logger()
	} else if jsonOutput {
		Logger = NewJSONLogger(os.Stdout, level)
	} else {
		Logger = NewConsoleLogger(os.Stdout, level)
	}

	initComponentLoggers()
	return nil
}

func newRotatingFile(file string, rot Rotation) (*rotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	r, err := rotator.New(file, int64(rot.MaxSizeKB)*1024, false, rot.MaxFiles)
	if err != nil {
		return nil, fmt.Errorf("create log rotator: %w", err)
	}

	pr, pw := io.Pipe()
	rf := &rotatingFile{pw: pw, done: make(chan struct{})}
	go func() {
		defer close(rf.done)
		if err := r.Run(pr); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
			fmt.Fprintf(os.Stderr, "log rotator stopped: %v\n", err)
		}
		r.Close()
	}()
	return rf, nil
}

// Close flushes and closes the log file, if any. The console keeps
// receiving log output.
func Close() error {
	if fileSink == nil {
		return nil
	}
	err := fileSink.pw.Close()
	<-fileSink.done
	fileSink = nil
	Logger = NewConsoleLogger(os.Stdout, Logger.GetLevel().String())
	initComponentLoggers()
	return err
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    false,
	}

	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// parseLevel converts a string level to zerolog.Level.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// initComponentLoggers initializes loggers for each component.
func initComponentLoggers() {
	Vault = WithComponent("vault")
	Chain = WithComponent("chain")
	Sync = WithComponent("sync")
	Spend = WithComponent("spend")
	Signer = WithComponent("signer")
	Storage = WithComponent("storage")
	Wallet = WithComponent("wallet")
	Node = WithComponent("node")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// WithCoin returns a logger tagged with account and coin.
func WithCoin(base zerolog.Logger, account, coin string) zerolog.Logger {
	return base.With().Str("account", account).Str("coin", coin).Logger()
}

// ShortAddr truncates an address for debug output.
func ShortAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// Benchmark helper for timing operations.
func Benchmark(name string) func() {
	start := time.Now()
	return func() {
		Logger.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}
