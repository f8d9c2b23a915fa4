// Package debug provides the process-wide debug logger built on log/slog.
// Logging is off unless PULSE_DEBUG is set or Init(true) is called.
package debug

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
)

// EnvVar enables debug logging when set to a true value.
const EnvVar = "PULSE_DEBUG"

var (
	logger  *slog.Logger
	enabled bool
	out     io.Writer = os.Stderr
	// mu protects logger, enabled and out
	mu sync.RWMutex
)

func init() {
	on, _ := strconv.ParseBool(os.Getenv(EnvVar))
	Init(on)
}

// Init enables or disables debug output. Disabled logs are discarded.
func Init(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = enable
	logger = newLogger(out, enable)
}

// SetOutput redirects log output, keeping the enabled state.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	logger = newLogger(out, enabled)
}

func newLogger(w io.Writer, enable bool) *slog.Logger {
	level := slog.LevelDebug
	if !enable {
		// Above any level actually emitted.
		level = slog.LevelError + 1
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
