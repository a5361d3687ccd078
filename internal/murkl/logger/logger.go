// Package logger provides the process logger for the proof engine.
//
// The logger is observability plumbing only; nothing in the proof bytes
// depends on it, and it can be disabled entirely for embedded use.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.Mutex
	log zerolog.Logger
)

func init() {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(writer).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// Logger returns the current process logger.
func Logger() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return log
}

// SetOutput redirects log output, e.g. to a file or io.Discard.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Output(w)
}

// SetLevel adjusts the global verbosity.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Level(level)
}

// Disable turns logging off.
func Disable() {
	SetLevel(zerolog.Disabled)
}
