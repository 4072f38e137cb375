// Package logger adapts rs/zerolog to the core logger interface.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/opsched/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

var (
	mu     sync.RWMutex
	output io.Writer = os.Stderr
	level            = zerolog.InfoLevel
)

// Configure sets the level and destination used by loggers created
// afterwards. An empty level keeps the current one; a nil writer keeps the
// current destination.
func Configure(lvl string, out io.Writer) error {
	mu.Lock()
	defer mu.Unlock()
	if lvl != "" {
		parsed, err := zerolog.ParseLevel(lvl)
		if err != nil {
			return err
		}
		level = parsed
	}
	if out != nil {
		output = out
	}
	return nil
}

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable.
func New(component string) Logger {
	mu.RLock()
	out, lvl := output, level
	mu.RUnlock()
	return NewZerologLogger(component, out, lvl)
}
