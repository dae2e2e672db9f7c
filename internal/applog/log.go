// Package applog builds the zerolog loggers injected into every component.
// There is no process-global logger; each run constructs its own and scopes
// it with component/symbol/run fields.
package applog

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a logger writing to stderr at the given level with a component
// field. Unparseable levels fall back to info.
func New(component, level string) zerolog.Logger {
	return NewWriter(os.Stderr, component, level)
}

// NewWriter is New with an explicit destination, used by tests.
func NewWriter(w io.Writer, component, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Str("component", component).Logger().Level(lvl)
}
