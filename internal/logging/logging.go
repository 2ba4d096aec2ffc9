// Package logging provides the zerolog-based structured loggers used across
// the analysis pipeline, one sub-logger per component so every log line
// carries a "component" field without each call site repeating it.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// base is the process-wide root logger. Components derive a named
// sub-logger from it via For.
var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetLevel adjusts the global minimum log level.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// For returns a logger tagged with the given component name, e.g.
// logging.For("pipeline").Info().Str("plan_id", id).Msg("starting plan").
func For(component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}
