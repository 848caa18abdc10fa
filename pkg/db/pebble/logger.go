package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"
)

var _ pebble.Logger = logger{}

// logger forwards pebble's engine messages to zerolog. Informational engine
// chatter is demoted to debug.
type logger struct {
	log zerolog.Logger
}

func newLogger(l zerolog.Logger) logger {
	return logger{log: l.With().Str("engine", "pebble").Logger()}
}

func (l logger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l logger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l logger) Fatalf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
	panic(fmt.Sprintf(format, args...))
}
