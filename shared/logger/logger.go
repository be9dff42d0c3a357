package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger for the given service. In development the
// output is routed through a console writer for readability; everywhere else
// it stays structured JSON on stdout.
func New(service, environment string) zerolog.Logger {
	var logger zerolog.Logger
	if environment == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.With().
		Timestamp().
		Str("service", service).
		Logger()
}
