// Package logx wraps zerolog so the rest of the repo logs through one place.
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Opts controls how the global logger is initialised.
type Opts struct {
	Level   string // debug, info, warn, error
	Console bool   // pretty console writer instead of JSON
}

// Init configures the global zerolog logger. CLIs call it once at startup;
// library code just uses the package-level event helpers.
func Init(opts Opts) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	var w io.Writer = os.Stderr
	if opts.Console {
		w = zerolog.NewConsoleWriter()
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger().Level(level)
}

func Debug() *zerolog.Event { return log.Debug() }

func Info() *zerolog.Event { return log.Info() }

func Warn() *zerolog.Event { return log.Warn() }

func Error() *zerolog.Event { return log.Error() }

func Fatal() *zerolog.Event { return log.Fatal() }
