// Package logging owns the global zerolog setup. Commands call
// InitDefault before flags are parsed and Init once viper has the
// effective values.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Viper keys the log flags are bound to.
const (
	LevelKey   = "log.level"
	FormatKey  = "log.format"
	NoColorKey = "log.no_color"
)

type Options struct {
	Level   string
	Format  string // "console" or "json"
	NoColor bool
}

// InitDefault installs a console logger at info level, for output
// produced before flags and config are read.
func InitDefault() {
	Init(&Options{Level: zerolog.LevelInfoValue, Format: "console"})
}

// Init configures the global logger. A nil opts reads the effective
// values from viper.
func Init(opts *Options) {
	if opts == nil {
		opts = &Options{
			Level:   viper.GetString(LevelKey),
			Format:  viper.GetString(FormatKey),
			NoColor: viper.GetBool(NoColorKey),
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = os.Stderr
	if opts.Format != "json" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: opts.NoColor}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
