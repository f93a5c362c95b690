package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// New builds the process logger from the log-level and log-format
// settings: JSON when the output is not a tty, colored console
// otherwise.
func New() zerolog.Logger {
	lg := zerolog.New(output()).With().Timestamp().Logger()

	level := viper.GetString("log-level")
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lg.Warn().Str("log-level", level).Msg("unknown log level, falling back to info")
		lvl = zerolog.InfoLevel
	}
	return lg.Level(lvl)
}

func output() io.Writer {
	format := viper.GetString("log-format")
	if format == "" {
		if term.IsTerminal(int(os.Stderr.Fd())) {
			format = "pretty"
		} else {
			format = "json"
		}
	}

	switch format {
	case "json":
		return os.Stderr
	default:
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}
}
