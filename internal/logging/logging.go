// Package logging configures the zerolog logger shared by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/AnyUserName/pngkit/internal/oops"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.ErrorStackMarshaler = oops.ZerologStackMarshaler
	log.Logger = New(os.Stderr, zerolog.InfoLevel)
}

// New returns a console logger writing to w. Colors are used only when w
// is a terminal.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.Kitchen,
	}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// ParseLevel resolves the --log-level name. verbose forces at least
// debug output.
func ParseLevel(name string, verbose bool) (zerolog.Level, error) {
	level := zerolog.InfoLevel
	if name != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(name))
		if err != nil {
			return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
		}
		level = l
	}
	if verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	return level, nil
}

// Setup replaces the global logger.
func Setup(w io.Writer, level zerolog.Level) {
	log.Logger = New(w, level)
}

func GlobalLogger() *zerolog.Logger {
	return &log.Logger
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

// Error events carry the stack of an oops error passed to Err.
func Error() *zerolog.Event {
	return log.Error().Stack()
}

func With() zerolog.Context {
	return log.With()
}

// LogPanics is deferred by worker goroutines so a crash on one file is
// reported instead of taking the process down silently.
func LogPanics(logger *zerolog.Logger) {
	if r := recover(); r != nil {
		LogPanicValue(logger, r, "recovered from panic")
	}
}

func LogPanicValue(logger *zerolog.Logger, val interface{}, msg string) {
	if logger == nil {
		logger = GlobalLogger()
	}
	if err, ok := val.(error); ok {
		ev := logger.Error().Err(err)
		if _, ok := err.(*oops.Error); !ok {
			ev = ev.Interface(zerolog.ErrorStackFieldName, oops.Trace())
		}
		ev.Msg(msg)
		return
	}
	logger.Error().
		Interface("recovered", val).
		Interface(zerolog.ErrorStackFieldName, oops.Trace()).
		Msg(msg)
}
