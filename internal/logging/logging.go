package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Craig-Turley/listsync/internal/oops"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.ErrorStackMarshaler = oops.ZerologStackMarshaler
	zerolog.TimeFieldFormat = time.RFC3339
}

// Setup points the global logger at stderr. format is "json" or "console".
func Setup(level, format string) {
	SetOutput(os.Stderr, format)

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func SetOutput(w io.Writer, format string) {
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
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

func Error() *zerolog.Event {
	return log.Error().Stack()
}

func Fatal() *zerolog.Event {
	return log.Fatal().Stack()
}

// Ctx returns the request logger stored in ctx, or the global one.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return GlobalLogger()
	}
	return l
}

// WithRequest attaches a logger tagged with the request id to ctx.
func WithRequest(ctx context.Context, requestId string) context.Context {
	l := log.Logger.With().Str("request_id", requestId).Logger()
	return l.WithContext(ctx)
}
