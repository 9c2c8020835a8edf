// Package logger configures process-wide structured logging on top of
// log/slog. It owns the default logger, the legacy log package redirection,
// and the subsystem name other packages (such as telemetry) use to identify
// the process.
package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/amp-labs/amp-spanbridge/contexts"
	"github.com/amp-labs/amp-spanbridge/envutil"
)

// subsystem is the process-wide component name, set once by configuration and
// read by anything that needs to label its output. atomic.Value keeps reads
// and writes race-free.
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex serializes ConfigureLoggingWithOptions calls, which mutate
// global state (slog.SetDefault and log.Default).
var configMutex sync.Mutex //nolint:gochecknoglobals

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const subsystemKey contextKey = "subsystem"

// Options configures logging.
type Options struct {
	Subsystem string
	JSON      bool
	MinLevel  slog.Level
	Output    io.Writer
}

// ConfigureLoggingWithOptions configures the default slog logger and the
// legacy log package, and records the subsystem name. It returns the
// configured logger. Thread-safe; concurrent calls are serialized.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{Level: opts.MinLevel})
	} else {
		handler = slog.NewTextHandler(opts.Output, &slog.HandlerOptions{Level: opts.MinLevel})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Third-party packages may still log through the old log package; route
	// that through the same handler.
	def := log.Default()
	*def = *slog.NewLogLogger(handler, slog.LevelInfo)

	subsystem.Store(opts.Subsystem)

	return logger
}

// Option is a functional option for ConfigureLogging.
type Option func(*Options)

// ConfigureLogging configures logging for the application from the
// environment: LOG_JSON selects the output format and LOG_LEVEL the minimum
// level. app becomes the subsystem name.
func ConfigureLogging(app string, opts ...Option) *slog.Logger {
	options := Options{
		Subsystem: app,
		JSON:      envutil.Bool("LOG_JSON", envutil.Default(false)).ValueOrElse(false),
		MinLevel:  minLevelFromEnv(),
		Output:    os.Stdout,
	}

	for _, o := range opts {
		if o != nil {
			o(&options)
		}
	}

	return ConfigureLoggingWithOptions(options)
}

func minLevelFromEnv() slog.Level {
	raw := envutil.String("LOG_LEVEL", envutil.Default("info")).ValueOrElse("info")

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("unrecognized LOG_LEVEL, defaulting to info", "value", raw)

		return slog.LevelInfo
	}

	return level
}

// WithSubsystem overrides the subsystem name for work flowing through ctx.
func WithSubsystem(ctx context.Context, name string) context.Context {
	return contexts.WithValue[contextKey, string](ctx, subsystemKey, name)
}

// GetSubsystem returns the subsystem name from ctx if one was set there, and
// otherwise the process-wide name recorded at configuration time.
func GetSubsystem(ctx context.Context) string {
	if name, ok := contexts.GetValue[contextKey, string](ctx, subsystemKey); ok {
		return name
	}

	if name, ok := subsystem.Load().(string); ok {
		return name
	}

	return ""
}

// Fatal logs an error message and exits the application.
func Fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
