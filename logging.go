package tagconfig

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-logr/logr"
)

// ResolutionLogEvent describes a single evaluate call.
type ResolutionLogEvent struct {
	Operation string
	Key       string
	Tag       string
	Store     string
	Tags      []string
	Found     bool
	Defaulted bool
	Duration  time.Duration
	Err       error
}

// ResolutionLogger records resolution events.
type ResolutionLogger interface {
	LogResolution(ResolutionLogEvent)
}

// ResolutionLoggerFunc adapts a function to ResolutionLogger.
type ResolutionLoggerFunc func(ResolutionLogEvent)

// LogResolution implements ResolutionLogger.
func (f ResolutionLoggerFunc) LogResolution(event ResolutionLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopResolutionLogger struct{}

func (noopResolutionLogger) LogResolution(ResolutionLogEvent) {}

// WithResolutionLogger attaches a resolution logger to the configuration.
func WithResolutionLogger(logger ResolutionLogger) Option {
	return func(cfg *settings) {
		if logger == nil {
			cfg.logger = noopResolutionLogger{}
			return
		}
		cfg.logger = logger
	}
}

type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger reports resolutions at debug level and failures at warn level.
func NewSlogLogger(logger *slog.Logger) ResolutionLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{logger: logger}
}

func (l slogLogger) LogResolution(event ResolutionLogEvent) {
	level := slog.LevelDebug
	if event.Err != nil {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("op", event.Operation),
		slog.String("key", event.Key),
		slog.Any("tags", event.Tags),
		slog.Bool("found", event.Found),
		slog.Duration("duration", event.Duration),
	}
	if event.Found {
		attrs = append(attrs, slog.String("tag", event.Tag), slog.String("store", event.Store))
	}
	if event.Defaulted {
		attrs = append(attrs, slog.Bool("defaulted", true))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("error", event.Err))
	}
	l.logger.LogAttrs(context.Background(), level, "tagconfig resolve", attrs...)
}

type logrLogger struct {
	logger logr.Logger
}

// NewLogrLogger reports resolutions at V(1) and failures through Error.
func NewLogrLogger(logger logr.Logger) ResolutionLogger {
	return logrLogger{logger: logger}
}

func (l logrLogger) LogResolution(event ResolutionLogEvent) {
	kv := []any{
		"op", event.Operation,
		"key", event.Key,
		"tags", event.Tags,
		"found", event.Found,
		"duration", event.Duration,
	}
	if event.Found {
		kv = append(kv, "tag", event.Tag, "store", event.Store)
	}
	if event.Err != nil {
		l.logger.Error(event.Err, "tagconfig resolve failed", kv...)
		return
	}
	l.logger.V(1).Info("tagconfig resolve", kv...)
}
