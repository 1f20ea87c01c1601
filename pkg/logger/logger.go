// Package logger wraps log/slog with a runtime adjustable level and
// OpenTelemetry trace correlation.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
)

// Level is a logging threshold.
type Level int8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levels = [...]struct {
	name string
	slog slog.Level
}{
	DebugLevel: {"debug", slog.LevelDebug},
	InfoLevel:  {"info", slog.LevelInfo},
	WarnLevel:  {"warn", slog.LevelWarn},
	ErrorLevel: {"error", slog.LevelError},
}

func (l Level) valid() bool { return l >= DebugLevel && l <= ErrorLevel }

func (l Level) String() string {
	if !l.valid() {
		return "unknown"
	}
	return levels[l].name
}

func (l Level) slogLevel() slog.Level {
	if !l.valid() {
		return slog.LevelInfo
	}
	return levels[l].slog
}

// ParseLevel maps a case-insensitive level name to a Level. Unknown names
// yield InfoLevel.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return WarnLevel
	}
	for l, def := range levels {
		if def.name == s {
			return Level(l)
		}
	}
	return InfoLevel
}

func levelOf(sl slog.Level) Level {
	for l := ErrorLevel; l > DebugLevel; l-- {
		if sl >= levels[l].slog {
			return l
		}
	}
	return DebugLevel
}

// Config holds logger configuration.
type Config struct {
	Level  Level
	Format string // "json" or "text"
	Output string // "stdout", "stderr", or file path

	// AddSource adds the caller's file:line to every record.
	AddSource bool

	// Service and Version, when set, are attached to every record.
	Service string
	Version string
}

// Logger is the structured logger used across semindex.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// The Context variants add trace_id and span_id when ctx carries a span.
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	// With returns a child logger. Children share the parent's level.
	With(args ...any) Logger

	SetLevel(level Level)
	Level() Level

	// Close releases the output file. It is a no-op for children and
	// standard streams.
	Close() error
}

type slogLogger struct {
	*slog.Logger
	level *slog.LevelVar
	out   io.Closer
}

// New creates a logger. A nil cfg logs JSON at info level to stdout. When
// the output file cannot be opened the logger writes to stderr instead.
func New(cfg *Config) Logger {
	if cfg == nil {
		cfg = &Config{Level: InfoLevel, Format: "json", Output: "stdout"}
	}

	w, closer, err := openOutput(cfg.Output)
	if err != nil {
		w = os.Stderr
	}
	l := build(w, cfg)
	l.out = closer
	if err != nil {
		l.Warn("log output unavailable, using stderr", "output", cfg.Output, "error", err)
	}
	return l
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelError)
	return &slogLogger{Logger: slog.New(slog.DiscardHandler), level: lv}
}

func build(w io.Writer, cfg *Config) *slogLogger {
	lv := new(slog.LevelVar)
	lv.Set(cfg.Level.slogLevel())

	opts := &slog.HandlerOptions{
		Level:       lv,
		AddSource:   cfg.AddSource,
		ReplaceAttr: renameKeys,
	}
	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if cfg.Format == "text" {
		h = slog.NewTextHandler(w, opts)
	}

	var attrs []any
	if cfg.Service != "" {
		attrs = append(attrs, "service", cfg.Service)
	}
	if cfg.Version != "" {
		attrs = append(attrs, "version", cfg.Version)
	}
	return &slogLogger{
		Logger: slog.New(traceHandler{h}).With(attrs...),
		level:  lv,
	}
}

func openOutput(dst string) (io.Writer, io.Closer, error) {
	switch dst {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// renameKeys writes "message" instead of "msg" and lowercase level names.
func renameKeys(groups []string, a slog.Attr) slog.Attr {
	if len(groups) != 0 {
		return a
	}
	switch a.Key {
	case slog.MessageKey:
		a.Key = "message"
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(strings.ToLower(lvl.String()))
		}
	}
	return a
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{Logger: l.Logger.With(args...), level: l.level}
}

func (l *slogLogger) SetLevel(level Level) { l.level.Set(level.slogLevel()) }

func (l *slogLogger) Level() Level { return levelOf(l.level.Level()) }

func (l *slogLogger) Close() error {
	if l.out == nil {
		return nil
	}
	return l.out.Close()
}

// traceHandler stamps records with the active span's identifiers.
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			r.AddAttrs(
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
			)
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

var global atomic.Pointer[Logger]

func init() {
	SetGlobal(New(&Config{Level: InfoLevel, Format: "text", Output: "stderr"}))
}

// Global returns the process-wide logger.
func Global() Logger {
	return *global.Load()
}

// SetGlobal replaces the process-wide logger and, for loggers built by this
// package, the slog default. Nil is ignored.
func SetGlobal(l Logger) {
	if l == nil {
		return
	}
	global.Store(&l)
	if sl, ok := l.(*slogLogger); ok {
		slog.SetDefault(sl.Logger)
	}
}
