// Package observability provides structured logging and Prometheus metrics
// for the engine.
package observability

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// Logger wraps slog with context-correlated fields (session id, iteration,
// tool name) and redaction of secrets before any line is written.
type Logger struct {
	logger  *slog.Logger
	redacts []*regexp.Regexp
}

// LogConfig configures Logger construction.
type LogConfig struct {
	Level     string // debug | info | warn | error
	Format    string // json | text
	Output    *os.File
	AddSource bool
}

// ContextKey is the type for context keys the logger reads correlation
// fields from.
type ContextKey string

const (
	SessionIDKey  ContextKey = "session_id"
	IterationKey  ContextKey = "iteration"
	ToolNameKey   ContextKey = "tool_name"
)

// defaultRedactPatterns matches common secret shapes (API keys, bearer
// tokens) so they never reach a log line.
var defaultRedactPatterns = []string{
	`(?i)(api[_-]?key|apikey)[\s:=]+["']?([a-zA-Z0-9_\-]{16,})["']?`,
	`(?i)(bearer|token)[\s:]+([a-zA-Z0-9_\-\.]{16,})`,
	`sk-ant-[a-zA-Z0-9_-]{95,}`,
	`sk-[a-zA-Z0-9]{48,}`,
}

// NewLogger builds a Logger. Level defaults to info, Format to json, Output
// to stdout.
func NewLogger(cfg LogConfig) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	redacts := make([]*regexp.Regexp, 0, len(defaultRedactPatterns))
	for _, p := range defaultRedactPatterns {
		if re, err := regexp.Compile(p); err == nil {
			redacts = append(redacts, re)
		}
	}

	return &Logger{logger: slog.New(handler), redacts: redacts}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	msg = l.redact(msg)

	attrs := make([]any, 0, len(args)+6)
	if v, ok := ctx.Value(SessionIDKey).(string); ok && v != "" {
		attrs = append(attrs, "session_id", v)
	}
	if v, ok := ctx.Value(IterationKey).(int); ok {
		attrs = append(attrs, "iteration", v)
	}
	if v, ok := ctx.Value(ToolNameKey).(string); ok && v != "" {
		attrs = append(attrs, "tool_name", v)
	}
	for _, a := range args {
		if s, ok := a.(string); ok {
			attrs = append(attrs, l.redact(s))
		} else if err, ok := a.(error); ok {
			attrs = append(attrs, l.redact(err.Error()))
		} else {
			attrs = append(attrs, a)
		}
	}

	l.logger.Log(ctx, level, msg, attrs...)
}

func (l *Logger) redact(s string) string {
	for _, re := range l.redacts {
		s = re.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// WithSession returns a context carrying sessionID for correlated logging.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithIteration returns a context carrying the current ReAct iteration.
func WithIteration(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, IterationKey, n)
}
