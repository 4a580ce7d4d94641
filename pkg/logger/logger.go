package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey int

const (
	requestKey ctxKey = iota
	loggerKey
)

// request holds the per-request identity that log lines are tagged with.
type request struct {
	correlationID string
	userID        string
	role          string
}

func requestFrom(ctx context.Context) request {
	r, _ := ctx.Value(requestKey).(request)
	return r
}

// New returns a JSON logger on stdout. Every record carries the service name.
func New(serviceName, level string) *slog.Logger {
	return NewWithWriter(serviceName, level, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(serviceName, level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl == slog.LevelDebug}
	return slog.New(slog.NewJSONHandler(w, opts)).With("service", serviceName)
}

// ParseLevel maps a level name to a slog.Level. Unknown names fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func WithCorrelationID(ctx context.Context, id string) context.Context {
	r := requestFrom(ctx)
	r.correlationID = id
	return context.WithValue(ctx, requestKey, r)
}

func CorrelationIDFromContext(ctx context.Context) string {
	return requestFrom(ctx).correlationID
}

// WithPrincipal records the authenticated user and role for log enrichment.
func WithPrincipal(ctx context.Context, userID, role string) context.Context {
	r := requestFrom(ctx)
	r.userID, r.role = userID, role
	return context.WithValue(ctx, requestKey, r)
}

func UserIDFromContext(ctx context.Context) string {
	return requestFrom(ctx).userID
}

// NewContext stores l as the request logger.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the request logger, or slog.Default() outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithContext tags l with whatever request identity and span ctx carries.
// Empty values are omitted.
func WithContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	r := requestFrom(ctx)
	var attrs []any
	for _, f := range [...]struct{ key, val string }{
		{"correlation_id", r.correlationID},
		{"user_id", r.userID},
		{"role", r.role},
	} {
		if f.val != "" {
			attrs = append(attrs, slog.String(f.key, f.val))
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}
