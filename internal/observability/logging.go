// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	GlobalLogger = NewLogger(os.Stdout, os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
	RequestID     LogContextKey = "request_id"
)

// LoggingConfig defines which types of automated logging are enabled.
type LoggingConfig struct {
	EnableStoreLogging bool
	EnableWSLogging    bool
}

var (
	// Config holds the current logging configuration.
	Config = LoggingConfig{
		EnableStoreLogging: true,
		EnableWSLogging:    true,
	}
)

// ctxHandler adds request and correlation ids from the context to every record.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestID).(string); ok && rid != "" {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if cid, ok := ctx.Value(CorrelationID).(string); ok && cid != "" {
		r.AddAttrs(slog.String("correlation_id", cid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

// NewLogger builds a context-aware logger. Production gets JSON, everything else text.
func NewLogger(w io.Writer, env, level string) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(&ctxHandler{handler})}
}

// Configure replaces GlobalLogger. Called once at startup after config is loaded.
func Configure(env, level string) {
	GlobalLogger = NewLogger(os.Stdout, env, level)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
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

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// WithRequestID returns a new context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// StoreLogger provides structured logging for session store mutations.
type StoreLogger struct {
	collection string
	logger     func() *Logger
}

// NewStoreLogger creates a new StoreLogger for the given collection.
func NewStoreLogger(collection string) *StoreLogger {
	return &StoreLogger{
		collection: collection,
		logger:     func() *Logger { return GlobalLogger },
	}
}

// LogMutation logs a committed store mutation.
func (l *StoreLogger) LogMutation(ctx context.Context, operation string, version uint64, fields map[string]interface{}) {
	if !Config.EnableStoreLogging {
		return
	}
	attrs := []any{
		slog.String("collection", l.collection),
		slog.String("operation", operation),
		slog.Uint64("version", version),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger().DebugContext(ctx, "store mutation", attrs...)
}

// LogError logs a rejected store mutation.
func (l *StoreLogger) LogError(ctx context.Context, err error, operation string) {
	if !Config.EnableStoreLogging {
		return
	}
	l.logger().WarnContext(ctx, "store mutation rejected",
		slog.String("collection", l.collection),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// WSLogger provides structured logging for WebSocket operations.
type WSLogger struct {
	hubName string
}

// NewWSLogger creates a new WSLogger for the given hub.
func NewWSLogger(hubName string) *WSLogger {
	return &WSLogger{hubName: hubName}
}

// LogConnect logs a WebSocket connection event.
func (l *WSLogger) LogConnect(ctx context.Context, clientID string) {
	if !Config.EnableWSLogging {
		return
	}
	GlobalLogger.InfoContext(ctx, "websocket connected",
		slog.String("hub", l.hubName),
		slog.String("client_id", clientID),
	)
}

// LogDisconnect logs a WebSocket disconnection event.
func (l *WSLogger) LogDisconnect(ctx context.Context, clientID string, reason string) {
	if !Config.EnableWSLogging {
		return
	}
	GlobalLogger.InfoContext(ctx, "websocket disconnected",
		slog.String("hub", l.hubName),
		slog.String("client_id", clientID),
		slog.String("reason", reason),
	)
}

// LogError logs a WebSocket error event.
func (l *WSLogger) LogError(ctx context.Context, clientID string, err error, eventType string) {
	if !Config.EnableWSLogging {
		return
	}
	GlobalLogger.ErrorContext(ctx, "websocket error",
		slog.String("hub", l.hubName),
		slog.String("client_id", clientID),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogServiceCall logs an engine operation and its outcome.
func LogServiceCall(ctx context.Context, service, method string, err error, fields map[string]interface{}) {
	attrs := []any{
		slog.String("service", service),
		slog.String("method", method),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		GlobalLogger.WarnContext(ctx, "service call failed", attrs...)
		return
	}
	GlobalLogger.InfoContext(ctx, "service call", attrs...)
}
