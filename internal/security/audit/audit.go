package audit

import (
	"context"
	"log/slog"
	"time"
)

type requestIDKey struct{}

// RequestIDKey is the context key the request ID middleware stores the
// generated ID under.
var RequestIDKey = requestIDKey{}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status, details string) {
	requestID := ""
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		requestID = reqID
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogReviewSubmission(ctx context.Context, userID, status, details string) {
	al.LogAction(ctx, userID, "add_review", "review", "", status, details)
}

func (al *Logger) LogRegistration(ctx context.Context, status, details string) {
	al.LogAction(ctx, "", "register", "user", "", status, details)
}

func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, "access_denied", "api", "", "denied", reason)
}
