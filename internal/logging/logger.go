// Package logging is the structured logger every chankeys component takes in
// its constructor. The only implementation sits on log/slog.
package logging

import "context"

// Logger logs a message with alternating key/value attributes:
//
//	log.Info(ctx, "channel key resolved", "channel_id", id, "source", "cache")
//
// Key material, plaintext and wrapped blobs are never passed as values.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With scopes a child logger, typically by "module".
	With(args ...any) Logger
}
