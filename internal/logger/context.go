package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userIDKey    ctxKey = "user_id"
	userSlotKey  ctxKey = "user_slot"
)

type userSlot struct {
	id string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID tags log lines emitted under ctx with the authenticated user.
// It also fills the slot installed by WithUserSlot, if any.
func WithUserID(ctx context.Context, userID string) context.Context {
	if slot, ok := ctx.Value(userSlotKey).(*userSlot); ok {
		slot.id = userID
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// WithUserSlot lets a middleware see the user authenticated further down the
// chain. The returned func reports it once the inner handler has returned.
func WithUserSlot(ctx context.Context) (context.Context, func() string) {
	slot := &userSlot{}
	return context.WithValue(ctx, userSlotKey, slot), func() string { return slot.id }
}

// FromCtx returns the global logger enriched with request_id and user_id when present.
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()

	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if uid, ok := ctx.Value(userIDKey).(string); ok && uid != "" {
		l = l.With(zap.String("user_id", uid))
	}

	return l
}
