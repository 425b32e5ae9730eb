package ctxdata

import (
	"context"
)

type traceIDKey struct{}
type userIDKey struct{}

var (
	traceIDKeyInstance = traceIDKey{}
	userIDKeyInstance  = userIDKey{}
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKeyInstance, traceID)
}

func GetTraceID(ctx context.Context) (string, bool) {
	v := ctx.Value(traceIDKeyInstance)
	traceID, ok := v.(string)
	return traceID, ok
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKeyInstance, userID)
}

func GetUserID(ctx context.Context) (int64, bool) {
	v := ctx.Value(userIDKeyInstance)
	userID, ok := v.(int64)
	return userID, ok
}
