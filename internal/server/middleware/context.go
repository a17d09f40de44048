package middleware

import (
	"context"
)

type contextKey string

const ContextKeyUserID contextKey = "user_id"

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(string)
	return v, ok
}
