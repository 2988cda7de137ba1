package auth

import "context"

type ctxKey string

const ctxKeyUser ctxKey = "uid"

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKeyUser, id)
}

// UserIDFromContext returns 0 when the request is anonymous.
func UserIDFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(ctxKeyUser).(int64); ok {
		return v
	}
	return 0
}
