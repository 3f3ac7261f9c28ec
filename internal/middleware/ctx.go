package middleware

import "context"

type ctxKey string

const (
	ContextRequestID ctxKey = "request_id"
	ContextUserID    ctxKey = "user_id"
	ContextRole      ctxKey = "role"

	// Флаг для суперадмина — пропускает любые role-проверки.
	ContextSkipGuards ctxKey = "skip_guards"
)

func WithSkipGuards(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextSkipGuards, true)
}

func SkipGuards(ctx context.Context) bool {
	v := ctx.Value(ContextSkipGuards)
	b, _ := v.(bool)
	return b
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(ContextUserID).(int)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextRole).(string)
	return v, ok
}
