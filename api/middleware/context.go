package middleware

import "context"

type ctxKey int

const (
	userIDKey ctxKey = iota
	roleKey
	cartTokenKey
	requestIDKey
)

func withValue(ctx context.Context, key ctxKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// UserIDFromContext is empty for anonymous shoppers.
func UserIDFromContext(ctx context.Context) string { return stringValue(ctx, userIDKey) }

func RoleFromContext(ctx context.Context) string { return stringValue(ctx, roleKey) }

// CartTokenFromContext returns the anonymous cart token resolved by CartToken.
func CartTokenFromContext(ctx context.Context) string { return stringValue(ctx, cartTokenKey) }

func RequestIDFromContext(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

func WithUserID(ctx context.Context, userID string) context.Context {
	return withValue(ctx, userIDKey, userID)
}

func WithRole(ctx context.Context, role string) context.Context {
	return withValue(ctx, roleKey, role)
}

func WithCartToken(ctx context.Context, token string) context.Context {
	return withValue(ctx, cartTokenKey, token)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}
