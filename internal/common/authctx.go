package common

import "context"

type adminKey struct{}

// WithAdmin records the authenticated admin username on ctx.
func WithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminKey{}, username)
}

// Admin returns the username set by WithAdmin. ok is false for anonymous
// requests.
func Admin(ctx context.Context) (username string, ok bool) {
	username, _ = ctx.Value(adminKey{}).(string)
	return username, username != ""
}
