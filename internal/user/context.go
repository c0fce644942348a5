package user

import "context"

type ctxKey struct{}

// NewContext attaches the authenticated user to the request context.
func NewContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the authenticated user, if any. Handlers behind the
// optional middleware must tolerate ok being false.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok
}
