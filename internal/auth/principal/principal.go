// Package principal carries the authenticated identity of a request through
// its context.
package principal

import "context"

type Principal struct {
	UserID      string
	DisplayName string
}

// Authenticated reports whether p identifies a user. The zero value is the
// anonymous principal.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

type contextKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	if !ok || !p.Authenticated() {
		return Principal{}, false
	}
	return p, true
}
