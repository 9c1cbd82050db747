// Package session provides interfaces for types owning the bearer credential.
package session

import "context"

// TokenStore defines a set of methods for types owning the bearer credential.
type TokenStore interface {
	Token() (token string, ok bool)
	IsAuthed() bool
	Expired() bool
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	ClearIfCurrent(ctx context.Context, token string) (cleared bool, err error)
}
