// Package account provides interfaces for types handling authentication forms and the profile.
package account

import (
	"context"

	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/events"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui"
)

// Controller defines a set of methods for types managing the account of the session.
type Controller interface {
	Attach(view ui.ProfileView)
	Signup(ctx context.Context, fullName, email, password string) (modeldto.Profile, error)
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (modeldto.Profile, error)
	DeleteAccount(ctx context.Context) error
	ExportCSV(ctx context.Context) (path string, err error)
	OnSessionChanged(ev events.SessionChanged)
	Wait()
}
