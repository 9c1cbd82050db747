// Package ui provides interfaces for the user-facing collaborators of the controllers.
package ui

import (
	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

// Notifier defines a set of methods for types showing transient notices.
type Notifier interface {
	Notify(msg string)
}

// Navigator defines a set of methods for types switching to another surface.
type Navigator interface {
	ToLogin()
}

// Confirmer defines a set of methods for types asking the user to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Saver defines a set of methods for types handing bytes to the user as a named file.
type Saver interface {
	Save(name string, data []byte) (path string, err error)
}

// HistoryView defines a set of methods for types rendering saved items.
type HistoryView interface {
	ShowLoggedOut()
	ShowItems(items []modelqr.Item)
	ShowThumbnail(id modelqr.ItemID, ref modelqr.AssetRef)
}

// PreviewView defines a set of methods for types rendering the generator preview.
type PreviewView interface {
	ShowPreview(r modelqr.Render)
	ClearPreview()
	SetSaveEnabled(enabled bool)
}

// ProfileView defines a set of methods for types rendering the account profile.
type ProfileView interface {
	ShowLoggedOut()
	ShowProfile(p modeldto.Profile)
}
