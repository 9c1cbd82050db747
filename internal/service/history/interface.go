// Package history provides interfaces for types rendering the saved items of the session.
package history

import (
	"context"

	"github.com/danilovkiri/dk_go_qr_forge/internal/events"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui"
)

// ViewKind selects the projection a mounted view receives.
type ViewKind int

const (
	// ViewCompact receives the most recent items only.
	ViewCompact ViewKind = iota
	// ViewFull receives every item.
	ViewFull
)

// String returns a readable name of the kind.
func (k ViewKind) String() string {
	if k == ViewCompact {
		return "compact"
	}
	return "full"
}

// Refresher defines a set of methods for types reloading the item list.
type Refresher interface {
	Refresh(ctx context.Context) ([]modelqr.Item, error)
}

// Controller defines a set of methods for types projecting one item list into several views.
type Controller interface {
	Refresher
	Mount(kind ViewKind, view ui.HistoryView) (unmount func())
	Item(id modelqr.ItemID) (modelqr.Item, bool)
	Delete(ctx context.Context, id modelqr.ItemID) error
	Download(ctx context.Context, id modelqr.ItemID, format modelqr.Format) (path string, err error)
	OnSessionChanged(ev events.SessionChanged)
	Wait()
}
