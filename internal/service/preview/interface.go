// Package preview provides interfaces for types driving the generator preview.
package preview

import (
	"context"

	"github.com/danilovkiri/dk_go_qr_forge/internal/events"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui"
)

// State is the position of the generator in its preview lifecycle.
type State int

const (
	StateIdle State = iota
	StatePreviewing
	StatePreviewed
	StateSaved
)

func (s State) String() string {
	switch s {
	case StatePreviewing:
		return "Previewing"
	case StatePreviewed:
		return "Previewed"
	case StateSaved:
		return "Saved"
	}
	return "Idle"
}

// Controller defines a set of methods for types turning form edits into previews and saved items.
type Controller interface {
	Attach(view ui.PreviewView)
	Edit(fn func(f *modelqr.FormState))
	SetField(name, value string) error
	Flush()
	State() State
	Form() modelqr.FormState
	Payload() modelqr.PreviewPayload
	Render() (modelqr.Render, bool)
	Save(ctx context.Context) (modelqr.Item, error)
	Download(ctx context.Context, format modelqr.Format) (path string, err error)
	OnSessionChanged(ev events.SessionChanged)
	Wait()
}
