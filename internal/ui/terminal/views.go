package terminal

import (
	"bytes"
	"fmt"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui"
)

// Check interface implementation explicitly
var (
	_ ui.HistoryView = (*HistoryTable)(nil)
	_ ui.PreviewView = (*PreviewPane)(nil)
	_ ui.ProfileView = (*ProfileCard)(nil)
)

const timeLayout = "2006-01-02 15:04"

// HistoryTable prints saved items as a table and keeps the thumbnails delivered for them.
type HistoryTable struct {
	console *Console
	title   string

	mu     sync.Mutex
	thumbs map[modelqr.ItemID]modelqr.AssetRef
}

// HistoryTable returns a table view printing through c under the heading title.
func (c *Console) HistoryTable(title string) *HistoryTable {
	return &HistoryTable{console: c, title: title, thumbs: make(map[modelqr.ItemID]modelqr.AssetRef)}
}

func (v *HistoryTable) ShowLoggedOut() {
	v.mu.Lock()
	v.thumbs = make(map[modelqr.ItemID]modelqr.AssetRef)
	v.mu.Unlock()
	v.console.Printf("%s: log in to see your QR codes.\n", v.title)
}

func (v *HistoryTable) ShowItems(items []modelqr.Item) {
	v.mu.Lock()
	v.thumbs = make(map[modelqr.ItemID]modelqr.AssetRef)
	v.mu.Unlock()
	if len(items) == 0 {
		v.console.Printf("%s: no QR codes yet.\n", v.title)
		return
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s (%d)\n", v.title, len(items))
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tURL\tCREATED")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID, it.Title, it.URL, it.CreatedAt.Local().Format(timeLayout))
	}
	w.Flush()
	v.console.Printf("%s", buf.String())
}

func (v *HistoryTable) ShowThumbnail(id modelqr.ItemID, ref modelqr.AssetRef) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.thumbs[id] = ref
}

// Thumbnail returns the thumbnail delivered for id since the last render.
func (v *HistoryTable) Thumbnail(id modelqr.ItemID) (modelqr.AssetRef, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ref, ok := v.thumbs[id]
	return ref, ok
}

// PreviewPane prints a summary of each rendered preview.
type PreviewPane struct {
	console *Console

	mu          sync.Mutex
	saveEnabled bool
}

// PreviewPane returns a preview view printing through c.
func (c *Console) PreviewPane() *PreviewPane {
	return &PreviewPane{console: c}
}

func (v *PreviewPane) ShowPreview(r modelqr.Render) {
	v.console.Printf("Preview: %s (%dpx, fg %s, bg %s) svg %d bytes, png %d bytes\n",
		r.Payload.URL, r.Payload.Size, r.Payload.ForegroundColor, r.Payload.BackgroundColor, len(r.SVG), len(r.PNG))
}

func (v *PreviewPane) ClearPreview() {
	v.console.Printf("Preview cleared.\n")
}

func (v *PreviewPane) SetSaveEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.saveEnabled = enabled
}

// SaveEnabled reports whether the current preview can be saved.
func (v *PreviewPane) SaveEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.saveEnabled
}

// ProfileCard prints the account profile.
type ProfileCard struct {
	console *Console
}

// ProfileCard returns a profile view printing through c.
func (c *Console) ProfileCard() *ProfileCard {
	return &ProfileCard{console: c}
}

func (v *ProfileCard) ShowLoggedOut() {
	v.console.Printf("Not logged in.\n")
}

func (v *ProfileCard) ShowProfile(p modeldto.Profile) {
	since := "unknown"
	if !p.CreatedAt.IsZero() {
		since = p.CreatedAt.Local().Format(time.DateOnly)
	}
	v.console.Printf("Name:         %s\nEmail:        %s\nMember since: %s\n", p.FullName, p.Email, since)
}
