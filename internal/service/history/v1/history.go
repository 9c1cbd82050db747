// Package history renders the saved items of the session into compact and full views.
package history

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/danilovkiri/dk_go_qr_forge/internal/config"
	"github.com/danilovkiri/dk_go_qr_forge/internal/events"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/assetcache"
	serviceErrors "github.com/danilovkiri/dk_go_qr_forge/internal/service/errors"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/gateway"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/history"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/session"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui"
)

// DefaultCompactLimit is the number of items the compact view shows when not configured.
const DefaultCompactLimit = 8

// Notices shown by the controller.
const (
	NoticeLoadFailed     = "Could not load your QR history."
	NoticeDeleted        = "QR code deleted."
	NoticeDeleteFailed   = "Could not delete the QR code."
	NoticeDownloadFailed = "Download failed."
)

// Check interface implementation explicitly
var (
	_ history.Controller = (*History)(nil)
)

type mounted struct {
	id   int
	kind history.ViewKind
	view ui.HistoryView
}

// History defines object structure and its attributes.
// Views are called with the controller lock held and must not call back into it.
type History struct {
	gw           gateway.Gateway
	tokens       session.TokenStore
	cache        assetcache.Cache
	notifier     ui.Notifier
	confirmer    ui.Confirmer
	saver        ui.Saver
	compactLimit int
	thumbFormat  modelqr.Format

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	nextView    int
	views       []mounted
	items       map[modelqr.ItemID]modelqr.Item
	generation  uint64
	thumbCancel context.CancelFunc
}

// InitHistory initializes a History controller and sets its attributes.
func InitHistory(cfg *config.Config, gw gateway.Gateway, tokens session.TokenStore, cache assetcache.Cache,
	notifier ui.Notifier, confirmer ui.Confirmer, saver ui.Saver) (*History, error) {
	if gw == nil || tokens == nil || cache == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil gateway, token store or cache was passed to history initializer"}
	}
	if notifier == nil || confirmer == nil || saver == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil ui collaborator was passed to history initializer"}
	}
	h := &History{
		gw:           gw,
		tokens:       tokens,
		cache:        cache,
		notifier:     notifier,
		confirmer:    confirmer,
		saver:        saver,
		compactLimit: DefaultCompactLimit,
		thumbFormat:  modelqr.FormatPNG,
		items:        make(map[modelqr.ItemID]modelqr.Item),
	}
	if cfg != nil {
		if cfg.CompactHistoryLimit > 0 {
			h.compactLimit = cfg.CompactHistoryLimit
		}
		if f, err := modelqr.ParseFormat(cfg.ThumbnailFormat); err == nil {
			h.thumbFormat = f
		}
	}
	h.ctx, h.cancel = context.WithCancel(context.Background())
	return h, nil
}

// Mount registers view for every subsequent render.
func (h *History) Mount(kind history.ViewKind, view ui.HistoryView) (unmount func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextView
	h.nextView++
	h.views = append(h.views, mounted{id: id, kind: kind, view: view})
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, m := range h.views {
				if m.id == id {
					h.views = append(h.views[:i], h.views[i+1:]...)
					return
				}
			}
		})
	}
}

// Refresh reloads the item list and renders every mounted view from it. Without a session it
// renders the logged-out placeholder and makes no network call.
func (h *History) Refresh(ctx context.Context) ([]modelqr.Item, error) {
	if !h.tokens.IsAuthed() {
		h.reset()
		return nil, nil
	}
	var items []modelqr.Item
	if _, err := h.gw.Call(ctx, gateway.Get(gateway.EndpointHistory, &items)); err != nil {
		if !serviceErrors.IsUnauthorized(err) {
			log.Println("Refreshing history:", err)
			h.notifier.Notify(NoticeLoadFailed)
		}
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt.Time)
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = make(map[modelqr.ItemID]modelqr.Item, len(items))
	for _, it := range items {
		h.items[it.ID] = it
	}
	generation := h.invalidateLocked()
	thumbs := 0
	for _, m := range h.views {
		shown := h.project(m.kind, items)
		m.view.ShowItems(shown)
		if len(shown) > thumbs {
			thumbs = len(shown)
		}
	}
	if thumbs > 0 {
		h.loadThumbnails(generation, items[:thumbs])
	}
	return items, nil
}

// Item returns the item with id from the last refresh.
func (h *History) Item(id modelqr.ItemID) (modelqr.Item, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	it, ok := h.items[id]
	return it, ok
}

// Delete asks for confirmation, deletes the item and refreshes the views.
func (h *History) Delete(ctx context.Context, id modelqr.ItemID) error {
	prompt := fmt.Sprintf("Delete QR code %s?", id)
	if it, ok := h.Item(id); ok {
		prompt = fmt.Sprintf("Delete %q?", it.Title)
	}
	if !h.confirmer.Confirm(prompt) {
		return &serviceErrors.ConfirmationDeclinedError{Action: "delete"}
	}
	if _, err := h.gw.Call(ctx, gateway.Delete(gateway.ItemEndpoint(string(id)))); err != nil {
		if !serviceErrors.IsUnauthorized(err) {
			log.Println("Deleting item:", err)
			h.notifier.Notify(NoticeDeleteFailed)
		}
		return err
	}
	h.notifier.Notify(NoticeDeleted)
	if _, err := h.Refresh(ctx); err != nil {
		log.Println("Refreshing after delete:", err)
	}
	return nil
}

// Download fetches the asset of the item and hands it to the saver under a name derived
// from the item title.
func (h *History) Download(ctx context.Context, id modelqr.ItemID, format modelqr.Format) (string, error) {
	req := gateway.Get(gateway.DownloadEndpoint(string(id)), nil)
	req.Query = map[string]string{"format": string(format)}
	body, err := h.gw.Call(ctx, req)
	if err != nil {
		if !serviceErrors.IsUnauthorized(err) {
			log.Println("Downloading item:", err)
			h.notifier.Notify(NoticeDownloadFailed)
		}
		return "", err
	}
	it, _ := h.Item(id)
	path, err := h.saver.Save(modelqr.FileName(it.Title, format), body)
	if err != nil {
		log.Println("Saving download:", err)
		h.notifier.Notify(NoticeDownloadFailed)
		return "", err
	}
	return path, nil
}

// OnSessionChanged clears every view synchronously on logout and reloads in the background
// on login.
func (h *History) OnSessionChanged(ev events.SessionChanged) {
	if !ev.Authenticated {
		h.reset()
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if _, err := h.Refresh(h.ctx); err != nil {
			log.Println("Refreshing on login:", err)
		}
	}()
}

// Wait blocks until background refreshes and thumbnail loads have finished.
func (h *History) Wait() {
	h.wg.Wait()
}

// Close stops background work and waits for it.
func (h *History) Close() {
	h.cancel()
	h.wg.Wait()
}

// reset drops items and references and shows the logged-out placeholder everywhere.
func (h *History) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = make(map[modelqr.ItemID]modelqr.Item)
	h.invalidateLocked()
	for _, m := range h.views {
		m.view.ShowLoggedOut()
	}
}

// invalidateLocked starts a new generation, stops thumbnail loading for the previous one and
// releases every cached reference. Callers must hold h.mu.
func (h *History) invalidateLocked() uint64 {
	h.generation++
	if h.thumbCancel != nil {
		h.thumbCancel()
		h.thumbCancel = nil
	}
	if err := h.cache.InvalidateAll(); err != nil {
		log.Println("Invalidating thumbnails:", err)
	}
	return h.generation
}

func (h *History) project(kind history.ViewKind, items []modelqr.Item) []modelqr.Item {
	if kind == history.ViewCompact && len(items) > h.compactLimit {
		items = items[:h.compactLimit]
	}
	out := make([]modelqr.Item, len(items))
	copy(out, items)
	return out
}

// loadThumbnails resolves thumbnails in the background and delivers them while generation
// is still current. Callers must hold h.mu.
func (h *History) loadThumbnails(generation uint64, items []modelqr.Item) {
	ctx, cancel := context.WithCancel(h.ctx)
	h.thumbCancel = cancel
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer cancel()
		for i, it := range items {
			// the token is dropped before logout reaches reset
			if ctx.Err() != nil || !h.tokens.IsAuthed() {
				return
			}
			ref, err := h.cache.Resolve(ctx, it.ID, h.thumbFormat)
			if err != nil {
				if !errors.Is(err, assetcache.ErrInvalidated) && ctx.Err() == nil {
					log.Println("Loading thumbnail:", it.ID, err)
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if !h.deliver(generation, i, ref) {
				return
			}
		}
	}()
}

// deliver shows ref in every view whose projection contains position pos.
// It reports false once generation is stale.
func (h *History) deliver(generation uint64, pos int, ref modelqr.AssetRef) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if generation != h.generation {
		return false
	}
	for _, m := range h.views {
		if m.kind == history.ViewFull || pos < h.compactLimit {
			m.view.ShowThumbnail(ref.ItemID, ref)
		}
	}
	return true
}
