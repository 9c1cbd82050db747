// Package preview turns generator form edits into debounced preview calls and saved items.
package preview

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/config"
	"github.com/danilovkiri/dk_go_qr_forge/internal/events"
	"github.com/danilovkiri/dk_go_qr_forge/internal/scheduler"
	serviceErrors "github.com/danilovkiri/dk_go_qr_forge/internal/service/errors"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/gateway"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/history"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/preview"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/session"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 350 * time.Millisecond

// Notices shown by the controller.
const (
	NoticePreviewFailed  = "Could not render the preview."
	NoticeSaved          = "QR code saved."
	NoticeSaveFailed     = "Could not save the QR code."
	NoticeDownloadFailed = "Download failed."
)

// Check interface implementation explicitly
var (
	_ preview.Controller = (*Preview)(nil)
)

type savedPair struct {
	payload modelqr.PreviewPayload
	item    modelqr.Item
}

// Preview defines object structure and its attributes.
// The view is called with the controller lock held and must not call back into it.
type Preview struct {
	gw        gateway.Gateway
	tokens    session.TokenStore
	notifier  ui.Notifier
	saver     ui.Saver
	refresher history.Refresher
	debouncer *scheduler.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	view      ui.PreviewView
	form      modelqr.FormState
	state     preview.State
	seq       uint64
	epoch     uint64
	scheduled bool
	pending   *modelqr.PreviewPayload
	render    *modelqr.Render
	saved     *savedPair
}

// InitPreview initializes a Preview controller. refresher may be nil when no history is shown.
func InitPreview(cfg *config.Config, gw gateway.Gateway, tokens session.TokenStore, notifier ui.Notifier,
	saver ui.Saver, refresher history.Refresher, sched scheduler.Scheduler) (*Preview, error) {
	if gw == nil || tokens == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil gateway or token store was passed to preview initializer"}
	}
	if notifier == nil || saver == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil ui collaborator was passed to preview initializer"}
	}
	if sched == nil {
		sched = scheduler.Real{}
	}
	window := DefaultDebounce
	if cfg != nil && cfg.PreviewDebounce > 0 {
		window = cfg.PreviewDebounce
	}
	p := &Preview{
		gw:        gw,
		tokens:    tokens,
		notifier:  notifier,
		saver:     saver,
		refresher: refresher,
		debouncer: scheduler.NewDebouncer(sched, window),
		view:      nopView{},
		form:      modelqr.DefaultForm(),
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p, nil
}

// Attach sets the view receiving renders.
func (p *Preview) Attach(view ui.PreviewView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if view == nil {
		view = nopView{}
	}
	p.view = view
}

// Edit applies fn to the form and schedules a preview after the quiet period, replacing any
// preview scheduled earlier.
func (p *Preview) Edit(fn func(f *modelqr.FormState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.form)
	p.scheduleLocked()
}

// SetField sets one form control by name and schedules a preview.
func (p *Preview) SetField(name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.form.SetField(name, value); err != nil {
		return err
	}
	p.scheduleLocked()
	return nil
}

// Flush issues the scheduled preview, if any, without waiting for the quiet period.
func (p *Preview) Flush() {
	p.mu.Lock()
	p.debouncer.Cancel()
	owned := p.unscheduleLocked()
	p.mu.Unlock()
	if owned {
		defer p.wg.Done()
		p.issue()
	}
}

// State returns the current lifecycle state.
func (p *Preview) State() preview.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Form returns a copy of the form controls.
func (p *Preview) Form() modelqr.FormState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// Payload returns the payload built from the current form controls.
func (p *Preview) Payload() modelqr.PreviewPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form.Payload()
}

// Render returns the retained preview, if any.
func (p *Preview) Render() (modelqr.Render, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.render == nil {
		return modelqr.Render{}, false
	}
	return *p.render, true
}

// Save persists the displayed preview. It is only allowed in the Previewed state.
func (p *Preview) Save(ctx context.Context) (modelqr.Item, error) {
	p.mu.Lock()
	if p.state != preview.StatePreviewed || p.render == nil {
		state := p.state
		p.mu.Unlock()
		return modelqr.Item{}, &serviceErrors.InvalidStateError{Op: "save", State: state.String()}
	}
	payload := p.render.Payload
	epoch := p.epoch
	p.mu.Unlock()

	var item modelqr.Item
	if _, err := p.gw.Call(ctx, gateway.Post(gateway.EndpointCreate, modeldto.NewQRRequest(payload), &item)); err != nil {
		if !serviceErrors.IsUnauthorized(err) {
			log.Println("Saving preview:", err)
			p.notifier.Notify(NoticeSaveFailed)
		}
		return modelqr.Item{}, err
	}

	p.mu.Lock()
	if epoch == p.epoch {
		p.saved = &savedPair{payload: payload, item: item}
		// a newer preview in flight settles the state when it lands
		if p.pending == nil {
			p.state = p.settledState()
			p.view.SetSaveEnabled(p.state == preview.StatePreviewed)
		}
	}
	p.mu.Unlock()

	p.notifier.Notify(NoticeSaved)
	if p.refresher != nil {
		if _, err := p.refresher.Refresh(ctx); err != nil {
			log.Println("Refreshing after save:", err)
		}
	}
	return item, nil
}

// Download hands the design to the saver. The saved item's asset is fetched while the controls
// still match it; otherwise the retained preview bytes are used without a network call.
func (p *Preview) Download(ctx context.Context, format modelqr.Format) (string, error) {
	p.mu.Lock()
	state := p.state
	current := p.form.Payload()
	saved := p.saved
	var render *modelqr.Render
	if p.render != nil {
		r := *p.render
		render = &r
	}
	p.mu.Unlock()

	var (
		title string
		body  []byte
	)
	switch {
	case state == preview.StateSaved && saved != nil && modelqr.PayloadsMatch(current, saved.payload):
		req := gateway.Get(gateway.DownloadEndpoint(string(saved.item.ID)), nil)
		req.Query = map[string]string{"format": string(format)}
		b, err := p.gw.Call(ctx, req)
		if err != nil {
			if !serviceErrors.IsUnauthorized(err) {
				log.Println("Downloading saved item:", err)
				p.notifier.Notify(NoticeDownloadFailed)
			}
			return "", err
		}
		title, body = saved.item.Title, b
	case render != nil:
		title, body = render.Payload.Title, render.Bytes(format)
	default:
		return "", &serviceErrors.InvalidStateError{Op: "download", State: state.String()}
	}

	path, err := p.saver.Save(modelqr.FileName(title, format), body)
	if err != nil {
		log.Println("Saving download:", err)
		p.notifier.Notify(NoticeDownloadFailed)
		return "", err
	}
	return path, nil
}

// OnSessionChanged drops every retained preview synchronously on logout and previews the
// current controls again on login.
func (p *Preview) OnSessionChanged(ev events.SessionChanged) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev.Authenticated {
		p.scheduleLocked()
		return
	}
	p.cancelScheduledLocked()
	p.seq++
	p.epoch++
	p.pending = nil
	p.render = nil
	p.saved = nil
	p.state = preview.StateIdle
	p.view.ClearPreview()
	p.view.SetSaveEnabled(false)
}

// Wait blocks until scheduled and issued previews have completed. A scheduled preview only
// completes once its quiet period elapses, or on Flush or Close.
func (p *Preview) Wait() {
	p.wg.Wait()
}

// Close cancels the scheduled preview and waits for the ones in flight.
func (p *Preview) Close() {
	p.mu.Lock()
	p.cancelScheduledLocked()
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}

// scheduleLocked (re)starts the quiet period. A scheduled preview counts as work for Wait
// from the moment it is scheduled. Callers must hold p.mu.
func (p *Preview) scheduleLocked() {
	if !p.scheduled {
		p.scheduled = true
		p.wg.Add(1)
	}
	p.debouncer.Trigger(p.fire)
}

// unscheduleLocked takes over the scheduled preview, reporting whether there was one.
// The caller owes a wg.Done when it returns true. Callers must hold p.mu.
func (p *Preview) unscheduleLocked() bool {
	if !p.scheduled {
		return false
	}
	p.scheduled = false
	return true
}

// cancelScheduledLocked drops the scheduled preview. Callers must hold p.mu.
func (p *Preview) cancelScheduledLocked() {
	p.debouncer.Cancel()
	if p.unscheduleLocked() {
		p.wg.Done()
	}
}

func (p *Preview) fire() {
	p.mu.Lock()
	owned := p.unscheduleLocked()
	p.mu.Unlock()
	if !owned {
		// superseded timer whose preview was already taken over
		return
	}
	defer p.wg.Done()
	p.issue()
}

// issue sends the current payload unless it is invalid, already in flight or already rendered.
// The response is applied only while its sequence number is still the latest.
func (p *Preview) issue() {
	if !p.tokens.IsAuthed() {
		return
	}
	p.mu.Lock()
	payload := p.form.Payload()
	if !payload.HasValidURL() {
		p.mu.Unlock()
		return
	}
	if p.pending != nil && p.pending.Equal(payload) {
		p.mu.Unlock()
		return
	}
	if p.pending == nil && p.render != nil && p.render.Payload.Equal(payload) {
		p.mu.Unlock()
		return
	}
	p.seq++
	seq := p.seq
	p.pending = &payload
	p.state = preview.StatePreviewing
	p.view.SetSaveEnabled(false)
	p.mu.Unlock()

	var resp modeldto.PreviewResponse
	_, err := p.gw.Call(p.ctx, gateway.Post(gateway.EndpointPreview, modeldto.NewQRRequest(payload), &resp))
	var render modelqr.Render
	if err == nil {
		render, err = resp.Decode(payload)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		return
	}
	p.pending = nil
	if err != nil {
		p.state = p.settledState()
		p.view.SetSaveEnabled(p.state == preview.StatePreviewed)
		if !serviceErrors.IsUnauthorized(err) {
			log.Println("Previewing:", err)
			p.notifier.Notify(NoticePreviewFailed)
		}
		return
	}
	p.render = &render
	p.state = p.settledState()
	p.view.ShowPreview(render)
	p.view.SetSaveEnabled(p.state == preview.StatePreviewed)
}

// settledState derives the state from the retained render. Callers must hold p.mu.
func (p *Preview) settledState() preview.State {
	switch {
	case p.render == nil:
		return preview.StateIdle
	case p.saved != nil && p.saved.payload.Equal(p.render.Payload):
		return preview.StateSaved
	default:
		return preview.StatePreviewed
	}
}

type nopView struct{}

func (nopView) ShowPreview(modelqr.Render) {}
func (nopView) ClearPreview()              {}
func (nopView) SetSaveEnabled(bool)        {}
