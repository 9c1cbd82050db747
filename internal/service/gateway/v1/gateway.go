// Package gateway implements backend calls over resty with centralized session-expiry handling.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/config"
	"github.com/danilovkiri/dk_go_qr_forge/internal/scheduler"
	serviceErrors "github.com/danilovkiri/dk_go_qr_forge/internal/service/errors"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/gateway"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/session"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui"
)

// Notices shown by the gateway.
const (
	SessionExpiredNotice = "Your session has expired. Please log in again."
	LoginRequiredNotice  = "Please log in to continue."
)

// Check interface implementation explicitly
var (
	_ gateway.Gateway = (*Gateway)(nil)
)

// Gateway defines object structure and its attributes.
type Gateway struct {
	client        *resty.Client
	tokens        session.TokenStore
	notifier      ui.Notifier
	nav           ui.Navigator
	sched         scheduler.Scheduler
	noticeWindow  time.Duration
	redirectDelay time.Duration

	mu         sync.Mutex
	lastNotice time.Time
	noticed    bool
}

// InitGateway initializes a Gateway object and sets its attributes.
func InitGateway(cfg *config.Config, tokens session.TokenStore, notifier ui.Notifier, nav ui.Navigator, sched scheduler.Scheduler) (*Gateway, error) {
	if cfg == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil config was passed to gateway initializer"}
	}
	if tokens == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil token store was passed to gateway initializer"}
	}
	if notifier == nil || nav == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil notifier or navigator was passed to gateway initializer"}
	}
	if sched == nil {
		sched = scheduler.Real{}
	}
	client := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json")
	return &Gateway{
		client:        client,
		tokens:        tokens,
		notifier:      notifier,
		nav:           nav,
		sched:         sched,
		noticeWindow:  cfg.NoticeWindow,
		redirectDelay: cfg.LoginRedirectDelay,
	}, nil
}

// Call performs an authorized request. Without a usable credential it fails with
// UnauthorizedError before touching the network. Missing, expired and rejected credentials
// share one notice window, so a burst of failing calls yields a single notice and redirect.
func (g *Gateway) Call(ctx context.Context, r gateway.Request) ([]byte, error) {
	token, ok := g.tokens.Token()
	if !ok {
		g.notifyOnce(LoginRequiredNotice)
		return nil, &serviceErrors.UnauthorizedError{Reason: "no session"}
	}
	if g.tokens.Expired() {
		return nil, g.sessionRejected(ctx, token, "session expired")
	}
	resp, err := g.execute(ctx, r, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, g.sessionRejected(ctx, token, "rejected by server")
	}
	return g.handleResponse(r, resp)
}

// CallPublic performs a request outside of the session: only the explicit r.Bearer is sent
// and a 401 is an ordinary RequestError.
func (g *Gateway) CallPublic(ctx context.Context, r gateway.Request) ([]byte, error) {
	resp, err := g.execute(ctx, r, r.Bearer)
	if err != nil {
		return nil, err
	}
	return g.handleResponse(r, resp)
}

func (g *Gateway) execute(ctx context.Context, r gateway.Request, token string) (*resty.Response, error) {
	req := g.client.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if len(r.Query) > 0 {
		req.SetQueryParams(r.Query)
	}
	if r.Body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(r.Body)
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	resp, err := req.Execute(method, r.Endpoint)
	if err != nil {
		log.Println("Calling backend:", method, r.Endpoint, err)
		return nil, &serviceErrors.TransportError{Method: method, Endpoint: r.Endpoint, Err: err}
	}
	return resp, nil
}

func (g *Gateway) handleResponse(r gateway.Request, resp *resty.Response) ([]byte, error) {
	body := resp.Body()
	if !resp.IsSuccess() {
		var detail modeldto.ErrorResponse
		_ = json.Unmarshal(body, &detail)
		return nil, &serviceErrors.RequestError{
			Method:     resp.Request.Method,
			Endpoint:   r.Endpoint,
			StatusCode: resp.StatusCode(),
			Detail:     detail.Message(),
		}
	}
	if r.Result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, r.Result); err != nil {
			return nil, &serviceErrors.DecodeError{Endpoint: r.Endpoint, Err: err}
		}
	}
	return body, nil
}

// sessionRejected clears the session if token is still current and runs the one-shot
// notice and redirect cycle. A rejection of a credential that has already been replaced
// is reported to the caller only.
func (g *Gateway) sessionRejected(ctx context.Context, token, reason string) error {
	cleared, err := g.tokens.ClearIfCurrent(ctx, token)
	if err != nil {
		log.Println("Clearing session:", err)
	}
	if cleared {
		g.notifyOnce(SessionExpiredNotice)
	}
	return &serviceErrors.UnauthorizedError{Reason: reason}
}

// notifyOnce shows msg and schedules the redirect to login unless another notice was shown
// within the notice window.
func (g *Gateway) notifyOnce(msg string) {
	g.mu.Lock()
	now := g.sched.Now()
	if g.noticed && now.Sub(g.lastNotice) < g.noticeWindow {
		g.mu.Unlock()
		return
	}
	g.noticed = true
	g.lastNotice = now
	g.mu.Unlock()

	g.notifier.Notify(msg)
	g.sched.AfterFunc(g.redirectDelay, g.nav.ToLogin)
}
