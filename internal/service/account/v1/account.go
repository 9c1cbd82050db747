// Package account implements signup, login, logout and the profile actions.
package account

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/events"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/account"
	serviceErrors "github.com/danilovkiri/dk_go_qr_forge/internal/service/errors"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/gateway"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/session"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// ExportFileName is the name the CSV export is saved under.
const ExportFileName = "qr_items.csv"

// Notices shown by the controller.
const (
	NoticeSignedUp           = "Account created. Please log in."
	NoticeLoggedIn           = "Logged in."
	NoticeInvalidCredentials = "Invalid email or password."
	NoticeLoggedOut          = "You have been logged out."
	NoticeAccountDeleted     = "Your account has been deleted."
	NoticeExported           = "Export saved."
	NoticeRequestFailed      = "Request failed."
)

// Check interface implementation explicitly
var (
	_ account.Controller = (*Account)(nil)
)

// Account defines object structure and its attributes.
type Account struct {
	gw        gateway.Gateway
	tokens    session.TokenStore
	notifier  ui.Notifier
	confirmer ui.Confirmer
	saver     ui.Saver

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	view ui.ProfileView
	// loads counts profile loads so that a logout wins over a load still in flight
	loads uint64
}

// InitAccount initializes an Account controller.
func InitAccount(gw gateway.Gateway, tokens session.TokenStore, notifier ui.Notifier, confirmer ui.Confirmer,
	saver ui.Saver) (*Account, error) {
	if gw == nil || tokens == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil gateway or token store was passed to account initializer"}
	}
	if notifier == nil || confirmer == nil || saver == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil ui collaborator was passed to account initializer"}
	}
	a := &Account{
		gw:        gw,
		tokens:    tokens,
		notifier:  notifier,
		confirmer: confirmer,
		saver:     saver,
		view:      nopView{},
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	return a, nil
}

// Attach sets the view receiving the profile.
func (a *Account) Attach(view ui.ProfileView) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if view == nil {
		view = nopView{}
	}
	a.view = view
}

// Signup validates the form locally and registers the account. It does not log in.
func (a *Account) Signup(ctx context.Context, fullName, email, password string) (modeldto.Profile, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return modeldto.Profile{}, &serviceErrors.ValidationError{Field: "email", Msg: "must be a valid email address"}
	}
	if len(password) < MinPasswordLength {
		return modeldto.Profile{}, &serviceErrors.ValidationError{Field: "password", Msg: "must be at least 8 characters long"}
	}
	var profile modeldto.Profile
	req := gateway.Post(gateway.EndpointSignup, modeldto.SignupRequest{
		FullName: strings.TrimSpace(fullName),
		Email:    email,
		Password: password,
	}, &profile)
	if _, err := a.gw.CallPublic(ctx, req); err != nil {
		log.Println("Signing up:", err)
		a.notifier.Notify(failureNotice(err))
		return modeldto.Profile{}, err
	}
	a.notifier.Notify(NoticeSignedUp)
	return profile, nil
}

// Login exchanges the credentials for a token and stores it. Invalid credentials are reported
// as a RequestError and never touch the current session.
func (a *Account) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return &serviceErrors.ValidationError{Msg: "email and password are required"}
	}
	var token modeldto.TokenResponse
	req := gateway.Post(gateway.EndpointLogin, modeldto.LoginRequest{Email: email, Password: password}, &token)
	if _, err := a.gw.CallPublic(ctx, req); err != nil {
		if serviceErrors.StatusCode(err) == http.StatusUnauthorized {
			a.notifier.Notify(NoticeInvalidCredentials)
		} else {
			log.Println("Logging in:", err)
			a.notifier.Notify(failureNotice(err))
		}
		return err
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return &serviceErrors.DecodeError{Endpoint: gateway.EndpointLogin, Err: errors.New("access_token is missing")}
	}
	if err := a.tokens.Set(ctx, token.AccessToken); err != nil {
		log.Println("Storing token:", err)
		return err
	}
	a.notifier.Notify(NoticeLoggedIn)
	return nil
}

// Logout tells the backend when the credential is still usable, then clears the session
// whatever the backend answered.
func (a *Account) Logout(ctx context.Context) error {
	if token, ok := a.tokens.Token(); ok && !a.tokens.Expired() {
		req := gateway.Post(gateway.EndpointLogout, nil, nil)
		req.Bearer = token
		if _, err := a.gw.CallPublic(ctx, req); err != nil {
			log.Println("Logging out:", err)
		}
	}
	err := a.tokens.Clear(ctx)
	if err != nil {
		log.Println("Clearing session:", err)
	}
	a.notifier.Notify(NoticeLoggedOut)
	return err
}

// Profile loads the profile of the session and renders it.
func (a *Account) Profile(ctx context.Context) (modeldto.Profile, error) {
	a.mu.Lock()
	load := a.loads
	a.mu.Unlock()

	var profile modeldto.Profile
	if _, err := a.gw.Call(ctx, gateway.Get(gateway.EndpointMe, &profile)); err != nil {
		if !serviceErrors.IsUnauthorized(err) {
			log.Println("Loading profile:", err)
		}
		return modeldto.Profile{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if load == a.loads {
		a.view.ShowProfile(profile)
	}
	return profile, nil
}

// DeleteAccount asks for confirmation, deletes the account with every saved item and ends
// the session.
func (a *Account) DeleteAccount(ctx context.Context) error {
	if !a.confirmer.Confirm("Delete your account and every saved QR code?") {
		return &serviceErrors.ConfirmationDeclinedError{Action: "delete account"}
	}
	if _, err := a.gw.Call(ctx, gateway.Delete(gateway.EndpointMe)); err != nil {
		if !serviceErrors.IsUnauthorized(err) {
			log.Println("Deleting account:", err)
			a.notifier.Notify(failureNotice(err))
		}
		return err
	}
	if err := a.tokens.Clear(ctx); err != nil {
		log.Println("Clearing session:", err)
	}
	a.notifier.Notify(NoticeAccountDeleted)
	return nil
}

// ExportCSV downloads every saved item as CSV and hands it to the saver.
func (a *Account) ExportCSV(ctx context.Context) (string, error) {
	body, err := a.gw.Call(ctx, gateway.Get(gateway.EndpointExport, nil))
	if err != nil {
		if !serviceErrors.IsUnauthorized(err) {
			log.Println("Exporting:", err)
			a.notifier.Notify(failureNotice(err))
		}
		return "", err
	}
	path, err := a.saver.Save(ExportFileName, body)
	if err != nil {
		log.Println("Saving export:", err)
		a.notifier.Notify(NoticeRequestFailed)
		return "", err
	}
	a.notifier.Notify(NoticeExported)
	return path, nil
}

// OnSessionChanged shows the logged-out profile synchronously on logout and loads the profile
// in the background on login.
func (a *Account) OnSessionChanged(ev events.SessionChanged) {
	if !ev.Authenticated {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.loads++
		a.view.ShowLoggedOut()
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if _, err := a.Profile(a.ctx); err != nil {
			log.Println("Loading profile on login:", err)
		}
	}()
}

// Wait blocks until background profile loads have finished.
func (a *Account) Wait() {
	a.wg.Wait()
}

// Close stops background work and waits for it.
func (a *Account) Close() {
	a.cancel()
	a.wg.Wait()
}

// failureNotice prefers the backend's own explanation.
func failureNotice(err error) string {
	var reqErr *serviceErrors.RequestError
	if errors.As(err, &reqErr) && reqErr.Detail != "" {
		return reqErr.Detail
	}
	return NoticeRequestFailed
}

type nopView struct{}

func (nopView) ShowLoggedOut()                {}
func (nopView) ShowProfile(modeldto.Profile) {}
