// Package app builds the client object graph and ties the controllers to the session events.
package app

import (
	"context"
	"errors"
	"log"

	"github.com/danilovkiri/dk_go_qr_forge/internal/config"
	"github.com/danilovkiri/dk_go_qr_forge/internal/events"
	"github.com/danilovkiri/dk_go_qr_forge/internal/scheduler"
	account "github.com/danilovkiri/dk_go_qr_forge/internal/service/account/v1"
	assetcache "github.com/danilovkiri/dk_go_qr_forge/internal/service/assetcache/v1"
	serviceErrors "github.com/danilovkiri/dk_go_qr_forge/internal/service/errors"
	gateway "github.com/danilovkiri/dk_go_qr_forge/internal/service/gateway/v1"
	history "github.com/danilovkiri/dk_go_qr_forge/internal/service/history/v1"
	preview "github.com/danilovkiri/dk_go_qr_forge/internal/service/preview/v1"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/secretary"
	secretaryV1 "github.com/danilovkiri/dk_go_qr_forge/internal/service/secretary/v1"
	session "github.com/danilovkiri/dk_go_qr_forge/internal/service/session/v1"
	"github.com/danilovkiri/dk_go_qr_forge/internal/storage"
	"github.com/danilovkiri/dk_go_qr_forge/internal/storage/infile"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui"
)

// Options carries the user-facing collaborators and optional overrides.
type Options struct {
	Notifier  ui.Notifier
	Navigator ui.Navigator
	Confirmer ui.Confirmer
	Saver     ui.Saver
	// Storage replaces the file-backed token storage when set.
	Storage storage.KeyValue
	// Scheduler replaces the wall clock when set.
	Scheduler scheduler.Scheduler
}

// App defines object structure and its attributes.
type App struct {
	Config  *config.Config
	Bus     *events.Bus
	Storage storage.KeyValue
	Session *session.Session
	Gateway *gateway.Gateway
	Cache   *assetcache.Cache
	History *history.History
	Preview *preview.Preview
	Account *account.Account

	unsubscribe []func()
}

// InitApp builds every component from cfg and subscribes the controllers to session changes.
// Logout reaches history, preview and account synchronously, in that order.
func InitApp(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil config was passed to app initializer"}
	}
	if opts.Notifier == nil || opts.Navigator == nil || opts.Confirmer == nil || opts.Saver == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil ui collaborator was passed to app initializer"}
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.Real{}
	}

	st := opts.Storage
	if st == nil {
		var sec secretary.Secretary
		if cfg.StorageKey != "" {
			s, err := secretaryV1.NewSecretaryService(cfg.StorageKey)
			if err != nil {
				return nil, err
			}
			sec = s
		}
		fileStorage, err := infile.InitStorage(cfg.TokenStoragePath, sec)
		if err != nil {
			return nil, err
		}
		st = fileStorage
	}

	a := &App{Config: cfg, Bus: events.NewBus(), Storage: st}
	var err error
	if a.Session, err = session.NewSession(ctx, st, a.Bus, sched); err != nil {
		return nil, a.abort(err)
	}
	if a.Gateway, err = gateway.InitGateway(cfg, a.Session, opts.Notifier, opts.Navigator, sched); err != nil {
		return nil, a.abort(err)
	}
	if a.Cache, err = assetcache.InitCache(a.Gateway, cfg.AssetCacheDir); err != nil {
		return nil, a.abort(err)
	}
	if a.History, err = history.InitHistory(cfg, a.Gateway, a.Session, a.Cache, opts.Notifier, opts.Confirmer, opts.Saver); err != nil {
		return nil, a.abort(err)
	}
	if a.Preview, err = preview.InitPreview(cfg, a.Gateway, a.Session, opts.Notifier, opts.Saver, a.History, sched); err != nil {
		return nil, a.abort(err)
	}
	if a.Account, err = account.InitAccount(a.Gateway, a.Session, opts.Notifier, opts.Confirmer, opts.Saver); err != nil {
		return nil, a.abort(err)
	}

	a.unsubscribe = append(a.unsubscribe,
		a.Bus.Subscribe(a.History.OnSessionChanged),
		a.Bus.Subscribe(a.Preview.OnSessionChanged),
		a.Bus.Subscribe(a.Account.OnSessionChanged),
	)
	return a, nil
}

// Close stops background work, releases cached assets and closes the storage.
func (a *App) Close() error {
	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	a.unsubscribe = nil
	if a.Preview != nil {
		a.Preview.Close()
	}
	if a.History != nil {
		a.History.Close()
	}
	if a.Account != nil {
		a.Account.Close()
	}
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.InvalidateAll())
	}
	if a.Storage != nil {
		errs = append(errs, a.Storage.Close())
	}
	if err := errors.Join(errs...); err != nil {
		log.Println("Closing app:", err)
		return err
	}
	return nil
}

func (a *App) abort(err error) error {
	if closeErr := a.Storage.Close(); closeErr != nil {
		log.Println("Closing storage:", closeErr)
	}
	return err
}
