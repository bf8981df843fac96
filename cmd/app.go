package cmd

import (
	"fmt"

	"github.com/vedsharma/adminkit/internal/auth"
	"github.com/vedsharma/adminkit/internal/config"
	"github.com/vedsharma/adminkit/internal/entity"
	_ "github.com/vedsharma/adminkit/internal/entity/jsonapi"
	"github.com/vedsharma/adminkit/internal/format"
	httpclient "github.com/vedsharma/adminkit/internal/http"
	"github.com/vedsharma/adminkit/internal/i18n"
	"github.com/vedsharma/adminkit/internal/logging"
	"github.com/vedsharma/adminkit/internal/notification"
	"github.com/vedsharma/adminkit/internal/storage"
	"github.com/vedsharma/adminkit/internal/store"
)

// app wires the services shared by all commands.
type app struct {
	cfg      *config.Config
	client   *httpclient.Client
	storage  storage.Storage
	trans    *i18n.Translator
	notes    *notification.Manager
	session  *auth.Session
	entities *entity.Manager
	adapters store.AdapterResolver
}

func newApp(cfg *config.Config) (*app, error) {
	opts := []httpclient.Option{
		httpclient.WithBaseURL(cfg.API.BaseURL),
		httpclient.WithTimeout(cfg.API.Timeout),
	}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, httpclient.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst))
	}
	if cfg.API.CircuitBreaker {
		opts = append(opts, httpclient.WithCircuitBreaker("adminkit-api"))
	}
	client := httpclient.NewClient(opts...)

	kv, err := storage.Open(storage.Options{
		Driver:    cfg.Storage.Driver,
		Dir:       cfg.Storage.Dir,
		KeyPrefix: cfg.Storage.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	trans := i18n.New(cfg.I18n.Lang)
	if cfg.I18n.FallbackLang != "" {
		trans.SetFallbackLang(cfg.I18n.FallbackLang)
	}

	notes := notification.NewManager(cfg.Notification.Timeout)
	notes.Subscribe(format.PrintNotification)

	entities, err := cfg.EntityManager()
	if err != nil {
		kv.Close()
		return nil, err
	}

	session := auth.NewSession(newProvider(cfg, client), trans, kv)
	if err := session.LoadFromStorage(); err != nil {
		logging.Warn().Err(err).Msg("Failed to restore session")
	}

	return &app{
		cfg:      cfg,
		client:   client,
		storage:  kv,
		trans:    trans,
		notes:    notes,
		session:  session,
		entities: entities,
		adapters: store.RegisteredAdapters(client),
	}, nil
}

func newProvider(cfg *config.Config, client *httpclient.Client) auth.Provider {
	if cfg.Auth.Provider == config.ProviderPublic {
		return auth.PublicProvider{}
	}
	return auth.NewHTTPTokenProvider(client,
		auth.WithEndpoints(cfg.Auth.Endpoints),
		auth.WithBodyKeys(cfg.Auth.BodyKeys),
	)
}

func (a *app) Close() error {
	return a.storage.Close()
}

func (a *app) notify(kind, title, body string) {
	a.notes.Push(notification.Notification{Type: kind, Title: title, Body: body})
}
