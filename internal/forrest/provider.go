package forrest

import (
	"net/http"
	"sync"

	"forrest/internal/auth"
	"forrest/internal/config"
	"forrest/internal/events"
	"forrest/internal/storage"
	"forrest/pkg/logging"
)

// Host carries the collaborators supplied by the hosting application.
type Host struct {
	HTTPClient *http.Client
	Sessions   storage.SessionSource
	Cache      storage.Cache
	Events     events.Emitter
	Input      auth.Input
	Redirect   auth.Redirector
}

// Provider builds the API client once and hands out that instance.
type Provider struct {
	cfg  *config.ForrestConfig
	host Host

	once    sync.Once
	client  auth.Client
	storage storage.Handle
	err     error
}

// NewProvider returns a provider for cfg. A nil cfg uses the defaults.
// Nothing is built until Client is first called.
func NewProvider(cfg *config.ForrestConfig, host Host) *Provider {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Provider{cfg: cfg, host: host}
}

// Client returns the API client, building it on first use. Every call
// returns the same instance (or the same error).
func (p *Provider) Client() (auth.Client, error) {
	p.once.Do(p.build)
	return p.client, p.err
}

// Storage returns the storage handle the client is built with, building
// the client first if needed. It is nil when a strict build failed.
func (p *Provider) Storage() storage.Handle {
	p.once.Do(p.build)
	return p.storage
}

// Settings returns the configuration the provider builds from.
func (p *Provider) Settings() *config.ForrestConfig {
	return p.cfg
}

func (p *Provider) build() {
	storageKind, err := ParseStorageKind(p.cfg.Storage.Type)
	if err != nil {
		if p.cfg.Strict {
			p.err = err
			return
		}
		logging.Warn("Forrest", "%v", err)
	}

	authKind, err := ParseAuthenticationKind(p.cfg.Authentication)
	if err != nil {
		if p.cfg.Strict {
			p.err = err
			return
		}
		logging.Warn("Forrest", "%v", err)
	}

	p.storage = SelectStorage(storageKind, StorageDeps{
		Path:    p.cfg.Storage.Path,
		Session: p.host.Sessions,
		Cache:   p.host.Cache,
		TTL:     p.cfg.Storage.TTL(),
	})

	p.client = SelectAuthentication(authKind, auth.Dependencies{
		HTTPClient: p.host.HTTPClient,
		Event:      p.host.Events,
		Input:      p.host.Input,
		Redirect:   p.host.Redirect,
		Storage:    p.storage,
		Settings:   p.cfg,
	})

	logging.Info("Bootstrap", "Built %s client with %s storage", authKind, storageKind)
}
