package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"forrest/internal/config"
	"forrest/internal/events"
	"forrest/internal/forrest"
	"forrest/internal/httpclient"
	"forrest/internal/metrics"
	"forrest/internal/server"
	"forrest/internal/storage"
	"forrest/internal/storage/memorycache"
	"forrest/internal/storage/rediscache"
	"forrest/internal/web"
	"forrest/pkg/logging"
)

// Services holds everything the server is built from.
type Services struct {
	// Provider hands out the single API client.
	Provider *forrest.Provider

	// Dispatcher receives every event the client fires.
	Dispatcher *events.Dispatcher

	// Recorder keeps recent events for the /events endpoint.
	Recorder *events.Recorder

	Metrics *metrics.Metrics
	Server  *server.Server

	closers []io.Closer
}

// InitializeServices wires the client provider and the server from cfg.
// The client is built immediately so that an unusable configuration fails
// here rather than on the first request.
func InitializeServices(cfg *Config) (*Services, error) {
	fc := cfg.ForrestConfig
	s := &Services{
		Dispatcher: events.NewDispatcher(),
		Recorder:   events.NewRecorder(0),
		Metrics:    metrics.New(),
	}
	s.Dispatcher.ListenAll(s.Recorder.Record)
	s.Metrics.Register(s.Dispatcher)

	host := forrest.Host{
		HTTPClient: httpclient.New(fc.Client),
		Sessions:   web.NewCookieSessions(fc.Storage.Session).Source(),
		Events:     s.Dispatcher,
		Input:      web.RequestInput{},
		Redirect:   web.ResponseRedirector{},
	}

	if fc.Storage.Type == config.StorageTypeCache {
		cache, closer, err := newCache(context.Background(), fc.Storage.Cache)
		if err != nil {
			return nil, err
		}
		host.Cache = cache
		s.closers = append(s.closers, closer)
	}

	s.Provider = forrest.NewProvider(fc, host)
	if _, err := s.Provider.Client(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to build API client: %w", err)
	}

	s.Server = server.New(fc, s.Provider, server.Options{
		Metrics:  s.Metrics.Handler(),
		Recorder: s.Recorder,
	})

	return s, nil
}

// Close releases the cache backends.
func (s *Services) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

type cacheBackend interface {
	storage.Cache
	io.Closer
}

func newCache(ctx context.Context, cfg config.CacheConfig) (storage.Cache, io.Closer, error) {
	var (
		backend cacheBackend
		err     error
	)

	switch cfg.Driver {
	case config.CacheDriverRedis:
		backend, err = rediscache.New(ctx, cfg.RedisURL, cfg.LocalSize)
	case config.CacheDriverMemory, "":
		backend, err = memorycache.New(cfg.Size)
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s cache: %w", cfg.Driver, err)
	}

	logging.Info("Bootstrap", "Using %s cache backend", driverName(cfg.Driver))
	return backend, backend, nil
}

func driverName(driver string) string {
	if driver == "" {
		return config.CacheDriverMemory
	}
	return driver
}
