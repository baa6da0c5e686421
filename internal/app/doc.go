// Package app bootstraps and runs the forrest server.
//
// Startup happens in two phases. NewApplication loads and validates the
// configuration, initializes logging and builds the services:
//
//   - the outbound HTTP client (retrying, see internal/httpclient)
//   - the cookie session store and, for cache storage, the cache backend
//     (in-memory LRU or Redis)
//   - the event dispatcher with its recorder and Prometheus metrics
//   - the client provider, whose client is built once up front so that
//     configuration problems surface before the listener opens
//   - the HTTP server
//
// Run then serves until the context is cancelled or SIGINT/SIGTERM arrives,
// notifying systemd when ready, and shuts the server down gracefully.
//
// Configuration is read from a single directory, either the one passed on
// the command line or ~/.config/forrest:
//
//	cfg := app.NewConfig(false, "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
package app
