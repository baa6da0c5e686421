package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"forrest/pkg/logging"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 10 * time.Second

// sdNotify is swapped out in tests.
var sdNotify = daemon.SdNotify

// runServer serves until ctx is done, SIGINT/SIGTERM arrives or the listener
// fails, then shuts the server down gracefully.
func runServer(ctx context.Context, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh, err := services.Server.Start()
	if err != nil {
		logging.Error("Server", err, "Failed to start server")
		return err
	}

	if sent, err := sdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("Server", "Failed to notify systemd: %v", err)
	} else if sent {
		logging.Debug("Server", "Notified systemd of readiness")
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info("Server", "Shutting down")
	case serveErr = <-errCh:
		if serveErr != nil {
			logging.Error("Server", serveErr, "Server stopped unexpectedly")
		}
	}

	_, _ = sdNotify(false, daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := services.Server.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server", "Graceful shutdown failed: %v", err)
		if serveErr == nil {
			serveErr = err
		}
	}

	return serveErr
}
