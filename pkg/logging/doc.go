// Package logging provides the structured logging facade used across forrest.
//
// It is a thin layer over log/slog that tags every entry with a subsystem
// and an optional error:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Bootstrap", "Loaded configuration from %s", path)
//	logging.Debug("OAuth", "Refreshing token for flow=%s", flow)
//	logging.Error("Storage", err, "Failed to persist token")
//
// Subsystems in use: Bootstrap, Config, Forrest, Storage, OAuth, HTTP,
// Events, Server, Audit.
//
// Access tokens, refresh tokens and client secrets must never be passed
// to these functions. Session identifiers go through TruncateSessionID.
//
// Security-relevant operations (code exchange, refresh, revoke) are
// recorded with Audit, which logs at INFO with an [AUDIT] prefix for easy
// filtering by log aggregation systems.
package logging
