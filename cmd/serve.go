package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"forrest/internal/app"
)

// serveDebug forces debug logging regardless of the configured logLevel.
var serveDebug bool

// serveConfigPath is the directory holding config.yaml and an optional .env file.
var serveConfigPath string

// serveCmd starts the HTTP server that drives authentication and proxies API requests.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the forrest server",
	Long: `Starts the HTTP server that drives the OAuth flow and forwards API requests.

Endpoints (paths are configurable under server:):
  GET  /authenticate   start authentication (redirects to the login server
                       for the WebServer flow)
  GET  /callback       complete the WebServer flow
  POST /revoke         revoke and forget the stored token
  *    /api/...        authenticated API requests, relative to the configured
                       API version
  GET  /health         liveness
  GET  /metrics        Prometheus metrics
  GET  /events         recently fired events

Configuration:
  forrest loads config.yaml and .env from ~/.config/forrest, or from the
  directory given with --config-path. Run 'forrest config publish' to start
  from the packaged template.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveConfigPath)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Configuration directory (default ~/.config/forrest)")
}
