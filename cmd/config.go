package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"forrest/internal/config"
	"forrest/internal/forrest"
	pkgstrings "forrest/pkg/strings"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the forrest configuration",
	}
	configCmd.AddCommand(newConfigPublishCmd(), newConfigShowCmd())
	return configCmd
}

func newConfigPublishCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write the packaged configuration template",
		Long: `Writes the packaged config.yaml template into the configuration directory
(default ~/.config/forrest). An existing file is left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveConfigPath(path)
			if err != nil {
				return err
			}

			target, err := config.Publish(dir, force)
			if errors.Is(err, config.ErrAlreadyPublished) {
				return fmt.Errorf("%s already exists, use --force to overwrite", target)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Published %s\n", text.FgGreen.Sprint("✓"), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Destination directory (default ~/.config/forrest)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.yaml")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveConfigPath(path)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig(dir)
			if err != nil {
				return err
			}

			renderConfig(cmd.OutOrStdout(), cfg)

			if err := config.Validate(cfg); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", text.FgYellow.Sprint(err.Error()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "config-path", "", "Configuration directory (default ~/.config/forrest)")
	return cmd
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return config.GetDefaultConfigPath()
}

// renderConfig prints the settings that decide how the client is built.
func renderConfig(out io.Writer, cfg config.ForrestConfig) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{text.Bold.Sprint("SETTING"), text.Bold.Sprint("VALUE")})

	authKind, authErr := forrest.ParseAuthenticationKind(cfg.Authentication)
	storageKind, storageErr := forrest.ParseStorageKind(cfg.Storage.Type)

	t.AppendRows([]table.Row{
		{"authentication", effective(cfg.Authentication, authKind.String(), authErr)},
		{"storage.type", effective(cfg.Storage.Type, storageKind.String(), storageErr)},
		{"storage.path", cfg.Storage.Path},
	})
	if storageKind == forrest.StorageCache {
		t.AppendRows([]table.Row{
			{"storage.cache.driver", cfg.Storage.Cache.Driver},
			{"storage.ttl", ttlString(cfg.Storage)},
		})
	}
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"credentials.consumerKey", cfg.Credentials.ConsumerKey},
		{"credentials.consumerSecret", pkgstrings.Redact(cfg.Credentials.ConsumerSecret)},
		{"credentials.loginURL", cfg.Credentials.LoginURL},
	})
	if authKind == forrest.AuthUserPassword {
		t.AppendRows([]table.Row{
			{"credentials.username", cfg.Credentials.Username},
			{"credentials.password", pkgstrings.Redact(cfg.Credentials.Password)},
		})
	} else {
		t.AppendRow(table.Row{"credentials.callbackURI", cfg.Credentials.CallbackURI})
	}
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"version", cfg.Version},
		{"server", cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)},
		{"strict", strconv.FormatBool(cfg.Strict)},
	})

	t.Render()
}

// effective shows the configured value and, when it falls back, what is used instead.
func effective(configured, used string, err error) string {
	if err == nil {
		return used
	}
	shown := configured
	if shown == "" {
		shown = "(unset)"
	}
	return fmt.Sprintf("%s %s", text.FgYellow.Sprint(shown), text.Faint.Sprintf("→ %s", used))
}

func ttlString(s config.StorageConfig) string {
	if ttl := s.TTL(); ttl > 0 {
		return ttl.String()
	}
	return "forever"
}
