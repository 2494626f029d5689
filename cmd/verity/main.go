package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmcdole/verity/pkg/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

func main() {
	cmd := newRootCommand(afero.NewOsFs())
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// commandContext carries the configuration shared by all subcommands
type commandContext struct {
	fs      afero.Fs
	cfgFile string
	config  *Config
	app     *app
}

// ensureApp builds the components on first use
func (c *commandContext) ensureApp() (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := newApp(c.config, c.fs)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *commandContext) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		logging.App.Warn("Closing components failed", "error", err)
	}
	c.app = nil
}

func newRootCommand(fs afero.Fs) *cobra.Command {
	ctx := &commandContext{fs: fs}
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:           "verity",
		Short:         "Print authorization permits for 3D design files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `verity - local print authorization for 3D printer jobs

verity fingerprints a design file, checks the requesting identity against a
static user to printer table and issues a permit when the identity may use
the printer. Nothing is sent over the network.

The optional configuration file is JSON:
{
    "directory_path": "directory.yaml",
    "permit_prefix": "DOD",
    "id_strategy": "random",
    "hash_algorithm": "sha256",
    "evaluation_delay_ms": 1500,
    "app_log_path": "log/verity.log",
    "access_log_path": "log/decisions.log",
    "log_level": "info",
    "audit_db_path": "data/audit.db"
}

Without directory_path the built-in demo table is used.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}

			config := DefaultConfig()
			if ctx.cfgFile != "" {
				path, err := filepath.Abs(ctx.cfgFile)
				if err != nil {
					return fmt.Errorf("failed to get absolute path: %v", err)
				}
				config = &Config{}
				if err := LoadConfig(path, config); err != nil {
					return fmt.Errorf("failed to load config: %v", err)
				}
			}
			ctx.config = config

			level, err := logging.ParseLevel(config.LogLevel)
			if err != nil {
				return err
			}
			if err := logging.Initialize(config.AccessLogPath, config.AppLogPath, level); err != nil {
				return fmt.Errorf("failed to initialize logging: %v", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "verity %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.cfgFile, "config", "c", "", "path to config file")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version information")

	rootCmd.AddCommand(newHashCommand(ctx))
	rootCmd.AddCommand(newAuthorizeCommand(ctx))
	rootCmd.AddCommand(newDirectoryCommand(ctx))
	rootCmd.AddCommand(newAuditCommand(ctx))

	return rootCmd
}
