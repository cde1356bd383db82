// Package cmd implements the linksphere command line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/JDW-ehb/LINKSPHERE/internal/provision/config"
	"github.com/JDW-ehb/LINKSPHERE/pkg/logger"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "linksphere",
	Short: "Provision a WireGuard tunnel on a remote Windows host over SSH",
	Long: `LINKSPHERE provisions a WireGuard tunnel on a Windows host over SSH:
it checks for an installed tunnel client, installs it if absent, writes the
tunnel configuration, starts the tunnel service and verifies it is up.

Configuration is read from .linksphere.yaml (in /etc/linksphere, your home
directory or the working directory), LINKSPHERE_* environment variables and
command line flags. Run 'linksphere setup' to create a starter config file.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a config file")
	rootCmd.PersistentFlags().String("host", "", "Windows host to provision")
	rootCmd.PersistentFlags().String("user", "", "SSH user")
	rootCmd.PersistentFlags().String("tunnel", "", "tunnel name")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig loads configuration and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadWithPath(path)
	} else {
		cfg, err = config.NewLoader().Load()
	}
	if err != nil {
		return nil, err
	}

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.SSH.Host = host
	}
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		cfg.SSH.User = user
	}
	if tunnel, _ := cmd.Flags().GetString("tunnel"); tunnel != "" {
		cfg.Client.Tunnel = tunnel
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

// buildLogger creates a logger from the loaded configuration.
func buildLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.LoggerConfig{
		Level:     logger.LogLevel(cfg.Log.Level),
		Format:    logger.OutputFormat(cfg.Log.Format),
		Component: "linksphere",
		Version:   version,
	})
}
