package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JDW-ehb/LINKSPHERE/internal/provision"
	"github.com/JDW-ehb/LINKSPHERE/internal/provision/events"
	"github.com/JDW-ehb/LINKSPHERE/internal/provision/ssh"
)

var deprovisionCmd = &cobra.Command{
	Use:   "deprovision",
	Short: "Stop and remove the tunnel service from the configured host",
	Long: `Deprovision stops the tunnel service on the configured Windows host and
removes the tunnel configuration file. The tunnel client itself stays
installed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Configuration error: %v\n", err)
			os.Exit(1)
		}

		log := buildLogger(cfg)

		bus := events.NewBus(log.Unwrap())
		defer bus.Close()

		runner, err := ssh.NewClient(cfg.SSH, log)
		if err != nil {
			fmt.Printf("SSH error: %v\n", err)
			os.Exit(1)
		}
		defer runner.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := provision.New(runner, cfg, log, bus, nil)
		if err := p.Deprovision(ctx); err != nil {
			fmt.Printf("Deprovisioning failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Tunnel %q removed from %s.\n", cfg.Client.Tunnel, cfg.SSH.Host)
	},
}

func init() {
	rootCmd.AddCommand(deprovisionCmd)
}
