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

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the tunnel client and service state on the configured host",
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
		st, err := p.Status(ctx)
		if err != nil {
			fmt.Printf("Status check failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Host:             %s\n", cfg.SSH.Host)
		fmt.Printf("Tunnel:           %s\n", cfg.Client.Tunnel)
		if st.ClientInstalled {
			fmt.Printf("Client installed: yes\n")
		} else {
			fmt.Printf("Client installed: no\n")
		}
		fmt.Printf("Service state:    %s\n", st.ServiceState)
		if st.TunnelState != "" {
			fmt.Printf("\n%s\n", st.TunnelState)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
