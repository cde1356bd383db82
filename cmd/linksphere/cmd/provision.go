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
	"github.com/JDW-ehb/LINKSPHERE/internal/provision/history"
	"github.com/JDW-ehb/LINKSPHERE/internal/provision/ssh"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision the WireGuard tunnel on the configured host",
	Long: `Provision connects to the configured Windows host over SSH and runs the
full provisioning procedure: check the tunnel client installation, install
it if missing, write the tunnel configuration, start the tunnel service and
verify the tunnel is up. The run aborts on the first failed step.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Configuration error: %v\n", err)
			os.Exit(1)
		}

		log := buildLogger(cfg)

		bus := events.NewBus(log.Unwrap())
		defer bus.Close()
		events.NewConsoleReporter(os.Stdout, bus)

		var store history.Store
		if cfg.History.Enabled {
			store, err = history.NewStore(cfg.History.Path)
			if err != nil {
				log.Warn("run history unavailable", "error", err)
			} else {
				defer store.Close()
			}
		}

		runner, err := ssh.NewClient(cfg.SSH, log)
		if err != nil {
			fmt.Printf("SSH error: %v\n", err)
			os.Exit(1)
		}
		defer runner.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := provision.New(runner, cfg, log, bus, store)
		res, err := p.Run(ctx)
		if err != nil {
			fmt.Printf("Provisioning failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\nTunnel %q is up on %s.\n", cfg.Client.Tunnel, cfg.SSH.Host)
		if cfg.Client.PrivateKey == "" && res.ClientPublicKey != "" {
			fmt.Printf("Generated client public key: %s\n", res.ClientPublicKey)
			fmt.Println("Register this key as a peer on the WireGuard server.")
		}
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}
