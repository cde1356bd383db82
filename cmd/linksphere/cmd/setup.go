package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JDW-ehb/LINKSPHERE/internal/provision/config"
	"github.com/JDW-ehb/LINKSPHERE/pkg/wgkey"
)

var setupGenKey bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create a starter configuration file",
	Long: `Setup writes a commented starter configuration to ~/.linksphere.yaml.
Edit the file to fill in the SSH connection details and the WireGuard
server parameters before running 'linksphere provision'.`,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := config.CreateDefaultConfig()
		if err != nil {
			fmt.Printf("Setup failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Created %s\n", path)

		if setupGenKey {
			pair, err := wgkey.GenerateKeyPair()
			if err != nil {
				fmt.Printf("Key generation failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("\nGenerated a client key pair:")
			fmt.Printf("  private key: %s\n", pair.PrivateKey)
			fmt.Printf("  public key:  %s\n", pair.PublicKey)
			fmt.Println("\nPut the private key under client.private_key in the config file")
			fmt.Println("and register the public key as a peer on the WireGuard server.")
		}

		fmt.Println("\nNext steps:")
		fmt.Println("  1. Edit the file and fill in the SSH and server sections.")
		fmt.Println("  2. Run 'linksphere provision' to bring the tunnel up.")
	},
}

func init() {
	setupCmd.Flags().BoolVar(&setupGenKey, "genkey", false, "also generate a client key pair")
	rootCmd.AddCommand(setupCmd)
}
