package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfigTemplate = `# LINKSPHERE configuration
# Settings can also be supplied through LINKSPHERE_* environment variables,
# e.g. LINKSPHERE_SSH_HOST or LINKSPHERE_SERVER_PUBLIC_KEY.

ssh:
  host: ""            # Windows host to provision (required)
  port: 22
  user: "Administrator"
  password: ""        # or use key_path
  key_path: ""        # path to an SSH private key

client:
  private_key: ""     # generated on first run when empty
  address: "10.100.0.2/32"
  dns: "1.1.1.1,8.8.8.8"
  tunnel: "wg0"

server:
  endpoint: ""        # VPN server host or IP (required)
  port: 51820
  public_key: ""      # VPN server WireGuard public key (required)
  allowed_ips: "0.0.0.0/0"

log:
  level: "info"
  format: "text"

history:
  enabled: true
  path: "~/.linksphere/history.db"
`

// CreateDefaultConfig writes a commented starter configuration file to the
// user's home directory and returns its path. It refuses to overwrite an
// existing file.
func CreateDefaultConfig() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	path := filepath.Join(home, ".linksphere.yaml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}
