// Package wireguard renders and validates the tunnel configuration file that
// the provisioner writes to the Windows host.
package wireguard

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/JDW-ehb/LINKSPHERE/internal/provision/config"
	"github.com/JDW-ehb/LINKSPHERE/pkg/wgkey"
)

// GenerateConfig creates the WireGuard tunnel configuration file content.
// The client private key must already be resolved (loaded or generated).
func GenerateConfig(client config.ClientConfig, server config.ServerConfig) (string, error) {
	if !wgkey.IsValidKey(client.PrivateKey) {
		return "", fmt.Errorf("client private key is not a valid WireGuard key")
	}
	if !wgkey.IsValidKey(server.PublicKey) {
		return "", fmt.Errorf("server public key is not a valid WireGuard key")
	}

	content := fmt.Sprintf(`[Interface]
PrivateKey = %s
Address = %s
DNS = %s
MTU = 1420

[Peer]
PublicKey = %s
Endpoint = %s
AllowedIPs = %s
PersistentKeepalive = 25
`,
		client.PrivateKey,
		client.Address,
		client.DNS,
		server.PublicKey,
		net.JoinHostPort(server.Endpoint, strconv.Itoa(server.Port)),
		server.AllowedIPs,
	)

	return content, nil
}

// ValidateConfig checks rendered configuration content before it is shipped
// to the host: both sections present, keys valid, endpoint well-formed.
func ValidateConfig(content string) error {
	hasInterface := false
	hasPeer := false
	privateKeyValid := false
	publicKeyValid := false
	endpointValid := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "[Interface]"):
			hasInterface = true
		case strings.HasPrefix(line, "[Peer]"):
			hasPeer = true
		case strings.HasPrefix(line, "PrivateKey"):
			privateKeyValid = wgkey.IsValidKey(valueOf(line))
		case strings.HasPrefix(line, "PublicKey"):
			publicKeyValid = wgkey.IsValidKey(valueOf(line))
		case strings.HasPrefix(line, "Endpoint"):
			endpointValid = isValidEndpoint(valueOf(line))
		}
	}

	if !hasInterface || !hasPeer {
		return fmt.Errorf("configuration missing required sections")
	}
	if !privateKeyValid {
		return fmt.Errorf("invalid private key format")
	}
	if !publicKeyValid {
		return fmt.Errorf("invalid public key format")
	}
	if !endpointValid {
		return fmt.Errorf("invalid endpoint format")
	}

	return nil
}

func valueOf(line string) string {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// isValidEndpoint checks that an endpoint is host:port with a sane port.
func isValidEndpoint(endpoint string) bool {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil || host == "" {
		return false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return false
	}
	return port > 0 && port < 65536
}
