package wireguard

import (
	"strings"
	"testing"

	"github.com/JDW-ehb/LINKSPHERE/internal/provision/config"
	"github.com/JDW-ehb/LINKSPHERE/pkg/wgkey"
)

func testConfigs(t *testing.T) (config.ClientConfig, config.ServerConfig) {
	t.Helper()

	clientKeys, err := wgkey.GenerateKeyPair()
	if err != nil {
		t.Fatalf("failed to generate client keys: %v", err)
	}
	serverKeys, err := wgkey.GenerateKeyPair()
	if err != nil {
		t.Fatalf("failed to generate server keys: %v", err)
	}

	client := config.ClientConfig{
		PrivateKey: clientKeys.PrivateKey,
		Address:    "10.100.0.2/32",
		DNS:        "1.1.1.1",
		Tunnel:     "wg0",
	}
	server := config.ServerConfig{
		Endpoint:   "192.168.1.100",
		Port:       51820,
		PublicKey:  serverKeys.PublicKey,
		AllowedIPs: "0.0.0.0/0",
	}
	return client, server
}

func TestGenerateConfig(t *testing.T) {
	client, server := testConfigs(t)

	content, err := GenerateConfig(client, server)
	if err != nil {
		t.Fatalf("failed to generate config: %v", err)
	}

	if !strings.Contains(content, "[Interface]") {
		t.Errorf("[Interface] section not found in generated config")
	}
	if !strings.Contains(content, "[Peer]") {
		t.Errorf("[Peer] section not found in generated config")
	}
	if !strings.Contains(content, server.PublicKey) {
		t.Errorf("server public key not found in generated config")
	}
	if !strings.Contains(content, "Address = 10.100.0.2/32") {
		t.Errorf("client address not found in generated config")
	}
	if !strings.Contains(content, "Endpoint = 192.168.1.100:51820") {
		t.Errorf("endpoint not found in generated config")
	}
	if !strings.Contains(content, "MTU = 1420") {
		t.Errorf("MTU = 1420 not found in generated config")
		t.Logf("Generated config:\n%s", content)
	}
	if !strings.Contains(content, "PersistentKeepalive = 25") {
		t.Errorf("PersistentKeepalive setting not found in generated config")
	}
}

func TestGenerateConfig_InvalidKeys(t *testing.T) {
	client, server := testConfigs(t)

	badClient := client
	badClient.PrivateKey = "not-a-key"
	if _, err := GenerateConfig(badClient, server); err == nil {
		t.Error("expected error for invalid client private key")
	}

	badServer := server
	badServer.PublicKey = "not-a-key"
	if _, err := GenerateConfig(client, badServer); err == nil {
		t.Error("expected error for invalid server public key")
	}
}

func TestValidateConfig(t *testing.T) {
	client, server := testConfigs(t)

	content, err := GenerateConfig(client, server)
	if err != nil {
		t.Fatalf("failed to generate config: %v", err)
	}
	if err := ValidateConfig(content); err != nil {
		t.Errorf("generated config should validate, got: %v", err)
	}

	t.Run("missing peer section", func(t *testing.T) {
		truncated := strings.Split(content, "[Peer]")[0]
		if err := ValidateConfig(truncated); err == nil {
			t.Error("expected error for missing [Peer] section")
		}
	})

	t.Run("bad endpoint", func(t *testing.T) {
		mangled := strings.Replace(content, "Endpoint = 192.168.1.100:51820", "Endpoint = 192.168.1.100", 1)
		if err := ValidateConfig(mangled); err == nil {
			t.Error("expected error for endpoint without port")
		}
	})

	t.Run("bad private key", func(t *testing.T) {
		mangled := strings.Replace(content, client.PrivateKey, "garbage", 1)
		if err := ValidateConfig(mangled); err == nil {
			t.Error("expected error for invalid private key")
		}
	})
}
