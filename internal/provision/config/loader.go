package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/JDW-ehb/LINKSPHERE/pkg/wgkey"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// Load loads configuration from files and environment variables.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()
	l.setupConfigPaths()
	l.setupEnvVars()

	// Config file is optional; defaults + env vars are enough to run.
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadWithPath loads configuration from a specific file path.
func LoadWithPath(path string) (*Config, error) {
	loader := NewLoader()
	loader.setDefaults()
	loader.setupEnvVars()

	loader.v.SetConfigFile(path)

	if err := loader.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return loader.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg.SSH.KeyPath = expandPath(cfg.SSH.KeyPath)
	cfg.History.Path = expandPath(cfg.History.Path)

	return &cfg, nil
}

// setDefaults sets default configuration values.
func (l *Loader) setDefaults() {
	// Every key gets a default so viper registers it; env-only values are
	// not visible to Unmarshal for unregistered keys.
	l.v.SetDefault("ssh.host", "")
	l.v.SetDefault("ssh.port", 22)
	l.v.SetDefault("ssh.user", "")
	l.v.SetDefault("ssh.password", "")
	l.v.SetDefault("ssh.key_path", "")

	l.v.SetDefault("client.private_key", "")
	l.v.SetDefault("client.address", "10.100.0.2/32")
	l.v.SetDefault("client.dns", "1.1.1.1,8.8.8.8")
	l.v.SetDefault("client.tunnel", "wg0")

	l.v.SetDefault("server.endpoint", "")
	l.v.SetDefault("server.port", 51820)
	l.v.SetDefault("server.public_key", "")
	l.v.SetDefault("server.allowed_ips", "0.0.0.0/0")

	l.v.SetDefault("remote.install_dir", `C:\Program Files\WireGuard`)
	l.v.SetDefault("remote.config_dir", `C:\ProgramData\LINKSPHERE`)
	l.v.SetDefault("remote.installer_url", "https://download.wireguard.com/windows-client/wireguard-amd64-0.5.3.msi")

	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "text")

	l.v.SetDefault("history.enabled", true)
	l.v.SetDefault("history.path", "~/.linksphere/history.db")
}

// setupConfigPaths configures where to search for config files.
func (l *Loader) setupConfigPaths() {
	l.v.SetConfigName(".linksphere")
	l.v.SetConfigType("yaml")

	// Search paths in priority order
	l.v.AddConfigPath("/etc/linksphere")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
	l.v.AddConfigPath(".")
}

// setupEnvVars configures environment variable handling.
func (l *Loader) setupEnvVars() {
	l.v.SetEnvPrefix("LINKSPHERE")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

// validate validates the configuration.
func (l *Loader) validate(cfg *Config) error {
	if cfg.SSH.Host == "" {
		return fmt.Errorf("ssh.host is required")
	}
	if cfg.SSH.User == "" {
		return fmt.Errorf("ssh.user is required")
	}
	if cfg.SSH.Password == "" && cfg.SSH.KeyPath == "" {
		return fmt.Errorf("either ssh.password or ssh.key_path is required")
	}
	if cfg.SSH.Port < 1 || cfg.SSH.Port > 65535 {
		return fmt.Errorf("ssh.port must be between 1 and 65535")
	}

	if cfg.Server.Endpoint == "" {
		return fmt.Errorf("server.endpoint is required")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if cfg.Server.PublicKey == "" {
		return fmt.Errorf("server.public_key is required")
	}
	if !wgkey.IsValidKey(cfg.Server.PublicKey) {
		return fmt.Errorf("server.public_key is not a valid WireGuard key")
	}

	// Client private key is optional; a fresh pair is generated when empty.
	if cfg.Client.PrivateKey != "" && !wgkey.IsValidKey(cfg.Client.PrivateKey) {
		return fmt.Errorf("client.private_key is not a valid WireGuard key")
	}
	if cfg.Client.Tunnel == "" {
		return fmt.Errorf("client.tunnel name is required")
	}
	if cfg.Client.Address == "" {
		return fmt.Errorf("client.address is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log.level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("invalid log.format: %s (must be text or json)", cfg.Log.Format)
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}

	return nil
}

// expandPath expands ~ to home directory in file paths.
func expandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return home
	}

	return filepath.Join(home, path[1:])
}
