package config

// Config holds the provisioner application configuration. It is read once at
// startup and never mutated afterwards.
type Config struct {
	SSH     SSHConfig     `mapstructure:"ssh"`
	Client  ClientConfig  `mapstructure:"client"`
	Server  ServerConfig  `mapstructure:"server"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Log     LogConfig     `mapstructure:"log"`
	History HistoryConfig `mapstructure:"history"`
}

// SSHConfig describes how to reach the Windows host.
type SSHConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	KeyPath  string `mapstructure:"key_path"`
}

// ClientConfig holds the tunnel's client-side credentials and addressing.
type ClientConfig struct {
	PrivateKey string `mapstructure:"private_key"`
	Address    string `mapstructure:"address"`
	DNS        string `mapstructure:"dns"`
	Tunnel     string `mapstructure:"tunnel"`
}

// ServerConfig holds the tunnel's server-side endpoint and public key.
type ServerConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Port       int    `mapstructure:"port"`
	PublicKey  string `mapstructure:"public_key"`
	AllowedIPs string `mapstructure:"allowed_ips"`
}

// RemoteConfig holds paths and URLs on the Windows host. The defaults match
// a stock WireGuard for Windows installation and rarely need overriding.
type RemoteConfig struct {
	InstallDir   string `mapstructure:"install_dir"`
	ConfigDir    string `mapstructure:"config_dir"`
	InstallerURL string `mapstructure:"installer_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HistoryConfig holds run-history persistence settings.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}
