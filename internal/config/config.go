// Package config defines the on-disk configuration for authkit and its
// loading rules: a JSON file, environment overrides through viper, and
// secret-reference resolution before any credential is used.
package config

import (
	"fmt"

	"github.com/authkit-dev/authkit/internal/oauth"
)

// Flow names accepted in client configuration.
const (
	FlowAuthorizationCode = "authorization_code"
	FlowDeviceCode        = "device_code"
	FlowClientCredentials = "client_credentials"
	FlowPassword          = "password"
	FlowJWTBearer         = "jwt_bearer"
)

// Config is the main configuration structure.
type Config struct {
	DataDir string          `json:"data_dir,omitempty" mapstructure:"data-dir"`
	Clients []*ClientConfig `json:"clients" mapstructure:"clients"`

	// Cache configuration
	Cache *CacheConfig `json:"cache,omitempty" mapstructure:"cache"`

	// Logging configuration
	Logging *LogConfig `json:"logging,omitempty" mapstructure:"logging"`
}

// ClientConfig describes one OAuth client registration and which grant it
// acquires tokens with. Credential fields accept secret references
// (${env:NAME}, ${keyring:NAME}, ${obf:PAYLOAD}) resolved at load time.
type ClientConfig struct {
	Name          string   `json:"name" mapstructure:"name"`
	ClientID      string   `json:"client_id" mapstructure:"client-id"`
	ClientSecret  string   `json:"client_secret,omitempty" mapstructure:"client-secret"`
	TokenURL      string   `json:"token_url" mapstructure:"token-url"`
	AuthURL       string   `json:"auth_url,omitempty" mapstructure:"auth-url"`
	DeviceAuthURL string   `json:"device_auth_url,omitempty" mapstructure:"device-auth-url"`
	Scopes        []string `json:"scopes,omitempty" mapstructure:"scopes"`

	// Flow selects the grant used to mint tokens for this client.
	Flow string `json:"flow" mapstructure:"flow"`

	// Password grant credentials.
	Username string `json:"username,omitempty" mapstructure:"username"`
	Password string `json:"password,omitempty" mapstructure:"password"`

	// JWT bearer grant settings. KeyFile points at a PEM-encoded RSA
	// private key.
	JWTKeyFile  string `json:"jwt_key_file,omitempty" mapstructure:"jwt-key-file"`
	JWTSubject  string `json:"jwt_subject,omitempty" mapstructure:"jwt-subject"`
	JWTAudience string `json:"jwt_audience,omitempty" mapstructure:"jwt-audience"`
}

// CacheConfig controls the token cache tiers.
type CacheConfig struct {
	// EnableDisk turns on the encrypted on-disk tier. The in-memory tier
	// is always active.
	EnableDisk bool `json:"enable_disk" mapstructure:"enable-disk"`

	// Dir overrides the cache directory. Defaults to <data_dir>/cache.
	Dir string `json:"dir,omitempty" mapstructure:"dir"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" mapstructure:"enable-file"`
	EnableConsole bool   `json:"enable_console" mapstructure:"enable-console"`
	Filename      string `json:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" mapstructure:"log-dir"`
	MaxSize       int    `json:"max_size" mapstructure:"max-size"`       // MB
	MaxBackups    int    `json:"max_backups" mapstructure:"max-backups"` // number of backup files
	MaxAge        int    `json:"max_age" mapstructure:"max-age"`         // days
	Compress      bool   `json:"compress" mapstructure:"compress"`
	JSONFormat    bool   `json:"json_format" mapstructure:"json-format"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "", // Set to ~/.authkit by the loader
		Clients: []*ClientConfig{},
		Cache: &CacheConfig{
			EnableDisk: true,
		},
		Logging: &LogConfig{
			Level:         "info",
			EnableFile:    false,
			EnableConsole: true,
			Filename:      "main.log",
			MaxSize:       10,
			MaxBackups:    5,
			MaxAge:        30,
			Compress:      true,
			JSONFormat:    false,
		},
	}
}

// Validate checks the configuration for structural problems: duplicate
// client names, unknown flows, and per-flow required fields.
func (c *Config) Validate() error {
	if c.Cache == nil {
		c.Cache = &CacheConfig{EnableDisk: true}
	}

	seen := make(map[string]bool, len(c.Clients))
	for _, client := range c.Clients {
		if err := client.Validate(); err != nil {
			return err
		}
		if seen[client.Name] {
			return fmt.Errorf("duplicate client name: %s", client.Name)
		}
		seen[client.Name] = true
	}
	return nil
}

// Validate checks one client entry.
func (c *ClientConfig) Validate() error {
	if err := c.ToClient().Validate(); err != nil {
		return err
	}

	switch c.Flow {
	case FlowAuthorizationCode:
		if c.AuthURL == "" {
			return fmt.Errorf("client %s: authorization_code flow requires auth_url", c.Name)
		}
	case FlowDeviceCode:
		// Device endpoint falls back to the token endpoint.
	case FlowClientCredentials:
		if c.ClientSecret == "" {
			return fmt.Errorf("client %s: client_credentials flow requires client_secret", c.Name)
		}
	case FlowPassword:
		if c.Username == "" || c.Password == "" {
			return fmt.Errorf("client %s: password flow requires username and password", c.Name)
		}
	case FlowJWTBearer:
		if c.JWTKeyFile == "" {
			return fmt.Errorf("client %s: jwt_bearer flow requires jwt_key_file", c.Name)
		}
	case "":
		return fmt.Errorf("client %s: flow is required", c.Name)
	default:
		return fmt.Errorf("client %s: unknown flow: %s", c.Name, c.Flow)
	}
	return nil
}

// ToClient converts the config entry to its runtime form.
func (c *ClientConfig) ToClient() *oauth.Client {
	return &oauth.Client{
		Name:          c.Name,
		ID:            c.ClientID,
		Secret:        c.ClientSecret,
		TokenURL:      c.TokenURL,
		AuthURL:       c.AuthURL,
		DeviceAuthURL: c.DeviceAuthURL,
		Scopes:        append([]string(nil), c.Scopes...),
	}
}

// FindClient returns the client entry with the given name, or nil.
func (c *Config) FindClient(name string) *ClientConfig {
	for _, client := range c.Clients {
		if client.Name == name {
			return client
		}
	}
	return nil
}
