package config

import (
	"fmt"
	"os"
	"time"

	"github.com/EchoPBX/c2host/pkg/sdk"
	"gopkg.in/yaml.v3"
)

const (
	DefaultIdleTimeout  = 5 * time.Second
	DefaultPollInterval = 10 * time.Millisecond
)

type Config struct {
	Logging struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"logging"`
	Plugins struct {
		Dirs []string           `yaml:"dirs"` // build profiles, searched in order
		Load []PluginDescriptor `yaml:"load"`
	} `yaml:"plugins"`
	Commands Seeds `yaml:"commands"`
	Dispatch struct {
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"dispatch"`
	HTTP struct {
		Enabled    bool   `yaml:"enabled"`
		Bind       string `yaml:"bind"`
		Port       int    `yaml:"port"`
		EndpointID string `yaml:"endpoint_id"`
		TLS        struct {
			Enabled bool   `yaml:"enabled"`
			Cert    string `yaml:"cert"`
			Key     string `yaml:"key"`
		} `yaml:"tls"`
	} `yaml:"http"`
	Auth struct {
		JWTPublicKeys []string `yaml:"jwt_public_keys"` // PEM certificate paths
		Issuer        string   `yaml:"issuer"`
		Audience      string   `yaml:"audience"`
	} `yaml:"auth"`
	Uplink struct {
		Enabled    bool   `yaml:"enabled"`
		URL        string `yaml:"url"` // wss://controller:8443/c2
		EndpointID string `yaml:"endpoint_id"`
		Insecure   bool   `yaml:"insecure"`
	} `yaml:"uplink"`
	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"journal"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML document, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, sdk.Errorf(sdk.InputInvalid, "parse config: %v", err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if len(c.Plugins.Dirs) == 0 {
		c.Plugins.Dirs = []string{"build/debug", "build/release"}
	}
	if c.Dispatch.IdleTimeout == 0 {
		c.Dispatch.IdleTimeout = DefaultIdleTimeout
	}
	if c.Dispatch.PollInterval == 0 {
		c.Dispatch.PollInterval = DefaultPollInterval
	}
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "127.0.0.1"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.EndpointID == "" {
		c.HTTP.EndpointID = "admin"
	}
	if c.Uplink.EndpointID == "" {
		c.Uplink.EndpointID = "uplink"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "/var/lib/c2host/journal.db"
	}
}

func (c *Config) validate() error {
	for i, d := range c.Plugins.Load {
		if d.Name == "" {
			return sdk.Errorf(sdk.InputInvalid, "plugins.load[%d]: name is required", i)
		}
	}
	for i, s := range c.Commands {
		if s.Plugin == "" {
			return sdk.Errorf(sdk.InputInvalid, "commands[%d]: plugin is required", i)
		}
	}
	if c.Dispatch.IdleTimeout < 0 || c.Dispatch.PollInterval < 0 {
		return sdk.Errorf(sdk.InputInvalid, "dispatch: durations must not be negative")
	}
	if c.Uplink.Enabled && c.Uplink.URL == "" {
		return sdk.Errorf(sdk.InputInvalid, "uplink.url is required when the uplink is enabled")
	}
	if c.HTTP.Enabled && c.Uplink.Enabled && c.HTTP.EndpointID == c.Uplink.EndpointID {
		return sdk.Errorf(sdk.InputInvalid, "http.endpoint_id and uplink.endpoint_id must differ (%q)", c.HTTP.EndpointID)
	}
	return nil
}
