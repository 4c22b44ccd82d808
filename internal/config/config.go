package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/angristan/magichome/internal/api"
)

// LightConfig stores connection details for a controller
type LightConfig struct {
	// IP address or hostname of the controller
	Host string `yaml:"host"`
	// User-friendly name shown instead of the address
	Name string `yaml:"name,omitempty"`
	// Group the light is listed under
	Group string `yaml:"group,omitempty"`
	// TCP port, 0 for the default 5577
	Port int `yaml:"port,omitempty"`
}

// Config stores all application configuration
type Config struct {
	// List of configured lights
	Lights []LightConfig `yaml:"lights"`
	// Host of the last controlled light
	LastLight string `yaml:"last_light,omitempty"`
	// Per-read timeout for device sessions
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// How long discovery collects replies
	DiscoveryWindow time.Duration `yaml:"discovery_window,omitempty"`
	// Close discovery early after this much silence
	DiscoveryIdleGap time.Duration `yaml:"discovery_idle_gap,omitempty"`
	// mDNS service to browse alongside UDP discovery
	MDNSService string `yaml:"mdns_service,omitempty"`
	// Where event logs are written, defaults to <config dir>/logs
	LogDir string `yaml:"log_dir,omitempty"`
}

var (
	ErrLightNotFound = errors.New("light not found")
	ErrNoLights      = errors.New("no lights configured")
)

// configDir returns the configuration directory path
func configDir() (string, error) {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "magichome"), nil
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "magichome"), nil
}

// Path returns the full path to the config file
func Path() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration from disk
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to disk
func (c *Config) Save() error {
	dir, err := configDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := Path()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// AddLight adds or updates a light, matched by host
func (c *Config) AddLight(light LightConfig) {
	for i, l := range c.Lights {
		if l.Host == light.Host {
			c.Lights[i] = light
			return
		}
	}

	c.Lights = append(c.Lights, light)
}

// GetLight returns the light configuration by host or name
func (c *Config) GetLight(key string) (*LightConfig, error) {
	for i := range c.Lights {
		if c.Lights[i].Host == key {
			return &c.Lights[i], nil
		}
	}
	for i := range c.Lights {
		if c.Lights[i].Name != "" && c.Lights[i].Name == key {
			return &c.Lights[i], nil
		}
	}
	return nil, ErrLightNotFound
}

// GetLastLight returns the last used light or the first available
func (c *Config) GetLastLight() (*LightConfig, error) {
	if len(c.Lights) == 0 {
		return nil, ErrNoLights
	}

	if c.LastLight != "" {
		light, err := c.GetLight(c.LastLight)
		if err == nil {
			return light, nil
		}
	}

	return &c.Lights[0], nil
}

// RemoveLight removes a light by host or name
func (c *Config) RemoveLight(key string) error {
	light, err := c.GetLight(key)
	if err != nil {
		return err
	}
	host := light.Host
	for i, l := range c.Lights {
		if l.Host == host {
			c.Lights = append(c.Lights[:i], c.Lights[i+1:]...)
			break
		}
	}
	if c.LastLight == host || c.LastLight == key {
		c.LastLight = ""
	}
	return nil
}

// HasLights returns true if at least one light is configured
func (c *Config) HasLights() bool {
	return len(c.Lights) > 0
}

// ReadTimeout returns the configured session timeout or the default
func (c *Config) ReadTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return api.DefaultTimeout
}

// DiscoveryOptions builds discovery options from the config
func (c *Config) DiscoveryOptions() api.DiscoveryOptions {
	return api.DiscoveryOptions{
		Window:      c.DiscoveryWindow,
		IdleGap:     c.DiscoveryIdleGap,
		MDNSService: c.MDNSService,
	}
}

// EventLogDir returns where event logs go
func (c *Config) EventLogDir() (string, error) {
	if c.LogDir != "" {
		return c.LogDir, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// DeviceOptions returns the session options for a configured light
func (c *Config) DeviceOptions(light LightConfig) []api.DeviceOption {
	opts := []api.DeviceOption{
		api.WithTimeout(c.ReadTimeout()),
		api.WithName(light.Name),
		api.WithGroup(light.Group),
	}
	if light.Port != 0 {
		opts = append(opts, api.WithPort(light.Port))
	}
	return opts
}
