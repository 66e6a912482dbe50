// Package config loads the process-level configuration. This is distinct
// from the radio configuration documents handled by radiocfg: this file
// controls the logger process itself, not the concentrator hardware.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	NATS      NATSConfig      `yaml:"nats"`
	Radio     RadioConfig     `yaml:"radio"`
	PacketLog PacketLogConfig `yaml:"packet_log"`
	API       APIConfig       `yaml:"api"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL               string        `yaml:"url"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// RadioConfig locates the concentrator configuration documents.
type RadioConfig struct {
	// Dir is searched for global_conf.json, local_conf.json and
	// debug_conf.json.
	Dir    string `yaml:"dir"`
	Driver string `yaml:"driver"`
}

// PacketLogConfig controls the CSV audit log.
type PacketLogConfig struct {
	Dir string `yaml:"dir"`
	// RotateInterval is in seconds; -1 disables rotation.
	RotateInterval int `yaml:"rotate_interval"`
}

// APIConfig represents the status endpoint configuration
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.applyEnvOverrides()
	return cfg
}

// Load loads configuration from file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.setDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.NATS.MaxReconnects == 0 {
		c.NATS.MaxReconnects = 10
	}
	if c.NATS.ReconnectInterval == 0 {
		c.NATS.ReconnectInterval = 2 * time.Second
	}
	if c.Radio.Dir == "" {
		c.Radio.Dir = "."
	}
	if c.Radio.Driver == "" {
		c.Radio.Driver = "sim"
	}
	if c.PacketLog.Dir == "" {
		c.PacketLog.Dir = "."
	}
	if c.PacketLog.RotateInterval == 0 {
		// Rotation every hour by default.
		c.PacketLog.RotateInterval = 3600
	}
	if c.API.Host == "" {
		c.API.Host = "127.0.0.1"
	}
	if c.API.Port == 0 {
		c.API.Port = 8090
	}
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}
}

func (c *Config) validate() error {
	if c.PacketLog.RotateInterval < -1 {
		return fmt.Errorf("invalid packet_log.rotate_interval %d: must be positive, or -1 to disable rotation", c.PacketLog.RotateInterval)
	}
	return nil
}
