package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AgentConfig holds all configuration for the sensor-node agent
type AgentConfig struct {
	Device  DeviceConfig  `yaml:"device"`
	Probe   ProbeConfig   `yaml:"probe"`
	Server  APIConfig     `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// DeviceConfig identifies this node. An empty ID is allowed: the agent then
// posts without device_id and the service files readings under its default
// partition.
type DeviceConfig struct {
	ID           string        `yaml:"id"`
	Location     string        `yaml:"location"`
	ReadInterval time.Duration `yaml:"read_interval"`
}

// ProbeConfig selects and wires the hardware. Type is "dht" for a DHT11 on
// a GPIO pin plus an ADC soil probe, or "sim" for the development
// generator.
type ProbeConfig struct {
	Type    string `yaml:"type"`
	GPIOPin int    `yaml:"gpio_pin"`
	// MoisturePath is the sysfs file exposing the ADC channel the soil
	// probe is wired to, e.g.
	// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
	MoisturePath string `yaml:"moisture_path"`
}

// APIConfig points the agent at the ingestion service
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LoadAgentConfig loads agent configuration from a YAML file, then .env,
// then environment overrides, then validation.
func LoadAgentConfig(path string) (*AgentConfig, error) {
	var config AgentConfig

	if path != "" {
		yamlData, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(yamlData, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	_ = godotenv.Load()

	config.ApplyDefaults()
	config.OverrideFromEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults sets default values for any unset fields
func (c *AgentConfig) ApplyDefaults() {
	if c.Device.ReadInterval == 0 {
		c.Device.ReadInterval = 60 * time.Second
	}
	if c.Probe.Type == "" {
		c.Probe.Type = "sim"
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// OverrideFromEnv overrides config values from environment variables
func (c *AgentConfig) OverrideFromEnv() {
	if v := os.Getenv("DEVICE_ID"); v != "" {
		c.Device.ID = v
	}
	if v := os.Getenv("DEVICE_LOCATION"); v != "" {
		c.Device.Location = v
	}
	if v := os.Getenv("READ_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Device.ReadInterval = d
		}
	}
	if v := os.Getenv("PROBE_TYPE"); v != "" {
		c.Probe.Type = v
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks if the configuration is valid
func (c *AgentConfig) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server base URL is required")
	}
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("server base URL must start with http:// or https://")
	}
	if c.Device.ReadInterval < 1*time.Second {
		return fmt.Errorf("read interval must be at least 1 second")
	}
	switch c.Probe.Type {
	case "sim":
	case "dht":
		if c.Probe.GPIOPin <= 0 {
			return fmt.Errorf("GPIO pin must be greater than 0")
		}
		if c.Probe.MoisturePath == "" {
			return fmt.Errorf("moisture channel path is required for the dht probe")
		}
	default:
		return fmt.Errorf("probe type must be dht or sim, got %q", c.Probe.Type)
	}
	return nil
}

// String returns a string representation of the agent config
func (c *AgentConfig) String() string {
	return fmt.Sprintf("AgentConfig{Device: %+v, Probe: %+v, Server: %+v, Logging: %+v}",
		c.Device,
		c.Probe,
		c.Server,
		c.Logging,
	)
}
