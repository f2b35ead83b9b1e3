package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig holds all configuration for the API service
type AppConfig struct {
	Server  ServerSettings  `yaml:"server"`
	Storage StorageSettings `yaml:"storage"`
	Health  HealthSettings  `yaml:"health"`
	Logging LoggingConfig   `yaml:"logging"`
}

// ServerSettings contains HTTP server configuration
type ServerSettings struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// StorageSettings selects the durable backend. DatabaseURL switches the
// store to Postgres (the managed-hosting path); empty means SQLite at
// DBPath.
type StorageSettings struct {
	DatabaseURL string `yaml:"database_url"`
	DBPath      string `yaml:"db_path"`
}

// HealthSettings tunes the staleness evaluator. The firmware posts every
// 60s, so the default threshold leaves room for a few missed cycles before
// /status flips to Stale.
type HealthSettings struct {
	StalenessThreshold time.Duration `yaml:"staleness_threshold"`
}

// LoadAppConfig loads service configuration: YAML file, then .env, then
// environment overrides, then validation. A missing config file is not an
// error; defaults plus environment cover container deployments that ship
// no file at all.
func LoadAppConfig(path string) (*AppConfig, error) {
	var config AppConfig

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

	// .env fills gaps for local development; real environment variables
	// always win because Load never overwrites existing ones.
	_ = godotenv.Load()

	config.ApplyDefaults()
	config.OverrideFromEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults sets default values for any unset fields
func (ac *AppConfig) ApplyDefaults() {
	if ac.Server.Port == 0 {
		ac.Server.Port = 8080
	}
	if ac.Server.Host == "" {
		ac.Server.Host = "0.0.0.0"
	}
	if ac.Server.ReadTimeout == 0 {
		ac.Server.ReadTimeout = 60 * time.Second
	}
	if ac.Server.WriteTimeout == 0 {
		ac.Server.WriteTimeout = 10 * time.Second
	}
	if ac.Storage.DBPath == "" {
		ac.Storage.DBPath = "./data/plant_readings.db"
	}
	if ac.Health.StalenessThreshold == 0 {
		ac.Health.StalenessThreshold = 10 * time.Minute
	}
	if ac.Logging.Level == "" {
		ac.Logging.Level = "info"
	}
	if ac.Logging.Format == "" {
		ac.Logging.Format = "json"
	}
}

// OverrideFromEnv overrides config from environment variables. PORT and
// DATABASE_URL follow the names the hosting platform injects.
func (ac *AppConfig) OverrideFromEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			ac.Server.Port = port
		}
	}
	if v := os.Getenv("HOST"); v != "" {
		ac.Server.Host = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		ac.Storage.DatabaseURL = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		ac.Storage.DBPath = v
	}
	if v := os.Getenv("STALENESS_THRESHOLD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ac.Health.StalenessThreshold = d
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		ac.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		ac.Logging.Format = v
	}
}

// Validate checks if the configuration is valid
func (ac *AppConfig) Validate() error {
	if ac.Server.Port < 1 || ac.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if ac.Storage.DatabaseURL == "" && ac.Storage.DBPath == "" {
		return fmt.Errorf("either a database URL or a sqlite path is required")
	}
	if ac.Health.StalenessThreshold <= 0 {
		return fmt.Errorf("staleness threshold must be positive")
	}
	return nil
}

// String returns a safe string representation (hides database credentials)
func (ac *AppConfig) String() string {
	return fmt.Sprintf("AppConfig{Server: %+v, Storage: [URL=%s, DBPath=%s], Health: %+v, Logging: %+v}",
		ac.Server,
		maskDatabaseURL(ac.Storage.DatabaseURL),
		ac.Storage.DBPath,
		ac.Health,
		ac.Logging,
	)
}

// maskDatabaseURL hides the userinfo section of a connection URL
func maskDatabaseURL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.User == nil {
		return raw
	}
	parsed.User = url.User("****")
	return parsed.String()
}
