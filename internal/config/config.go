package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const devJWTSecret = "dev-secret-change-in-production"

// Config holds settings for the remote attendance API.
type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	Env         string        `env:"ENV" envDefault:"development"`
	DatabaseDSN string        `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/rollcall?parseTime=true"`
	JWTSecret   string        `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
}

// AgentConfig holds settings for the on-device sync agent.
type AgentConfig struct {
	ListenAddr     string        `env:"AGENT_LISTEN_ADDR" envDefault:"127.0.0.1:8787"`
	DBPath         string        `env:"AGENT_DB_PATH" envDefault:"data/rollcall.db"`
	RemoteURL      string        `env:"AGENT_REMOTE_URL" envDefault:"http://127.0.0.1:8080"`
	APIToken       string        `env:"AGENT_API_TOKEN"`
	DeviceID       string        `env:"AGENT_DEVICE_ID"`
	SyncInterval   time.Duration `env:"AGENT_SYNC_INTERVAL" envDefault:"30s"`
	Retention      time.Duration `env:"AGENT_RETENTION" envDefault:"168h"`
	ProbeInterval  time.Duration `env:"AGENT_PROBE_INTERVAL" envDefault:"10s"`
	RequestTimeout time.Duration `env:"AGENT_REQUEST_TIMEOUT" envDefault:"15s"`
	RemoteRPS      float64       `env:"AGENT_REMOTE_RPS" envDefault:"5"`
	StartOnline    bool          `env:"AGENT_START_ONLINE" envDefault:"false"`
}

// Load reads the API configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := parse(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects the development JWT secret in production.
func (c Config) Validate() error {
	if c.Env == "production" && c.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production environment")
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive, got %s", c.JWTExpiry)
	}
	return nil
}

// LoadAgent reads the agent configuration from the environment.
func LoadAgent() (AgentConfig, error) {
	var cfg AgentConfig
	if err := parse(&cfg); err != nil {
		return AgentConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AgentConfig{}, err
	}
	return cfg, nil
}

// Validate checks the agent settings that have no usable zero value.
func (c AgentConfig) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("AGENT_DB_PATH is required")
	}
	if c.RemoteURL == "" {
		return fmt.Errorf("AGENT_REMOTE_URL is required")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("AGENT_SYNC_INTERVAL must be positive, got %s", c.SyncInterval)
	}
	if c.Retention < 7*24*time.Hour {
		return fmt.Errorf("AGENT_RETENTION must be at least 168h, got %s", c.Retention)
	}
	if c.RemoteRPS <= 0 {
		return fmt.Errorf("AGENT_REMOTE_RPS must be positive")
	}
	return nil
}

func parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
