package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Event   EventConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string `envconfig:"PORT" default:"8080"`
	Host           string `envconfig:"HOST" default:"0.0.0.0"`
	Env            string `envconfig:"ENV" default:"development"` // "development" or "production"
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"1048576"`
}

// EventConfig holds draw and grouping parameters
type EventConfig struct {
	SpinDuration      time.Duration `envconfig:"SPIN_DURATION" default:"2500ms"`
	SpinInitialDelay  time.Duration `envconfig:"SPIN_INITIAL_DELAY" default:"50ms"`
	SpinSlowdownStep  time.Duration `envconfig:"SPIN_SLOWDOWN_STEP" default:"15ms"`
	GroupingDelay     time.Duration `envconfig:"GROUPING_DELAY" default:"600ms"`
	DefaultGroupSize  int           `envconfig:"DEFAULT_GROUP_SIZE" default:"3"`
	MaxParticipants   int           `envconfig:"MAX_PARTICIPANTS" default:"5000"`
	StaleEventTimeout time.Duration `envconfig:"STALE_EVENT_TIMEOUT" default:"2h"`
	EventCodeLength   int           `envconfig:"EVENT_CODE_LENGTH" default:"6"`
	DefaultLocale     string        `envconfig:"DEFAULT_LOCALE" default:"zh-TW"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"` // "json" or "text"
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Event.SpinDuration <= 0 || c.Event.SpinInitialDelay <= 0 {
		return fmt.Errorf("SPIN_DURATION and SPIN_INITIAL_DELAY must be positive")
	}
	if c.Event.DefaultGroupSize < 2 {
		return fmt.Errorf("DEFAULT_GROUP_SIZE must be at least 2, got %d", c.Event.DefaultGroupSize)
	}
	if c.Event.EventCodeLength < 4 {
		return fmt.Errorf("EVENT_CODE_LENGTH must be at least 4, got %d", c.Event.EventCodeLength)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}
