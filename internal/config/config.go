package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	APIPort            int    `env:"API_PORT,default=8080"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
	GCMAPIKey          string `env:"GCM_API_KEY"`
	ShutdownTimeoutSec int    `env:"SHUTDOWN_TIMEOUT_SEC,default=10"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("invalid config: API_PORT must be between 1 and 65535 (got %d)", c.APIPort)
	}
	if c.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("invalid config: SHUTDOWN_TIMEOUT_SEC must be positive (got %d)", c.ShutdownTimeoutSec)
	}
	return nil
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}
