package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config with env tags. Only variables that are actually
// set override previously loaded values.
type envConfig struct {
	EndpointAddr          string         `env:"ADDRESS"`
	DatabaseDSN           string         `env:"DATABASE_DSN"`
	SecretKey             string         `env:"SECRET_KEY"`
	TokenValidityDuration *time.Duration `env:"TOKEN_VALIDITY_DURATION"`
}

// parseEnv overlays configuration values from environment variables.
func parseEnv(config *Config) {
	c := envConfig{}
	if err := env.Parse(&c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = *c.TokenValidityDuration
	}
}
