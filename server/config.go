package server

import (
	"fmt"

	"github.com/kbukum/shoplist/server/middleware"
)

// Config holds HTTP server configuration. Timeouts are in seconds.
type Config struct {
	Host            string                `yaml:"host" mapstructure:"host"`
	Port            int                   `yaml:"port" mapstructure:"port"`
	ReadTimeout     int                   `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    int                   `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout int                   `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodySize     string                `yaml:"max_body_size" mapstructure:"max_body_size"` // e.g. "1MB"
	CORS            middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	// CredentialRateLimit caps requests per minute and client IP on the
	// registration, token and OAuth2 endpoints, counted before
	// authentication. Zero disables it.
	CredentialRateLimit int `yaml:"credential_rate_limit" mapstructure:"credential_rate_limit"`
}

// ApplyDefaults sets defaults for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	for name, v := range map[string]int{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"idle_timeout":     c.IdleTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if v < 0 {
			return fmt.Errorf("server.%s must be non-negative (got: %d)", name, v)
		}
	}
	if c.CredentialRateLimit < 0 {
		return fmt.Errorf("server.credential_rate_limit must be non-negative (got: %d)", c.CredentialRateLimit)
	}
	return nil
}
