package app

import (
	"fmt"

	"github.com/kbukum/shoplist/auth"
	"github.com/kbukum/shoplist/config"
	"github.com/kbukum/shoplist/database"
	"github.com/kbukum/shoplist/observability"
	"github.com/kbukum/shoplist/redis"
	"github.com/kbukum/shoplist/server"
	"github.com/kbukum/shoplist/version"
)

// ServiceName keys the config file lookup and the environment prefix.
const ServiceName = "shoplist"

// Token store backends.
const (
	TokenStoreMemory = "memory"
	TokenStoreSQL    = "sql"
	TokenStoreRedis  = "redis"
)

// Config is the shoplistd configuration.
//
//	name: shoplist
//	token_store: redis
//	database:
//	  enabled: true
//	  driver: postgres
//	  dsn: postgres://shoplist@localhost:5432/shoplist
//	redis:
//	  enabled: true
//	  addr: localhost:6379
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`

	// TokenStore selects where access tokens and authorization codes live.
	// Empty picks sql when the database is enabled, memory otherwise.
	TokenStore string `yaml:"token_store" mapstructure:"token_store"`
}

// GetServiceConfig returns the embedded base configuration.
func (c *Config) GetServiceConfig() *config.ServiceConfig { return &c.ServiceConfig }

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Observability.ApplyDefaults()
	if c.TokenStore == "" {
		c.TokenStore = TokenStoreMemory
		if c.Database.Enabled {
			c.TokenStore = TokenStoreSQL
		}
	}
}

// Validate checks every section and the token store selection.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if c.Database.Enabled {
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if c.Redis.Enabled {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}

	switch c.TokenStore {
	case TokenStoreMemory:
	case TokenStoreSQL:
		if !c.Database.Enabled {
			return fmt.Errorf("token_store %q requires database.enabled", c.TokenStore)
		}
	case TokenStoreRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("token_store %q requires redis.enabled", c.TokenStore)
		}
	default:
		return fmt.Errorf("token_store must be one of memory, sql or redis (got: %s)", c.TokenStore)
	}
	return nil
}

// LoadConfig reads the configuration from file, .env and environment
// (SHOPLIST_*), then applies defaults and validates it.
func LoadConfig(opts ...config.LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}
