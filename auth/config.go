package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/shoplist/auth/jwt"
	"github.com/kbukum/shoplist/auth/password"
)

// TokenFormat selects how access token strings are generated.
type TokenFormat string

const (
	// TokenFormatOpaque issues random hex strings.
	TokenFormatOpaque TokenFormat = "opaque"
	// TokenFormatJWT issues signed JWTs. They are still stored and looked up
	// like opaque tokens, so revocation keeps working.
	TokenFormatJWT TokenFormat = "jwt"
)

// Config holds authentication configuration. TokenBytes is the entropy of
// opaque tokens and authorization codes. SweepInterval paces the purge of
// expired tokens on backends without native expiry. JWT is a pointer so it
// is only defaulted and validated when configured.
type Config struct {
	Realm                string          `mapstructure:"realm"`
	TokenFormat          TokenFormat     `mapstructure:"token_format"`
	TokenBytes           int             `mapstructure:"token_bytes"`
	AccessTokenTTL       time.Duration   `mapstructure:"access_token_ttl"`
	AuthorizationCodeTTL time.Duration   `mapstructure:"authorization_code_ttl"`
	SweepInterval        time.Duration   `mapstructure:"sweep_interval"`
	Password             password.Config `mapstructure:"password"`
	JWT                  *jwt.Config     `mapstructure:"jwt"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Realm == "" {
		c.Realm = DefaultRealm
	}
	if c.TokenFormat == "" {
		c.TokenFormat = TokenFormatOpaque
	}
	if c.TokenBytes == 0 {
		c.TokenBytes = 32
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 10 * time.Minute
	}
	if c.AuthorizationCodeTTL == 0 {
		c.AuthorizationCodeTTL = 10 * time.Minute
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Minute
	}
	c.Password.ApplyDefaults()
	if c.JWT != nil {
		if c.JWT.TTL == 0 {
			c.JWT.TTL = c.AccessTokenTTL
		}
		c.JWT.ApplyDefaults()
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.TokenFormat {
	case TokenFormatOpaque:
	case TokenFormatJWT:
		if c.JWT == nil {
			return errors.New("auth: token_format jwt requires a jwt section")
		}
	default:
		return fmt.Errorf("auth: unknown token_format %q", c.TokenFormat)
	}
	if c.TokenBytes < 16 {
		return fmt.Errorf("auth: token_bytes must be at least 16, got %d", c.TokenBytes)
	}
	if c.AccessTokenTTL <= 0 || c.AuthorizationCodeTTL <= 0 {
		return errors.New("auth: token TTLs must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("auth: sweep_interval must be positive")
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("auth.password: %w", err)
	}
	if c.JWT != nil {
		if err := c.JWT.Validate(); err != nil {
			return fmt.Errorf("auth.jwt: %w", err)
		}
	}
	return nil
}

// Describe returns a one-liner for the startup summary, e.g.
// "tokens=opaque ttl=10m0s password=argon2id".
func (c *Config) Describe() string {
	line := fmt.Sprintf("tokens=%s ttl=%s code_ttl=%s password=%s",
		c.TokenFormat, c.AccessTokenTTL, c.AuthorizationCodeTTL, c.Password.Algorithm)
	if c.TokenFormat == TokenFormatJWT && c.JWT != nil {
		line += fmt.Sprintf(" jwt=%s", c.JWT.Method)
	}
	return line
}
