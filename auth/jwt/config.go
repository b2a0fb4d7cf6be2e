package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod names an HMAC signing algorithm.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// Config configures signed access tokens. Tokens are still stored and
// looked up as opaque strings; the signature only makes them
// self-describing, so a shared secret is all that is needed.
type Config struct {
	Secret   string        `mapstructure:"secret"`
	Method   SigningMethod `mapstructure:"method"`
	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	// TTL sets the exp claim. It should match the access token TTL.
	TTL time.Duration `mapstructure:"ttl"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.TTL == 0 {
		c.TTL = 10 * time.Minute
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.signingMethod() == nil {
		return errors.New("jwt: unsupported signing method: " + string(c.Method))
	}
	if len(c.Secret) < 32 {
		return errors.New("jwt: secret must be at least 32 bytes")
	}
	return nil
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS256:
		return gojwt.SigningMethodHS256
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return nil
	}
}
