package password

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMinLength is the minimum user password length when unset.
const DefaultMinLength = 8

// Algorithm names a key derivation function.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmPBKDF2   Algorithm = "pbkdf2-sha256"
)

// Config selects and tunes the hasher. Loadable via mapstructure tags.
type Config struct {
	Algorithm        Algorithm `mapstructure:"algorithm"`
	Argon2Time       uint32    `mapstructure:"argon2_time"`
	Argon2Memory     uint32    `mapstructure:"argon2_memory"`
	Argon2Threads    uint8     `mapstructure:"argon2_threads"`
	PBKDF2Iterations int       `mapstructure:"pbkdf2_iterations"`
	// MinLength applies to user passwords only; client secrets are
	// generated and just need to be non-blank.
	MinLength int `mapstructure:"min_length"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmArgon2id
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 1
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 64 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 4
	}
	if c.PBKDF2Iterations == 0 {
		c.PBKDF2Iterations = 600_000
	}
	if c.MinLength == 0 {
		c.MinLength = DefaultMinLength
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmArgon2id, AlgorithmPBKDF2:
	default:
		return fmt.Errorf("unsupported algorithm: %s (use argon2id or pbkdf2-sha256)", c.Algorithm)
	}
	if c.MinLength < 1 {
		return fmt.Errorf("min_length must be >= 1 (got: %d)", c.MinLength)
	}
	return nil
}

// NewHasher builds the configured Hasher.
func NewHasher(cfg Config) Hasher {
	cfg.ApplyDefaults()
	if cfg.Algorithm == AlgorithmPBKDF2 {
		return NewPBKDF2Hasher(cfg.PBKDF2Iterations)
	}
	return NewArgon2Hasher(
		WithArgon2Time(cfg.Argon2Time),
		WithArgon2Memory(cfg.Argon2Memory),
		WithArgon2Threads(cfg.Argon2Threads),
	)
}

var (
	ErrBlank    = errors.New("password: must not be blank")
	ErrTooShort = errors.New("password: too short")
)

// Policy checks user-chosen passwords.
type Policy struct {
	MinLength int
}

// Policy returns the password policy of the configuration.
func (c Config) Policy() Policy {
	return Policy{MinLength: c.MinLength}
}

// Check returns ErrBlank or a wrapped ErrTooShort for unacceptable passwords.
func (p Policy) Check(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return ErrBlank
	}
	if len(secret) < p.MinLength {
		return fmt.Errorf("%w: minimum length is %d characters", ErrTooShort, p.MinLength)
	}
	return nil
}
