// Package jwt signs and parses HMAC JSON Web Tokens for a caller-defined
// claims type.
//
//	svc, err := jwt.NewService(cfg, func() *Claims { return &Claims{} })
//	token, err := svc.Generate(&Claims{...})
//	claims, err := svc.Parse(token)
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// RegisteredClaims re-exports the standard claim set for embedding.
type RegisteredClaims = gojwt.RegisteredClaims

// NewNumericDate re-exports the numeric date constructor.
func NewNumericDate(t time.Time) *gojwt.NumericDate { return gojwt.NewNumericDate(t) }

// Stampable claims accept iss, aud, iat and exp from the service.
type Stampable interface {
	Stamp(now time.Time, ttl time.Duration, issuer, audience string)
}

// Service signs and parses claims of type T.
type Service[T gojwt.Claims] struct {
	cfg      Config
	newEmpty func() T
	now      func() time.Time
}

// NewService validates cfg and returns a Service. newEmpty returns a fresh
// T to parse into.
func NewService[T gojwt.Claims](cfg Config, newEmpty func() T) (*Service[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service[T]{cfg: cfg, newEmpty: newEmpty, now: time.Now}, nil
}

// Generate stamps claims when they implement Stampable and signs them.
func (s *Service[T]) Generate(claims T) (string, error) {
	if st, ok := any(claims).(Stampable); ok {
		st.Stamp(s.now(), s.cfg.TTL, s.cfg.Issuer, s.cfg.Audience)
	}
	signed, err := gojwt.NewWithClaims(s.cfg.signingMethod(), claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, expiry, issuer and audience of token.
func (s *Service[T]) Parse(token string) (T, error) {
	var zero T
	claims := s.newEmpty()
	parsed, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, s.parserOptions()...)
	if err != nil {
		return zero, fmt.Errorf("jwt: parse token: %w", err)
	}
	if !parsed.Valid {
		return zero, errors.New("jwt: invalid token")
	}
	out, ok := parsed.Claims.(T)
	if !ok {
		return zero, errors.New("jwt: unexpected claims type")
	}
	return out, nil
}

func (s *Service[T]) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.cfg.signingMethod().Alg()}),
		gojwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(s.cfg.Audience))
	}
	return opts
}
