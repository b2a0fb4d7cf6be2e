package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/auth/jwt"
	"github.com/kbukum/shoplist/auth/password"
)

// TokenGenerator produces new access token strings.
type TokenGenerator interface {
	GenerateToken(userID, clientID uuid.UUID) (string, error)
}

// TokenGeneratorFunc adapts a function to TokenGenerator.
type TokenGeneratorFunc func(userID, clientID uuid.UUID) (string, error)

func (f TokenGeneratorFunc) GenerateToken(userID, clientID uuid.UUID) (string, error) {
	return f(userID, clientID)
}

// OpaqueGenerator returns random hex tokens of n bytes of entropy.
func OpaqueGenerator(n int) TokenGenerator {
	return TokenGeneratorFunc(func(uuid.UUID, uuid.UUID) (string, error) {
		return password.GenerateToken(n)
	})
}

// AccessClaims are the claims of JWT-formatted access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	ClientID string `json:"cid,omitempty"`
}

// Stamp implements jwt.Stampable.
func (c *AccessClaims) Stamp(now time.Time, ttl time.Duration, issuer, audience string) {
	c.IssuedAt = jwt.NewNumericDate(now)
	c.NotBefore = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	c.Issuer = issuer
	if audience != "" {
		c.Audience = []string{audience}
	}
}

// JWTGenerator signs a fresh AccessClaims per token. The jti makes every
// token unique even within the same second.
type JWTGenerator struct {
	svc *jwt.Service[*AccessClaims]
}

// NewJWTGenerator returns a generator signing with cfg.
func NewJWTGenerator(cfg jwt.Config) (*JWTGenerator, error) {
	svc, err := jwt.NewService(cfg, func() *AccessClaims { return &AccessClaims{} })
	if err != nil {
		return nil, err
	}
	return &JWTGenerator{svc: svc}, nil
}

func (g *JWTGenerator) GenerateToken(userID, clientID uuid.UUID) (string, error) {
	claims := &AccessClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: userID.String(),
		ID:      uuid.NewString(),
	}}
	if clientID != uuid.Nil {
		claims.ClientID = clientID.String()
	}
	return g.svc.Generate(claims)
}

// Parse verifies a token produced by GenerateToken.
func (g *JWTGenerator) Parse(token string) (*AccessClaims, error) {
	return g.svc.Parse(token)
}

// NewTokenGenerator returns the generator selected by cfg.
func NewTokenGenerator(cfg Config) (TokenGenerator, error) {
	if cfg.TokenFormat == TokenFormatJWT && cfg.JWT != nil {
		return NewJWTGenerator(*cfg.JWT)
	}
	return OpaqueGenerator(cfg.TokenBytes), nil
}
