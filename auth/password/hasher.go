// Package password hashes user passwords and client secrets with a
// caller-supplied salt.
//
// The salt is stored next to the hash, so Hash is a pure function of
// (secret, salt) and the same hasher verifies what it produced:
//
//	salt, _ := h.NewSalt()
//	stored := h.Hash("s3cret-pass", salt)
//	ok := h.Verify("s3cret-pass", salt, stored)
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// SaltLength is the size of salts returned by NewSalt.
const SaltLength = 16

// Hasher derives a storable hash from a secret and salt.
type Hasher interface {
	// Hash is deterministic for a fixed (secret, salt) pair.
	Hash(secret string, salt []byte) string
	// NewSalt returns SaltLength fresh random bytes.
	NewSalt() ([]byte, error)
	// Verify reports whether secret hashed with salt equals hash.
	Verify(secret string, salt []byte, hash string) bool
}

func encode(key []byte) string {
	return base64.RawStdEncoding.EncodeToString(key)
}

func verify(h Hasher, secret string, salt []byte, hash string) bool {
	if hash == "" || len(salt) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.Hash(secret, salt)), []byte(hash)) == 1
}

func newSalt() ([]byte, error) {
	salt, err := generateRandomBytes(SaltLength)
	if err != nil {
		return nil, fmt.Errorf("password: generate salt: %w", err)
	}
	return salt, nil
}

// --- Argon2id ---

// Argon2Hasher derives keys with argon2id.
type Argon2Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
}

// Argon2Option configures an Argon2Hasher.
type Argon2Option func(*Argon2Hasher)

// WithArgon2Time sets the number of passes (default 1).
func WithArgon2Time(t uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.time = t }
}

// WithArgon2Memory sets memory in KiB (default 64 MiB).
func WithArgon2Memory(m uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.memory = m }
}

// WithArgon2Threads sets the parallelism (default 4).
func WithArgon2Threads(t uint8) Argon2Option {
	return func(h *Argon2Hasher) { h.threads = t }
}

// NewArgon2Hasher returns an argon2id hasher with OWASP baseline parameters.
func NewArgon2Hasher(opts ...Argon2Option) *Argon2Hasher {
	h := &Argon2Hasher{time: 1, memory: 64 * 1024, threads: 4, keyLen: 32}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Argon2Hasher) Hash(secret string, salt []byte) string {
	return encode(argon2.IDKey([]byte(secret), salt, h.time, h.memory, h.threads, h.keyLen))
}

func (h *Argon2Hasher) NewSalt() ([]byte, error) { return newSalt() }

func (h *Argon2Hasher) Verify(secret string, salt []byte, hash string) bool {
	return verify(h, secret, salt, hash)
}

// --- PBKDF2 ---

// PBKDF2Hasher derives keys with PBKDF2-HMAC-SHA256.
type PBKDF2Hasher struct {
	iterations int
	keyLen     int
}

// NewPBKDF2Hasher returns a PBKDF2-SHA256 hasher. iterations <= 0 selects
// 600000.
func NewPBKDF2Hasher(iterations int) *PBKDF2Hasher {
	if iterations <= 0 {
		iterations = 600_000
	}
	return &PBKDF2Hasher{iterations: iterations, keyLen: 32}
}

func (h *PBKDF2Hasher) Hash(secret string, salt []byte) string {
	return encode(pbkdf2.Key([]byte(secret), salt, h.iterations, h.keyLen, sha256.New))
}

func (h *PBKDF2Hasher) NewSalt() ([]byte, error) { return newSalt() }

func (h *PBKDF2Hasher) Verify(secret string, salt []byte, hash string) bool {
	return verify(h, secret, salt, hash)
}
