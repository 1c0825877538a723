// Package security hashes admin passwords with Argon2id in the PHC string
// format ($argon2id$v=19$m=..,t=..,p=..$salt$key).
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
)

var (
	ErrInvalidHash   = errors.New("invalid argon2id hash")
	ErrEmptyPassword = errors.New("password cannot be empty")
)

// Params are the Argon2id costs. Salt and key lengths are in bytes.
type Params struct {
	MemoryKB uint32
	Passes   uint32
	Threads  uint8
	SaltLen  uint32
	KeyLen   uint32
}

// Hasher hashes with fixed costs and verifies hashes made with any costs.
type Hasher struct {
	params Params
}

// NewHasher clamps cfg into safe bounds.
func NewHasher(cfg config.PasswordConfig) *Hasher {
	return &Hasher{params: Params{
		MemoryKB: uint32(clamp(cfg.ArgonMemoryKB, 1024, 1<<20)),
		Passes:   uint32(clamp(cfg.ArgonTime, 1, 10)),
		Threads:  uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:  uint32(clamp(cfg.ArgonSaltLen, 16, 64)),
		KeyLen:   uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}}
}

func (h *Hasher) Params() Params { return h.params }

func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	p := h.params
	key := argon2.IDKey([]byte(password), salt, p.Passes, p.MemoryKB, p.Threads, p.KeyLen)
	return encode(p, salt, key), nil
}

// Verification is the result of checking a password. Stale is set on a match
// whose stored costs differ from the hasher's, so the caller can re-hash.
type Verification struct {
	Match bool
	Stale bool
}

func (h *Hasher) Verify(password, encoded string) (Verification, error) {
	p, salt, want, err := decode(encoded)
	if err != nil {
		return Verification{}, err
	}
	got := argon2.IDKey([]byte(password), salt, p.Passes, p.MemoryKB, p.Threads, p.KeyLen)
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return Verification{}, nil
	}
	return Verification{Match: true, Stale: p != h.params}, nil
}

func encode(p Params, salt, key []byte) string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKB, p.Passes, p.Threads, b64.EncodeToString(salt), b64.EncodeToString(key))
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, ErrInvalidHash
	}
	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKB, &p.Passes, &p.Threads); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if p.MemoryKB == 0 || p.Passes == 0 || p.Threads == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	p.SaltLen, p.KeyLen = uint32(len(salt)), uint32(len(key))
	return p, salt, key, nil
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
