package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
)

var (
	signingMethod = jwt.SigningMethodHS256

	ErrUnknownKey = errors.New("token signed with an unknown key")
)

type signingKey struct {
	id     string
	secret []byte
}

func newSigningKey(secret string) signingKey {
	sum := sha256.Sum256([]byte(secret))
	return signingKey{id: hex.EncodeToString(sum[:4]), secret: []byte(secret)}
}

// Signer mints and verifies admin access tokens. Tokens carry a kid header
// derived from the secret so a previous secret keeps verifying while tokens
// signed with it are still alive.
type Signer struct {
	current  signingKey
	previous *signingKey
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
}

func NewSigner(cfg config.JWTConfig) (*Signer, error) {
	switch {
	case cfg.Secret == "":
		return nil, fmt.Errorf("jwt secret is required")
	case cfg.Issuer == "":
		return nil, fmt.Errorf("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return nil, fmt.Errorf("jwt expiration minutes must be positive")
	}
	s := &Signer{
		current:  newSigningKey(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: strings.TrimSpace(cfg.Audience),
		ttl:      cfg.AccessTokenTTL(),
		leeway:   max(cfg.Leeway, 0),
	}
	if cfg.PreviousSecret != "" && cfg.PreviousSecret != cfg.Secret {
		prev := newSigningKey(cfg.PreviousSecret)
		s.previous = &prev
	}
	return s, nil
}

// Mint signs a token for payload and returns it with its expiry.
func (s *Signer) Mint(now time.Time, payload AccessTokenPayload) (string, time.Time, error) {
	if payload.UserID == uuid.Nil {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}
	if !payload.Role.IsValid() {
		return "", time.Time{}, fmt.Errorf("invalid role %q", payload.Role)
	}
	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	expires := now.Add(s.ttl)

	registered := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   payload.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        jti,
	}
	if s.audience != "" {
		registered.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(signingMethod, AccessTokenClaims{
		UserID:           payload.UserID,
		Email:            payload.Email,
		Role:             payload.Role,
		RegisteredClaims: registered,
	})
	token.Header["kid"] = s.current.id

	signed, err := token.SignedString(s.current.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing jwt: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies signature, issuer, audience and lifetime.
func (s *Signer) Parse(raw string) (*AccessTokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	claims := &AccessTokenClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, s.keyFor, opts...); err != nil {
		return nil, err
	}
	if claims.UserID == uuid.Nil || claims.Subject != claims.UserID.String() {
		return nil, fmt.Errorf("token subject does not match user id")
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", claims.Role)
	}
	return claims, nil
}

func (s *Signer) keyFor(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	switch {
	case kid == "" || kid == s.current.id:
		return s.current.secret, nil
	case s.previous != nil && kid == s.previous.id:
		return s.previous.secret, nil
	}
	return nil, ErrUnknownKey
}

// MintAccessToken is a one-shot Mint for callers without a long-lived Signer.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	s, err := NewSigner(cfg)
	if err != nil {
		return "", err
	}
	token, _, err := s.Mint(now, payload)
	return token, err
}

func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	s, err := NewSigner(cfg)
	if err != nil {
		return nil, err
	}
	return s.Parse(raw)
}
