package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minHS512Key = 64

// Symmetric signs and verifies HS512 tokens with a shared secret.
type Symmetric struct {
	secret      []byte
	issuer      string
	audiences   []string
	ttl         time.Duration
	elevatedTTL time.Duration
	clock       clocker
	uuid        generator
	parser      *libJWT.Parser
}

// NewHS512 builds a Symmetric from cfg. The secret must be at least 64 bytes.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512Key {
		return nil, ErrSigningKeyTooShort
	}

	elevated := cfg.ElevatedTTL
	if elevated <= 0 {
		elevated = cfg.TTL
	}

	return &Symmetric{
		secret:      cfg.Secret,
		issuer:      cfg.Issuer,
		audiences:   cfg.Audiences,
		ttl:         cfg.TTL,
		elevatedTTL: elevated,
		clock:       cfg.Clock,
		uuid:        cfg.UUID,
		parser: libJWT.NewParser(
			libJWT.WithIssuer(cfg.Issuer),
			libJWT.WithAudience(cfg.Audiences...),
			libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
			libJWT.WithIssuedAt(),
			libJWT.WithExpirationRequired(),
			libJWT.WithTimeFunc(cfg.Clock.Now),
		),
	}, nil
}

// Generate signs a token for uid. Passing amr marks it as elevated.
func (s *Symmetric) Generate(uid int64, email string, amr ...string) (string, error) {
	now := s.clock.Now()
	ttl := s.ttl
	if len(amr) > 0 {
		ttl = s.elevatedTTL
	}

	clm := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(ttl)),
		},
		UserID:    uid,
		UserEmail: email,
		AMR:       amr,
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, clm).SignedString(s.secret)
}

// Verify checks signature, issuer, audience and lifetime. Expired tokens
// return ErrTokenExpired; every other failure returns ErrInvalidToken.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var clm Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &clm, func(t *libJWT.Token) (any, error) {
		if _, ok := t.Method.(*libJWT.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil, !token.Valid:
		return Claims{}, ErrInvalidToken
	}

	if strconv.FormatInt(clm.UserID, 10) != clm.Subject {
		return Claims{}, ErrInvalidToken
	}

	return clm, nil
}
