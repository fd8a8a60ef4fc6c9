// Package auth holds the credential primitives: password hashing and the
// signed, time-bounded bearer token codec.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IdentityClaims are the identity facts embedded in a token.
type IdentityClaims struct {
	SubjectID int64
	Email     string
	FirstName string
	LastName  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// tokenClaims is the JWT payload layout.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// CodecConfig is read once at startup and never mutated afterwards.
type CodecConfig struct {
	Secret    []byte
	TTL       time.Duration
	ClockSkew time.Duration
	Issuer    string
}

// Codec issues and verifies HS256 JWTs. It keeps no record of issued
// tokens, so a token cannot be revoked before it expires.
type Codec struct {
	cfg    CodecConfig
	now    func() time.Time
	method *jwt.SigningMethodHMAC
	parser *jwt.Parser
}

type CodecOption func(*Codec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

func NewCodec(cfg CodecConfig, opts ...CodecOption) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TTL)
	}
	if cfg.ClockSkew < 0 {
		return nil, fmt.Errorf("clock skew must not be negative, got %s", cfg.ClockSkew)
	}

	c := &Codec{cfg: cfg, now: time.Now, method: jwt.SigningMethodHS256}
	for _, o := range opts {
		o(c)
	}

	// Time-based claims are checked by checkClaims: the parser would reject a
	// token at the exact instant of exp, which is still valid here.
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	return c, nil
}

// TTL is the validity period of issued tokens.
func (c *Codec) TTL() time.Duration { return c.cfg.TTL }

// Issue signs claims with a fresh issued-at, expiry and token id and returns
// the token together with the claims as embedded.
func (c *Codec) Issue(claims IdentityClaims) (string, IdentityClaims, error) {
	now := c.now().Truncate(time.Second)

	claims.IssuedAt = now
	claims.ExpiresAt = now.Add(c.cfg.TTL)
	claims.TokenID = uuid.NewString()

	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   strconv.FormatInt(claims.SubjectID, 10),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			ID:        claims.TokenID,
		},
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}

	s, err := jwt.NewWithClaims(c.method, tc).SignedString(c.cfg.Secret)
	if err != nil {
		return "", IdentityClaims{}, fmt.Errorf("sign token: %w", err)
	}
	return s, claims, nil
}

func reject(reason error) error {
	return fmt.Errorf("%w: %w", common.ErrInvalidToken, reason)
}

// Verify checks structure, then the signature over the raw header and
// payload, then the claims. Every rejection wraps common.ErrInvalidToken
// together with one of ErrTokenMalformed, ErrTokenSignature or
// ErrTokenExpired.
func (c *Codec) Verify(token string) (IdentityClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return IdentityClaims{}, reject(common.ErrTokenMalformed)
	}

	sig, err := c.parser.DecodeSegment(parts[2])
	if err != nil {
		return IdentityClaims{}, reject(common.ErrTokenMalformed)
	}

	// hmac.Equal under the hood, so the comparison is constant time.
	if err := c.method.Verify(parts[0]+"."+parts[1], sig, c.cfg.Secret); err != nil {
		return IdentityClaims{}, reject(common.ErrTokenSignature)
	}

	tc := &tokenClaims{}
	_, err = c.parser.ParseWithClaims(token, tc, func(*jwt.Token) (any, error) {
		return c.cfg.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return IdentityClaims{}, reject(common.ErrTokenSignature)
		default:
			return IdentityClaims{}, reject(common.ErrTokenMalformed)
		}
	}

	if err := c.checkClaims(tc); err != nil {
		return IdentityClaims{}, err
	}

	id, err := strconv.ParseInt(tc.Subject, 10, 64)
	if err != nil {
		return IdentityClaims{}, reject(common.ErrTokenMalformed)
	}

	claims := IdentityClaims{
		SubjectID: id,
		Email:     tc.Email,
		FirstName: tc.FirstName,
		LastName:  tc.LastName,
		TokenID:   tc.ID,
		ExpiresAt: tc.ExpiresAt.Time,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	return claims, nil
}

// checkClaims requires exp and the configured issuer. A token is expired
// only once now is past exp plus the clock skew; iat may not lie further in
// the future than the skew.
func (c *Codec) checkClaims(tc *tokenClaims) error {
	now := c.now()

	if tc.ExpiresAt == nil {
		return reject(common.ErrTokenMalformed)
	}
	if c.cfg.Issuer != "" && tc.Issuer != c.cfg.Issuer {
		return reject(common.ErrTokenMalformed)
	}
	if tc.IssuedAt != nil && tc.IssuedAt.Time.After(now.Add(c.cfg.ClockSkew)) {
		return reject(common.ErrTokenMalformed)
	}
	if now.After(tc.ExpiresAt.Time.Add(c.cfg.ClockSkew)) {
		return reject(common.ErrTokenExpired)
	}
	return nil
}

// RejectionReason extracts the specific reason from a Verify error, for
// logging only.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrTokenSignature):
		return "bad_signature"
	case errors.Is(err, common.ErrTokenMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}
