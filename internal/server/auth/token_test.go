package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCodec(t *testing.T, secret string, skew time.Duration) (*Codec, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: epoch}
	c, err := NewCodec(CodecConfig{
		Secret:    []byte(secret),
		TTL:       time.Hour,
		ClockSkew: skew,
		Issuer:    "gophauth",
	}, WithClock(clk.Now))
	require.NoError(t, err)
	return c, clk
}

func alice() IdentityClaims {
	return IdentityClaims{SubjectID: 7, Email: "alice@example.com", FirstName: "Alice", LastName: "Liddell"}
}

func TestNewCodec_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewCodec(CodecConfig{TTL: time.Hour})
	assert.Error(t, err, "empty secret")

	_, err = NewCodec(CodecConfig{Secret: []byte("k")})
	assert.Error(t, err, "zero ttl")

	_, err = NewCodec(CodecConfig{Secret: []byte("k"), TTL: time.Hour, ClockSkew: -time.Second})
	assert.Error(t, err, "negative skew")
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t, "super-secret", 0)

	tok, issued, err := c.Issue(alice())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(tok, "."))
	assert.NotEmpty(t, issued.TokenID)
	assert.True(t, issued.IssuedAt.Equal(epoch))
	assert.True(t, issued.ExpiresAt.Equal(epoch.Add(time.Hour)))

	clk.Advance(59 * time.Minute)

	got, err := c.Verify(tok)
	require.NoError(t, err)
	if diff := cmp.Diff(issued, got); diff != "" {
		t.Fatalf("claims mismatch (-issued +verified):\n%s", diff)
	}
}

func TestIssue_FreshTokenIDs(t *testing.T) {
	t.Parallel()
	c, _ := newTestCodec(t, "k", 0)

	_, a, err := c.Issue(alice())
	require.NoError(t, err)
	_, b, err := c.Issue(alice())
	require.NoError(t, err)
	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t, "k", 0)

	tok, _, err := c.Issue(alice())
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = c.Verify(tok)
	require.NoError(t, err, "still valid at the exp instant")

	clk.Advance(time.Nanosecond)
	_, err = c.Verify(tok)
	require.ErrorIs(t, err, common.ErrTokenExpired)

	clk.Advance(time.Second)
	_, err = c.Verify(tok)
	require.ErrorIs(t, err, common.ErrTokenExpired)
	require.ErrorIs(t, err, common.ErrInvalidToken)
	assert.Equal(t, "expired", RejectionReason(err))
}

func TestVerify_ClockSkewTolerance(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t, "k", 30*time.Second)

	tok, _, err := c.Issue(alice())
	require.NoError(t, err)

	clk.Advance(time.Hour + 10*time.Second)
	_, err = c.Verify(tok)
	require.NoError(t, err, "within skew")

	clk.Advance(20 * time.Second)
	_, err = c.Verify(tok)
	require.NoError(t, err, "exactly exp plus skew")

	clk.Advance(time.Second)
	_, err = c.Verify(tok)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerify_AnyAlteredPayloadByteIsSignatureRejection(t *testing.T) {
	t.Parallel()
	c, _ := newTestCodec(t, "k", 0)

	tok, _, err := c.Issue(alice())
	require.NoError(t, err)
	parts := strings.Split(tok, ".")

	for i := range parts[1] {
		b := []byte(parts[1])
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		tampered := parts[0] + "." + string(b) + "." + parts[2]

		_, err := c.Verify(tampered)
		if !errors.Is(err, common.ErrTokenSignature) {
			t.Fatalf("byte %d: want signature rejection, got %v", i, err)
		}
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()
	issuer, _ := newTestCodec(t, "right-secret", 0)
	verifier, _ := newTestCodec(t, "wrong-secret", 0)

	tok, _, err := issuer.Issue(alice())
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	require.ErrorIs(t, err, common.ErrTokenSignature)
	assert.Equal(t, "bad_signature", RejectionReason(err))
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()
	c, _ := newTestCodec(t, "k", 0)

	for _, tok := range []string{"", "not-a-jwt", "a.b", "a.b.c.d", "a.b.!!!"} {
		_, err := c.Verify(tok)
		if !errors.Is(err, common.ErrTokenMalformed) {
			t.Fatalf("%q: want malformed, got %v", tok, err)
		}
		if !errors.Is(err, common.ErrInvalidToken) {
			t.Fatalf("%q: must wrap ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestVerify_SignedButInvalidClaims(t *testing.T) {
	t.Parallel()
	c, _ := newTestCodec(t, "k", 0)

	sign := func(claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		require.NoError(t, err)
		return s
	}

	noExp := sign(jwt.RegisteredClaims{Issuer: "gophauth", Subject: "7"})
	otherIssuer := sign(jwt.RegisteredClaims{Issuer: "someone-else", Subject: "7", ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour))})
	futureIat := sign(jwt.RegisteredClaims{Issuer: "gophauth", Subject: "7",
		IssuedAt: jwt.NewNumericDate(epoch.Add(time.Minute)), ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour))})
	badSubject := sign(jwt.RegisteredClaims{Issuer: "gophauth", Subject: "alice", ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour))})

	for name, tok := range map[string]string{"no exp": noExp, "issuer": otherIssuer, "future iat": futureIat, "subject": badSubject} {
		_, err := c.Verify(tok)
		if !errors.Is(err, common.ErrTokenMalformed) {
			t.Fatalf("%s: want malformed, got %v", name, err)
		}
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()
	c, _ := newTestCodec(t, "k", 0)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer: "gophauth", Subject: "7", ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Verify(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRejectionReason_Unknown(t *testing.T) {
	assert.Equal(t, "unknown", RejectionReason(errors.New("other")))
}
