package auth

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext passwords into one-way salted hashes and checks
// candidates against them.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports whether plaintext matches hash. A malformed hash is
	// simply a mismatch.
	Verify(ctx context.Context, plaintext, hash string) bool
}

// BcryptHasher is a Hasher with a tunable work factor.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher validates cost against bcrypt's accepted range.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", common.ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// DummyHash hashes a random secret with h. Login verifies against it when
// the email is unknown so both rejection paths cost one bcrypt compare.
func DummyHash(ctx context.Context, h Hasher) (string, error) {
	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	return h.Hash(ctx, secret)
}
