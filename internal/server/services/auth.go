// Package services contains server-side business logic. This file implements
// AuthService: login, registration with auto-login, bearer token resolution
// and refresh.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// TokenCodec is the part of *auth.Codec the services depend on.
type TokenCodec interface {
	Issue(claims auth.IdentityClaims) (string, auth.IdentityClaims, error)
	Verify(token string) (auth.IdentityClaims, error)
	TTL() time.Duration
}

// NewUserParams is the input of registration and public user creation.
// Password is plaintext and is hashed before anything is persisted.
type NewUserParams struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Phone     *string
}

// AuthService turns credentials into bearer tokens and bearer tokens back
// into identities. It holds no per-request state.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.Hasher
	codec       TokenCodec
	logger      logging.Logger
	dummyHash   string
}

// NewAuthService precomputes the hash used to equalize the cost of
// rejecting unknown emails.
func NewAuthService(ctx context.Context, db *sql.DB, m repomanager.RepositoryManager, hasher auth.Hasher, codec TokenCodec, logger logging.Logger) (*AuthService, error) {
	dummy, err := auth.DummyHash(ctx, hasher)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		codec:       codec,
		logger:      logger.With("module", "auth"),
		dummyHash:   dummy,
	}, nil
}

// NormalizeEmail is the canonical form used for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks the password before the account state, so a deactivated
// account is only revealed to someone who knows its password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	email = NormalizeEmail(email)
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(ctx, password, s.dummyHash)
			s.logger.Info(ctx, "login rejected", "email", email, "reason", "unknown_email")
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "login lookup failed", "email", email, "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(ctx, password, user.PasswordHash) {
		s.logger.Info(ctx, "login rejected", "email", email, "reason", "wrong_password")
		return nil, common.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Info(ctx, "login rejected", "email", email, "reason", "deactivated")
		return nil, common.ErrAccountDeactivated
	}

	res, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "login succeeded", "email", email, "user_id", user.ID)
	return res, nil
}

// Register creates an active user and logs them in.
//
// If the token cannot be issued after the record was created, the call fails
// but the record stays.
func (s *AuthService) Register(ctx context.Context, p NewUserParams) (*models.AuthResult, error) {
	user, err := createUser(ctx, s.repomanager.Users(s.db), s.hasher, p)
	if err != nil {
		return nil, s.storeError(ctx, "register", err)
	}

	res, err := s.issue(ctx, user)
	if err != nil {
		s.logger.Error(ctx, "user created but token issue failed", "user_id", user.ID, "email", user.Email)
		return nil, err
	}
	s.logger.Info(ctx, "user registered", "email", user.Email, "user_id", user.ID)
	return res, nil
}

// Resolve verifies token and re-reads the record it names. A valid token for
// a missing or deactivated user yields common.ErrorUnauthorized.
func (s *AuthService) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "reason", auth.RejectionReason(err))
		return nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "token subject not found", "user_id", claims.SubjectID)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "resolve lookup failed", "user_id", claims.SubjectID, "error", err)
		return nil, common.ErrorInternal
	}
	if !user.IsActive {
		s.logger.Info(ctx, "token subject deactivated", "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}

	return &models.Identity{
		ID:             user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		TokenID:        claims.TokenID,
		TokenExpiresAt: claims.ExpiresAt,
	}, nil
}

// Refresh issues a new token for an already resolved identity. The password
// is not checked again; the account state is.
func (s *AuthService) Refresh(ctx context.Context, identity models.Identity) (*models.AuthResult, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "refresh lookup failed", "user_id", identity.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !user.IsActive {
		return nil, common.ErrAccountDeactivated
	}
	return s.issue(ctx, user)
}

// Profile returns the caller's own record.
func (s *AuthService) Profile(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "profile", err)
	}
	return user, nil
}

// --- helpers below ---

func (s *AuthService) issue(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	token, claims, err := s.codec.Issue(auth.IdentityClaims{
		SubjectID: user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	return &models.AuthResult{
		AccessToken: token,
		TokenType:   models.TokenTypeBearer,
		ExpiresIn:   int64(s.codec.TTL() / time.Second),
		ExpiresAt:   claims.ExpiresAt,
		User:        user.Public(),
		LoginTime:   claims.IssuedAt,
	}, nil
}

func (s *AuthService) storeError(ctx context.Context, op string, err error) error {
	return collapseError(ctx, s.logger, op, err)
}

// createUser performs the uniqueness check, hashes the password and inserts
// an active record. A unique violation from a concurrent insert is reported
// the same way as a failed uniqueness check.
func createUser(ctx context.Context, repo users.Repository, hasher auth.Hasher, p NewUserParams) (*models.User, error) {
	email := NormalizeEmail(p.Email)

	_, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrEmailAlreadyRegistered
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	hash, err := hasher.Hash(ctx, p.Password)
	if err != nil {
		if errors.Is(err, common.ErrEmptyPassword) {
			return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
		}
		return nil, err
	}

	phone := p.Phone
	if phone != nil && strings.TrimSpace(*phone) == "" {
		phone = nil
	}

	return repo.Create(ctx, &models.User{
		Email:        email,
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		PasswordHash: hash,
		Phone:        phone,
		IsActive:     true,
	})
}

// collapseError passes domain errors through and turns everything else into
// common.ErrorInternal after logging it.
func collapseError(ctx context.Context, logger logging.Logger, op string, err error) error {
	for _, known := range []error{
		common.ErrorNotFound,
		common.ErrEmailAlreadyRegistered,
		common.ErrIncorrectPassword,
		common.ErrForbiddenAction,
		common.ErrorValidation,
		common.ErrInvalidCredentials,
		common.ErrAccountDeactivated,
		common.ErrorUnauthorized,
		common.ErrorInternal,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	logger.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
