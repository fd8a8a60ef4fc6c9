package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/policy"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// UpdateParams is a partial user update as submitted by a client. Password
// is plaintext; nil fields are left untouched.
type UpdateParams struct {
	Email     *string
	FirstName *string
	LastName  *string
	Password  *string
	Phone     *string
	IsActive  *bool
}

// UserService manages user records on behalf of an authenticated actor.
// Every call is checked against the policy package first.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.Hasher
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.Hasher, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		logger:      logger.With("module", "users"),
	}
}

// Create registers a user without logging them in.
func (s *UserService) Create(ctx context.Context, p NewUserParams) (*models.User, error) {
	user, err := createUser(ctx, s.repomanager.Users(s.db), s.hasher, p)
	if err != nil {
		return nil, s.storeError(ctx, "create user", err)
	}
	s.logger.Info(ctx, "user created", "email", user.Email, "user_id", user.ID)
	return user, nil
}

func (s *UserService) List(ctx context.Context, actor models.Identity) ([]*models.User, error) {
	if err := policy.Authorize(actor, 0, policy.OpList); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "list users", err)
	}
	return list, nil
}

func (s *UserService) Get(ctx context.Context, actor models.Identity, id int64) (*models.User, error) {
	if err := policy.Authorize(actor, id, policy.OpRead); err != nil {
		return nil, err
	}
	user, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "get user", err)
	}
	return user, nil
}

// Update applies p to the record id. Setting IsActive to false counts as a
// deactivation and setting it to true as an activation, so the same rules
// apply as for the dedicated calls.
func (s *UserService) Update(ctx context.Context, actor models.Identity, id int64, p UpdateParams) (*models.User, error) {
	if err := s.authorizeUpdate(actor, id, p); err != nil {
		s.logger.Warn(ctx, "update denied", "actor_id", actor.ID, "target_id", id, "error", err)
		return nil, err
	}

	upd := models.UserUpdate{
		FirstName: trimmed(p.FirstName),
		LastName:  trimmed(p.LastName),
		Phone:     p.Phone,
		IsActive:  p.IsActive,
	}
	if p.Email != nil {
		email := NormalizeEmail(*p.Email)
		upd.Email = &email
	}
	if p.Password != nil {
		hash, err := s.hasher.Hash(ctx, *p.Password)
		if err != nil {
			if errors.Is(err, common.ErrEmptyPassword) {
				return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
			}
			return nil, s.storeError(ctx, "hash password", err)
		}
		upd.PasswordHash = &hash
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if upd.Email != nil && *upd.Email != current.Email {
			_, err := repo.FindByEmail(ctx, *upd.Email)
			switch {
			case err == nil:
				return common.ErrEmailAlreadyRegistered
			case !errors.Is(err, common.ErrorNotFound):
				return err
			}
		}

		updated, err = repo.Update(ctx, id, upd)
		return err
	})
	if err != nil {
		return nil, s.storeError(ctx, "update user", err)
	}

	s.logAdministrative(ctx, actor, id, policy.OpUpdate)
	return updated, nil
}

func (s *UserService) Deactivate(ctx context.Context, actor models.Identity, id int64) (*models.User, error) {
	return s.setActive(ctx, actor, id, false)
}

func (s *UserService) Activate(ctx context.Context, actor models.Identity, id int64) (*models.User, error) {
	return s.setActive(ctx, actor, id, true)
}

func (s *UserService) Delete(ctx context.Context, actor models.Identity, id int64) error {
	if err := policy.Authorize(actor, id, policy.OpDelete); err != nil {
		s.logger.Warn(ctx, "delete denied", "actor_id", actor.ID, "target_id", id, "error", err)
		return err
	}
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return s.storeError(ctx, "delete user", err)
	}
	s.logAdministrative(ctx, actor, id, policy.OpDelete)
	return nil
}

// ChangePassword replaces the actor's own password after checking the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, actor models.Identity, current, next string) error {
	if err := policy.Authorize(actor, actor.ID, policy.OpChangePassword); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.FindByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(ctx, current, user.PasswordHash) {
			return common.ErrIncorrectPassword
		}

		hash, err := s.hasher.Hash(ctx, next)
		if err != nil {
			if errors.Is(err, common.ErrEmptyPassword) {
				return fmt.Errorf("%w: %w", common.ErrorValidation, err)
			}
			return err
		}
		_, err = repo.Update(ctx, actor.ID, models.UserUpdate{PasswordHash: &hash})
		return err
	})
	if err != nil {
		return s.storeError(ctx, "change password", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", actor.ID)
	return nil
}

// --- helpers below ---

func (s *UserService) setActive(ctx context.Context, actor models.Identity, id int64, active bool) (*models.User, error) {
	op := policy.OpActivate
	if !active {
		op = policy.OpDeactivate
	}
	if err := policy.Authorize(actor, id, op); err != nil {
		s.logger.Warn(ctx, string(op)+" denied", "actor_id", actor.ID, "target_id", id, "error", err)
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).Update(ctx, id, models.UserUpdate{IsActive: &active})
	if err != nil {
		return nil, s.storeError(ctx, string(op)+" user", err)
	}
	s.logAdministrative(ctx, actor, id, op)
	return user, nil
}

func (s *UserService) authorizeUpdate(actor models.Identity, id int64, p UpdateParams) error {
	if err := policy.Authorize(actor, id, policy.OpUpdate); err != nil {
		return err
	}
	if p.IsActive != nil {
		op := policy.OpActivate
		if !*p.IsActive {
			op = policy.OpDeactivate
		}
		if err := policy.Authorize(actor, id, op); err != nil {
			return err
		}
	}
	if p.Password != nil {
		return policy.Authorize(actor, id, policy.OpChangePassword)
	}
	return nil
}

func (s *UserService) logAdministrative(ctx context.Context, actor models.Identity, id int64, op policy.Operation) {
	if policy.Administrative(actor, id, op) {
		s.logger.Info(ctx, "administrative action", "op", string(op), "actor_id", actor.ID, "target_id", id)
	}
}

func (s *UserService) storeError(ctx context.Context, op string, err error) error {
	return collapseError(ctx, s.logger, op, err)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
