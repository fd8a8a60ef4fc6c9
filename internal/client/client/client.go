package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// Client is the API surface the CLI talks to.
type Client interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, r models.Registration) (*models.AuthResult, error)
	Login(ctx context.Context, email string, password []byte) (*models.AuthResult, error)
	Verify(ctx context.Context) (*models.VerifyResult, error)
	Refresh(ctx context.Context) (*models.AuthResult, error)
	Profile(ctx context.Context) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ChangePassword(ctx context.Context, current, next []byte) error
	Logout(ctx context.Context) error
	Authenticated() bool
}
