package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// memUsersRepo is an in-memory users.Repository with case-insensitive
// unique emails. The *Err fields force the matching call to fail.
type memUsersRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User

	findErr   error
	createErr error
	updateErr error
	deleteErr error
	listErr   error

	creates int
	updates int
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{nextID: 1, byID: map[int64]*models.User{}}
}

func clone(u *models.User) *models.User {
	c := *u
	return &c
}

func (r *memUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *memUsersRepo) List(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*models.User, 0, len(r.byID))
	for id := int64(1); id < r.nextID; id++ {
		if u, ok := r.byID[id]; ok {
			out = append(out, clone(u))
		}
	}
	return out, nil
}

func (r *memUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, common.ErrEmailAlreadyRegistered
		}
	}
	r.creates++
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.byID[user.ID] = clone(user)
	return user, nil
}

func (r *memUsersRepo) Update(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	r.updates++
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
		if *upd.Phone == "" {
			u.Phone = nil
		}
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	u.UpdatedAt = time.Now()
	return clone(u), nil
}

func (r *memUsersRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

type fakeRepoManager struct {
	u *memUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }

type failingCodec struct {
	TokenCodec
}

func (failingCodec) Issue(auth.IdentityClaims) (string, auth.IdentityClaims, error) {
	return "", auth.IdentityClaims{}, errBoom{}
}

func newTestHasher(t *testing.T) auth.Hasher {
	t.Helper()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func newTestCodec(t *testing.T, now func() time.Time) *auth.Codec {
	t.Helper()
	opts := []auth.CodecOption{}
	if now != nil {
		opts = append(opts, auth.WithClock(now))
	}
	c, err := auth.NewCodec(auth.CodecConfig{
		Secret: []byte("k"),
		TTL:    24 * time.Hour,
		Issuer: "gophauth",
	}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

type fixture struct {
	db    *sql.DB
	mock  sqlmock.Sqlmock
	repo  *memUsersRepo
	auth  *AuthService
	users *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	repo := newMemUsersRepo()
	rm := &fakeRepoManager{u: repo}
	hasher := newTestHasher(t)

	as, err := NewAuthService(context.Background(), db, rm, hasher, newTestCodec(t, nil), logging.Nop{})
	if err != nil {
		t.Fatalf("NewAuthService error: %v", err)
	}
	us := NewUserService(db, rm, hasher, logging.Nop{})

	return &fixture{db: db, mock: mock, repo: repo, auth: as, users: us}
}

func (f *fixture) register(t *testing.T, email, password string) *models.AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), NewUserParams{
		Email: email, FirstName: "First", LastName: "Last", Password: password,
	})
	if err != nil {
		t.Fatalf("Register(%s) error: %v", email, err)
	}
	return res
}

func identityOf(res *models.AuthResult) models.Identity {
	return models.Identity{ID: res.User.ID, Email: res.User.Email}
}
