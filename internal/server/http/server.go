// Package http is the REST transport: a gorilla/mux router over the auth
// and user services, with a bearer guard, request validation and error
// mapping.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gorilla/mux"
)

// Authenticator is implemented by *services.AuthService.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Register(ctx context.Context, p services.NewUserParams) (*models.AuthResult, error)
	Resolve(ctx context.Context, token string) (*models.Identity, error)
	Refresh(ctx context.Context, identity models.Identity) (*models.AuthResult, error)
	Profile(ctx context.Context, id int64) (*models.User, error)
}

// UserManager is implemented by *services.UserService.
type UserManager interface {
	Create(ctx context.Context, p services.NewUserParams) (*models.User, error)
	List(ctx context.Context, actor models.Identity) ([]*models.User, error)
	Get(ctx context.Context, actor models.Identity, id int64) (*models.User, error)
	Update(ctx context.Context, actor models.Identity, id int64, p services.UpdateParams) (*models.User, error)
	Deactivate(ctx context.Context, actor models.Identity, id int64) (*models.User, error)
	Activate(ctx context.Context, actor models.Identity, id int64) (*models.User, error)
	Delete(ctx context.Context, actor models.Identity, id int64) error
	ChangePassword(ctx context.Context, actor models.Identity, current, next string) error
}

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address     string
	auth        Authenticator
	users       UserManager
	logger      logging.Logger
	phoneRegion string
	router      *mux.Router
	now         func() time.Time
}

// NewHTTPServer builds the router. phoneRegion, when not empty, turns on
// phone number validation and E.164 normalization for that region.
func NewHTTPServer(address string, l logging.Logger, a Authenticator, u UserManager, phoneRegion string) *HTTPServer {
	s := &HTTPServer{
		address:     address,
		auth:        a,
		users:       u,
		logger:      l.With("module", "http_server"),
		phoneRegion: phoneRegion,
		now:         time.Now,
	}
	s.router = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler { return s.router }

func (s *HTTPServer) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.Handle("/auth/verify", s.bearer(s.handleVerify)).Methods(http.MethodGet)
	r.Handle("/auth/refresh", s.bearer(s.handleRefresh)).Methods(http.MethodPost)
	r.Handle("/auth/profile", s.bearer(s.handleProfile)).Methods(http.MethodGet)
	r.Handle("/auth/logout", s.bearer(s.handleLogout)).Methods(http.MethodPost)

	r.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	r.Handle("/users", s.bearer(s.handleListUsers)).Methods(http.MethodGet)
	r.Handle("/users/me", s.bearer(s.handleProfile)).Methods(http.MethodGet)
	r.Handle("/users/me", s.bearer(s.handleUpdateMe)).Methods(http.MethodPatch)
	r.Handle("/users/me/password", s.bearer(s.handleChangePassword)).Methods(http.MethodPatch)
	r.Handle("/users/{id:[0-9]+}", s.bearer(s.handleGetUser)).Methods(http.MethodGet)
	r.Handle("/users/{id:[0-9]+}", s.bearer(s.handleUpdateUser)).Methods(http.MethodPatch)
	r.Handle("/users/{id:[0-9]+}", s.bearer(s.handleDeleteUser)).Methods(http.MethodDelete)
	r.Handle("/users/{id:[0-9]+}/deactivate", s.bearer(s.handleDeactivateUser)).Methods(http.MethodPatch)
	r.Handle("/users/{id:[0-9]+}/activate", s.bearer(s.handleActivateUser)).Methods(http.MethodPatch)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Run listens on the configured address and serves until ctx is done.
func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is done, then shuts down
// gracefully. A clean shutdown returns nil.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
