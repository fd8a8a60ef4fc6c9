// Package server wires the gophauth server together: configuration, the
// PostgreSQL store and its migrations, the credential primitives, the
// services, and the HTTP and gRPC health listeners, with graceful shutdown on
// SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	authService *services.AuthService
	userService *services.UserService
	httpServer  *hs.HTTPServer
	grpcServer  *gs.HealthServer
}

// NewApp opens the database and builds every component. The schema is
// migrated in Run, before the listeners start.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.SlogLevel())

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	hasher, err := auth.NewBcryptHasher(c.PasswordHashCost)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret:    []byte(c.SecretKey),
		TTL:       c.TokenValidityDuration,
		ClockSkew: c.TokenClockSkew,
		Issuer:    c.TokenIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	as, err := services.NewAuthService(ctx, db, rm, hasher, codec, logger)
	if err != nil {
		return nil, fmt.Errorf("auth service init error: %w", err)
	}
	us := services.NewUserService(db, rm, hasher, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		authService: as,
		userService: us,
		httpServer:  hs.NewHTTPServer(c.EndpointAddrHTTP, logger, as, us, c.PhoneRegion),
		grpcServer:  gs.NewHealthServer(c.EndpointAddrGRPC, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// startServer runs one listener; a failure brings the whole app down.
func (app *App) startServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, name+" server failed", "error", err)
		cancelFunc()
	}
}

// Run migrates the schema, marks the health endpoint as serving and blocks
// until a signal arrives or a listener fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startServer(ctx, cancelFunc, "gRPC", app.grpcServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.startServer(ctx, cancelFunc, "HTTP", app.httpServer.Run)
	}()

	app.grpcServer.SetServing(true)

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return nil
}
