// Package server wires configuration, storage, services and transports into
// a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/siteadmin/internal/dbx"
	"github.com/dmitrijs2005/siteadmin/internal/logging"
	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"github.com/dmitrijs2005/siteadmin/internal/server/config"
	"github.com/dmitrijs2005/siteadmin/internal/server/httpapi"
	"github.com/dmitrijs2005/siteadmin/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/siteadmin/internal/server/services"

	gs "github.com/dmitrijs2005/siteadmin/internal/server/grpc"
)

const dbPingTimeout = 5 * time.Second

// runner is a transport that serves until its context is cancelled.
type runner interface {
	Run(ctx context.Context) error
}

// Seams for tests.
var (
	openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
		return dbx.Open(ctx, dsn, dbx.DefaultPoolOptions, dbPingTimeout)
	}
	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	servers map[string]runner
}

// NewApp validates c, opens the database, applies migrations and builds the
// HTTP and (optionally) gRPC servers. Logs go to logOut.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {

	logger, err := logging.New(logOut, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	missingSecret, err := checkConfig(c)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if missingSecret {
		logger.Warn(ctx, "JWT secret is not configured; logins will fail until it is set")
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := build(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	hasher, err := auth.NewBcryptHasher(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	issuer := auth.NewTokenIssuer([]byte(c.SecretKey), c.TokenLifetime)
	verifier := auth.NewTokenVerifier([]byte(c.SecretKey))

	login, err := services.NewLoginService(db, rm, hasher, issuer, logger)
	if err != nil {
		return nil, err
	}

	uploads, err := services.NewUploadStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("upload store: %w", err)
	}

	handlers := httpapi.NewHandlers(login, uploads, db.PingContext, logger)
	router := httpapi.NewRouter(handlers, verifier, httpapi.RouterOptions{
		UploadMaxBytes:    c.UploadMaxBytes,
		UploadRequireAuth: c.UploadRequireAuth,
	}, logger)

	servers := map[string]runner{
		"http": httpapi.NewServer(c.HTTPAddr, router, c.ShutdownTimeout, logger),
	}
	if c.GRPCAddr != "" {
		servers["grpc"] = gs.NewGRPCServer(c.GRPCAddr, logger, login, verifier)
	}

	return &App{config: c, logger: logger, db: db, servers: servers}, nil
}

// checkConfig separates a missing secret, which is only a warning, from
// validation errors that prevent startup.
func checkConfig(c *config.Config) (missingSecret bool, err error) {
	verr := c.Validate()
	if verr == nil {
		return false, nil
	}

	errs := []error{verr}
	if joined, ok := verr.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	var fatal []error
	for _, e := range errs {
		if errors.Is(e, config.ErrMissingSecretKey) {
			missingSecret = true
			continue
		}
		fatal = append(fatal, e)
	}

	return missingSecret, errors.Join(fatal...)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run starts all servers and blocks until ctx is cancelled, a signal
// arrives or any server fails. The database is closed on return.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	for name, srv := range app.servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				app.logger.Error(ctx, "server stopped", "server", name, "error", err)
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
