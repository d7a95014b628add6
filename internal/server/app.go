// Package server wires the relay peer: configuration, logging, PostgreSQL
// storage and the gRPC endpoint, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/victoryapp/victory/internal/logging"
	"github.com/victoryapp/victory/internal/server/config"
	"github.com/victoryapp/victory/internal/server/repositories/repomanager"
	"github.com/victoryapp/victory/internal/server/services"

	gs "github.com/victoryapp/victory/internal/server/grpc"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	logCloser       io.Closer
	db              *sql.DB
	graphService    *services.GraphService
	identityService *services.IdentityService
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, closer, err := logging.New(logging.Options{Backend: c.LogBackend, Level: c.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		closer.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		closer.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return &App{
		config:          c,
		logger:          logger,
		logCloser:       closer,
		db:              db,
		graphService:    services.NewGraphService(db, rm),
		identityService: services.NewIdentityService(db, rm, c),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.graphService, app.identityService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and the log destination.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting relay...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "Relay stopped")
	app.logCloser.Close()
}
