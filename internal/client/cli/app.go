package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/victoryapp/victory/internal/client/assets"
	"github.com/victoryapp/victory/internal/client/backend"
	"github.com/victoryapp/victory/internal/client/client"
	"github.com/victoryapp/victory/internal/client/config"
	"github.com/victoryapp/victory/internal/client/credentials"
	"github.com/victoryapp/victory/internal/client/nodes"
	"github.com/victoryapp/victory/internal/client/services"
	"github.com/victoryapp/victory/internal/client/session"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/graph/memgraph"
	"github.com/victoryapp/victory/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
	ModeMemory  Mode = "memory"
)

// pinger is implemented by relay-backed stores.
type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	logCloser io.Closer
	db        *sql.DB
	store     graph.Store
	closers   []io.Closer

	account services.AccountService
	profile services.ProfileService
	follow  services.FollowService

	// mode is written by the online watcher and read by the prompt.
	modeMu sync.RWMutex
	mode   Mode

	reader *bufio.Reader
	out    io.Writer
}

// NewApp builds the client stack described by c. Resources opened before a
// failure are released.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logCloser, err := logging.New(logging.Options{
		Backend: c.LogBackend,
		Level:   c.LogLevel,
		File:    c.LogFile,
		MaxAge:  7 * 24 * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{
		config:    c,
		logger:    logger,
		logCloser: logCloser,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}

	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	c := a.config

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		a.logger.Error(ctx, "error initializing database", "error", err)
		return err
	}
	a.db = db

	var (
		store    graph.Store
		identity graph.Identity
	)
	if c.StoreEndpointAddr == config.MemoryStore {
		secret, err := common.MakeRandHexString(32)
		if err != nil {
			return fmt.Errorf("memory store secret: %w", err)
		}
		g := memgraph.New(memgraph.WithSecret([]byte(secret)))
		store, identity = g, g.NewIdentity()
		a.mode = ModeMemory
	} else {
		rc, err := client.NewRelayClient(c.StoreEndpointAddr, client.WithLogger(a.logger))
		if err != nil {
			return fmt.Errorf("connect relay: %w", err)
		}
		a.closers = append(a.closers, rc)
		store, identity = rc, rc
	}
	a.store = store

	src, err := assetSource(ctx, c)
	if err != nil {
		a.logger.Warn(ctx, "default image bucket unavailable, using embedded images", "error", err)
		src = assets.EmbeddedSource{}
	}

	deps := services.Deps{
		Store:    store,
		Identity: identity,
		Backend: backend.NewHTTPClient(c.BackendURL,
			backend.WithMaxRetries(c.HTTPRetries),
			backend.WithLogger(a.logger)),
		Cache: credentials.NewCache(db),
		State: session.New(),
		Fetcher: nodes.NewFetcher(store,
			nodes.WithTimeout(c.NodeTimeout),
			nodes.WithCountSettle(c.CountSettle),
			nodes.WithLogger(a.logger)),
		Assets: src,
		Logger: a.logger,
	}

	a.account = services.NewAccountService(deps, services.AccountOptions{
		RecallTimeout: c.RecallTimeout,
		SettleDelay:   c.SettleDelay,
	})
	a.profile = services.NewProfileService(deps)
	a.follow = services.NewFollowService(deps)
	return nil
}

// assetSource prefers the configured bucket and falls back to the images
// built into the binary.
func assetSource(ctx context.Context, c *config.Config) (assets.Source, error) {
	if c.S3Bucket == "" {
		return assets.EmbeddedSource{}, nil
	}
	s3src, err := assets.NewS3Source(ctx, assets.S3Config{
		Bucket:    c.S3Bucket,
		Prefix:    c.S3Prefix,
		Region:    c.S3Region,
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return assets.FallbackSource{Primary: s3src, Secondary: assets.EmbeddedSource{}}, nil
}

// Close releases the store connection, the database and the log file.
func (a *App) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.account.Current().LoggedIn
}

// Mode reports whether the relay answered the last ping.
func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(ctx, "switched mode", "mode", string(mode))
	}
}

// StartOnlineStatusWatcher pings the relay every interval and flips Mode
// between online and offline. It returns when ctx is done or the store does
// not support pings.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	p, ok := a.store.(pinger)
	if !ok {
		return
	}

	check := func() {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := p.Ping(pctx)
		cancel()
		if err != nil {
			a.setMode(ctx, ModeOffline)
		} else {
			a.setMode(ctx, ModeOnline)
		}
	}
	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}
