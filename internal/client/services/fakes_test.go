package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/victoryapp/victory/internal/client/client"
	"github.com/victoryapp/victory/internal/client/credentials"
	"github.com/victoryapp/victory/internal/client/nodes"
	"github.com/victoryapp/victory/internal/client/repositories/kv"
	"github.com/victoryapp/victory/internal/client/session"
	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/graph/memgraph"
)

type fakeBackend struct {
	mu sync.Mutex

	RegisterErr error
	VerifyErr   error
	UpdateErr   error
	Aliases     map[string]string

	// Unknown lists pubs /validate rejects.
	Unknown map[string]bool

	Registered []registerCall
	Verified   []int
	Updates    []string
}

type registerCall struct {
	Pub, Alias, Email string
}

func (f *fakeBackend) Validate(_ context.Context, pub string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.Unknown[pub]
}

func (f *fakeBackend) Register(_ context.Context, pub, alias, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Registered = append(f.Registered, registerCall{pub, alias, email})
	return f.RegisterErr
}

func (f *fakeBackend) VerifyRegistration(_ context.Context, code int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Verified = append(f.Verified, code)
	return f.VerifyErr
}

func (f *fakeBackend) RequestUpdate(_ context.Context, pub string, isAlias bool, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updates = append(f.Updates, value)
	return f.UpdateErr
}

func (f *fakeBackend) VerifyUpdate(context.Context, int) error {
	return f.UpdateErr
}

func (f *fakeBackend) AliasForEmail(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Aliases[email], nil
}

// harness is one device: its own identity, session state and local cache,
// sharing the graph with other devices built from the same *memgraph.Graph.
type harness struct {
	db      *sql.DB
	g       *memgraph.Graph
	id      *memgraph.Identity
	backend *fakeBackend
	cache   *credentials.Cache
	state   *session.State
	deps    Deps
	account AccountService
}

func newHarness(t *testing.T, g *memgraph.Graph) *harness {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	h := newHarnessWithCache(t, g, credentials.NewCache(db))
	h.db = db
	return h
}

// newHarnessWithCache simulates a restart: fresh memory, same disk.
func newHarnessWithCache(t *testing.T, g *memgraph.Graph, cache *credentials.Cache) *harness {
	t.Helper()
	h := &harness{
		g:       g,
		id:      g.NewIdentity(),
		backend: &fakeBackend{Aliases: map[string]string{}},
		cache:   cache,
		state:   session.New(),
	}
	h.deps = Deps{
		Store:    g,
		Identity: h.id,
		Backend:  h.backend,
		Cache:    cache,
		State:    h.state,
		Fetcher:  nodes.NewFetcher(g, nodes.WithTimeout(200*time.Millisecond), nodes.WithCountSettle(200*time.Millisecond)),
	}
	h.account = NewAccountService(h.deps, AccountOptions{
		RecallTimeout: 50 * time.Millisecond,
		SettleDelay:   10 * time.Millisecond,
	})
	return h
}

// registerVerified registers alias and materializes its public profile.
func (h *harness) registerVerified(t *testing.T, alias, password string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.account.Register(ctx, alias, password, alias+"@gmail.com", 946684800))
	require.NoError(t, h.account.VerifyRegistration(ctx, 123456))
}

// dropKey deletes one local cache entry, as a crash between writes would.
func (h *harness) dropKey(t *testing.T, key string) {
	t.Helper()
	require.NotNil(t, h.db)
	require.NoError(t, kv.NewSQLiteRepository(h.db).Delete(context.Background(), key))
}

// withIdentity rebuilds the account service of h on top of id.
func (h *harness) withIdentity(id graph.Identity) AccountService {
	deps := h.deps
	deps.Identity = id
	return NewAccountService(deps, AccountOptions{
		RecallTimeout: 50 * time.Millisecond,
		SettleDelay:   10 * time.Millisecond,
	})
}

// privateFailingIdentity refuses owner-only writes.
type privateFailingIdentity struct {
	*memgraph.Identity
	err error
}

func (p privateFailingIdentity) PutPrivate(context.Context, string, any) error {
	return p.err
}
