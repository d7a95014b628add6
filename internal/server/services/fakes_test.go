package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/dbx"
	"github.com/victoryapp/victory/internal/identity"
	"github.com/victoryapp/victory/internal/server/config"
	"github.com/victoryapp/victory/internal/server/repositories/identities"
	"github.com/victoryapp/victory/internal/server/repositories/nodes"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeNodes struct {
	mu      sync.Mutex
	leaves  map[string]any
	edges   map[string]map[string]*nodes.Edge
	failErr error
}

func newFakeNodes() *fakeNodes {
	return &fakeNodes{leaves: map[string]any{}, edges: map[string]map[string]*nodes.Edge{}}
}

func (f *fakeNodes) GetLeaf(ctx context.Context, path string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	v, ok := f.leaves[path]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return v, nil
}

func (f *fakeNodes) PutLeaf(ctx context.Context, path string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.leaves[path] = value
	return nil
}

func (f *fakeNodes) Children(ctx context.Context, path string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]any{}
	for k, v := range f.leaves {
		rest, ok := strings.CutPrefix(k, path+"/")
		if !ok || strings.Contains(rest, "/") || v == nil {
			continue
		}
		out[rest] = v
	}
	return out, nil
}

func (f *fakeNodes) GetEdge(ctx context.Context, set, key string) (*nodes.Edge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.edges[set][key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeNodes) PutEdge(ctx context.Context, e *nodes.Edge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	if f.edges[e.Set] == nil {
		f.edges[e.Set] = map[string]*nodes.Edge{}
	}
	cp := *e
	if cp.Removed {
		cp.Ref = ""
	}
	f.edges[e.Set][e.Key] = &cp
	return nil
}

func (f *fakeNodes) Edges(ctx context.Context, set string) ([]*nodes.Edge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*nodes.Edge
	for _, e := range f.edges[set] {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

type fakeIdentities struct {
	mu      sync.Mutex
	records map[string]*identity.Record
	private map[string]map[string]any
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{records: map[string]*identity.Record{}, private: map[string]map[string]any{}}
}

func (f *fakeIdentities) Create(ctx context.Context, r *identity.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[r.Alias]; ok {
		return identities.ErrAliasExists
	}
	f.records[r.Alias] = r
	return nil
}

func (f *fakeIdentities) GetByAlias(ctx context.Context, alias string) (*identity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[alias]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r, nil
}

func (f *fakeIdentities) UpdateKeys(ctx context.Context, r *identity.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[r.Alias]; !ok {
		return common.ErrorNotFound
	}
	f.records[r.Alias] = r
	return nil
}

func (f *fakeIdentities) PutPrivate(ctx context.Context, alias, key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.private[alias] == nil {
		f.private[alias] = map[string]any{}
	}
	f.private[alias][key] = value
	return nil
}

type fakeRepoManager struct {
	nodes      *fakeNodes
	identities *fakeIdentities
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{nodes: newFakeNodes(), identities: newFakeIdentities()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Nodes(dbx.DBTX) nodes.Repository { return m.nodes }

func (m *fakeRepoManager) Identities(dbx.DBTX) identities.Repository { return m.identities }

func testConfig() *config.Config {
	return &config.Config{SecretKey: "k", SessionValidity: time.Hour}
}
