package memgraph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/victoryapp/victory/internal/auth"
	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/identity"
)

type accounts struct {
	mu          sync.Mutex
	records     map[string]*identity.Record
	private     map[string]map[string]any
	secret      []byte
	validity    time.Duration
	recallDelay time.Duration
}

func newAccounts() *accounts {
	return &accounts{
		records:  map[string]*identity.Record{},
		private:  map[string]map[string]any{},
		secret:   []byte("memgraph"),
		validity: 24 * time.Hour,
	}
}

// Identity is one device's view of the accounts held by a Graph. Each
// Identity tracks its own current session.
var _ graph.Identity = (*Identity)(nil)

type Identity struct {
	g *Graph

	mu      sync.Mutex
	current *graph.Session
}

// NewIdentity returns a fresh, logged-out identity bound to g.
func (g *Graph) NewIdentity() *Identity {
	return &Identity{g: g}
}

// SetRecallDelay makes every Recall wait d before answering.
func (g *Graph) SetRecallDelay(d time.Duration) {
	g.accounts.mu.Lock()
	defer g.accounts.mu.Unlock()
	g.accounts.recallDelay = d
}

// Private returns an owner-only value written by PutPrivate.
func (g *Graph) Private(alias, key string) (any, bool) {
	g.accounts.mu.Lock()
	defer g.accounts.mu.Unlock()
	v, ok := g.accounts.private[alias][key]
	return v, ok
}

func (id *Identity) Create(ctx context.Context, alias, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a := id.g.accounts

	a.mu.Lock()
	_, exists := a.records[alias]
	a.mu.Unlock()
	if exists {
		return "", graph.ErrAlreadyCreated
	}

	rec, err := identity.NewRecord(alias, password)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	if _, exists := a.records[alias]; exists {
		a.mu.Unlock()
		return "", graph.ErrAlreadyCreated
	}
	a.records[alias] = rec
	a.mu.Unlock()

	if err := id.g.Put(ctx, graph.AliasPath(alias).Child("pub"), rec.Pub); err != nil {
		return "", fmt.Errorf("write alias node: %w", err)
	}
	return rec.Pub, nil
}

func (id *Identity) Auth(ctx context.Context, alias, password string) (graph.Session, error) {
	if err := ctx.Err(); err != nil {
		return graph.Session{}, err
	}
	a := id.g.accounts

	a.mu.Lock()
	rec, ok := a.records[alias]
	secret, validity := a.secret, a.validity
	a.mu.Unlock()
	if !ok || !rec.Verify(password) {
		return graph.Session{}, graph.ErrWrongCredentials
	}

	handle, err := auth.GenerateHandle(alias, rec.Pub, secret, validity)
	if err != nil {
		return graph.Session{}, fmt.Errorf("issue handle: %w", err)
	}
	s := graph.Session{Alias: alias, Pub: rec.Pub, Handle: handle}
	id.setCurrent(&s)
	return s, nil
}

func (id *Identity) ChangePassword(ctx context.Context, alias, oldPassword, newPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a := id.g.accounts

	a.mu.Lock()
	rec, ok := a.records[alias]
	a.mu.Unlock()
	if !ok {
		return graph.ErrWrongCredentials
	}

	next, err := rec.Rekey(oldPassword, newPassword)
	if err != nil {
		return graph.ErrWrongCredentials
	}

	a.mu.Lock()
	a.records[alias] = next
	a.mu.Unlock()
	return nil
}

func (id *Identity) Recall(ctx context.Context, handle string) (graph.Session, error) {
	a := id.g.accounts

	a.mu.Lock()
	delay, secret := a.recallDelay, a.secret
	a.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return graph.Session{}, ctx.Err()
		case <-t.C:
		}
	}

	claims, err := auth.ParseHandle(handle, secret)
	if err != nil {
		return graph.Session{}, fmt.Errorf("%w: %v", graph.ErrNoSession, err)
	}

	a.mu.Lock()
	rec, ok := a.records[claims.Alias]
	a.mu.Unlock()
	if !ok || rec.Pub != claims.Pub {
		return graph.Session{}, graph.ErrNoSession
	}

	s := graph.Session{Alias: claims.Alias, Pub: claims.Pub, Handle: handle}
	id.setCurrent(&s)
	return s, nil
}

func (id *Identity) Leave(ctx context.Context) error {
	id.setCurrent(nil)
	return nil
}

func (id *Identity) PutPrivate(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, ok := id.Current()
	if !ok {
		return graph.ErrNoSession
	}
	v, err := normalize(v)
	if err != nil {
		return err
	}

	a := id.g.accounts
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.private[s.Alias] == nil {
		a.private[s.Alias] = map[string]any{}
	}
	a.private[s.Alias][key] = v
	return nil
}

// Current returns the session set by the last Auth or Recall.
func (id *Identity) Current() (graph.Session, bool) {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.current == nil {
		return graph.Session{}, false
	}
	return *id.current, true
}

func (id *Identity) setCurrent(s *graph.Session) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.current = s
}
