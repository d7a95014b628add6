// Package memgraph is an in-process graph.Store and graph.Identity. It keeps
// Gun's delivery semantics (asynchronous callbacks, nil for absent nodes,
// null tombstones) and exposes hooks to silence paths, fail writes and
// count them, so reconciliation code can be exercised without a relay.
package memgraph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/victoryapp/victory/internal/graph"
)

type edge struct {
	ref     graph.Path
	removed bool
}

var _ graph.Store = (*Graph)(nil)

type Graph struct {
	mu       sync.Mutex
	nodes    map[string]any
	edges    map[string]map[string]edge
	silenced map[string]bool
	failPut  map[string]error
	writes   map[string]int
	delay    time.Duration

	accounts *accounts
}

type Option func(*Graph)

// WithDelay postpones every Once and Map delivery by d.
func WithDelay(d time.Duration) Option {
	return func(g *Graph) { g.delay = d }
}

// WithSecret sets the key session handles are signed with.
func WithSecret(secret []byte) Option {
	return func(g *Graph) { g.accounts.secret = secret }
}

func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:    map[string]any{},
		edges:    map[string]map[string]edge{},
		silenced: map[string]bool{},
		failPut:  map[string]error{},
		writes:   map[string]int{},
		accounts: newAccounts(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Silence makes Once on p never fire and Map on p never signal completion.
func (g *Graph) Silence(p graph.Path) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.silenced[p.String()] = true
}

func (g *Graph) Unsilence(p graph.Path) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.silenced, p.String())
}

// FailPut makes every write to p return err until cleared with a nil err.
func (g *Graph) FailPut(p graph.Path, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failPut, p.String())
		return
	}
	g.failPut[p.String()] = err
}

// Writes reports how many successful writes hit p.
func (g *Graph) Writes(p graph.Path) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes[p.String()]
}

// Value reads p synchronously, bypassing silence and delay.
func (g *Graph) Value(p graph.Path) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolve(p)
}

func (g *Graph) Once(ctx context.Context, p graph.Path, fn func(v any)) func() {
	stop, cancel := stopper()

	g.mu.Lock()
	silenced := g.silenced[p.String()]
	delay := g.delay
	g.mu.Unlock()
	if silenced {
		return cancel
	}

	go func() {
		if !wait(ctx, stop, delay) {
			return
		}
		g.mu.Lock()
		v, _ := g.resolve(p)
		g.mu.Unlock()

		select {
		case <-stop:
			return
		default:
		}
		fn(v)
	}()
	return cancel
}

func (g *Graph) Map(ctx context.Context, set graph.Path, fn func(key string, v any), done func()) func() {
	stop, cancel := stopper()

	g.mu.Lock()
	silenced := g.silenced[set.String()]
	delay := g.delay
	g.mu.Unlock()

	go func() {
		if !wait(ctx, stop, delay) {
			return
		}
		g.mu.Lock()
		entries := g.edges[set.String()]
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = g.edgeValue(entries[k])
		}
		g.mu.Unlock()

		for i, k := range keys {
			select {
			case <-stop:
				return
			default:
			}
			fn(k, values[i])
		}
		if !silenced {
			done()
		}
	}()
	return cancel
}

func (g *Graph) Put(ctx context.Context, p graph.Path, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, err := normalize(v)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	key := p.String()
	if err := g.failPut[key]; err != nil {
		return err
	}
	g.nodes[key] = v
	g.writes[key]++
	return nil
}

func (g *Graph) Add(ctx context.Context, set graph.Path, key string, ref graph.Path) error {
	return g.setEdge(ctx, set, key, edge{ref: append(graph.Path(nil), ref...)})
}

func (g *Graph) Remove(ctx context.Context, set graph.Path, key string) error {
	return g.setEdge(ctx, set, key, edge{removed: true})
}

func (g *Graph) setEdge(ctx context.Context, set graph.Path, key string, e edge) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	full := set.Child(key).String()
	if err := g.failPut[full]; err != nil {
		return err
	}
	s := set.String()
	if g.edges[s] == nil {
		g.edges[s] = map[string]edge{}
	}
	g.edges[s][key] = e
	g.writes[full]++
	return nil
}

// resolve must be called with mu held. A leaf wins over an edge, an edge
// over a node's children.
func (g *Graph) resolve(p graph.Path) (any, bool) {
	key := p.String()
	if v, ok := g.nodes[key]; ok {
		return v, true
	}
	if parent, k := p.Parent(); len(p) > 0 {
		if e, ok := g.edges[parent.String()][k]; ok {
			return g.edgeValue(e), true
		}
	}
	if m := g.children(key); len(m) > 0 {
		return m, true
	}
	return nil, false
}

func (g *Graph) edgeValue(e edge) any {
	if e.removed {
		return nil
	}
	if m := g.children(e.ref.String()); len(m) > 0 {
		m["#"] = e.ref.String()
		return m
	}
	return map[string]any{"#": e.ref.String()}
}

func (g *Graph) children(key string) map[string]any {
	prefix := key + "/"
	out := map[string]any{}
	for k, v := range g.nodes {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok || strings.Contains(rest, "/") || v == nil {
			continue
		}
		out[rest] = v
	}
	for k, e := range g.edges[key] {
		if !e.removed {
			out[k] = map[string]any{"#": e.ref.String()}
		}
	}
	return out
}

func normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return nil, fmt.Errorf("memgraph: unsupported value type %T", v)
	}
}

func stopper() (<-chan struct{}, func()) {
	stop := make(chan struct{})
	var once sync.Once
	return stop, func() { once.Do(func() { close(stop) }) }
}

func wait(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-stop:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}
