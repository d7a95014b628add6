// Package nodes turns graph.Store subscriptions, which may fire late or
// never, into bounded reads.
package nodes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/logging"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultCountSettle = 2 * time.Second
)

type Fetcher struct {
	store       graph.Store
	timeout     time.Duration
	countSettle time.Duration
	logger      logging.Logger
}

type Option func(*Fetcher)

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

func WithCountSettle(d time.Duration) Option {
	return func(f *Fetcher) { f.countSettle = d }
}

func WithLogger(l logging.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

func NewFetcher(store graph.Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:       store,
		timeout:     DefaultTimeout,
		countSettle: DefaultCountSettle,
		logger:      logging.Nop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Fetcher) Value(ctx context.Context, p graph.Path) (any, error) {
	return f.ValueWithin(ctx, p, f.timeout)
}

// ValueWithin waits for the first delivery at p. A nil delivery fails at
// once with ErrNodeNotFound; silence past timeout fails with ErrNodeTimeout.
func (f *Fetcher) ValueWithin(ctx context.Context, p graph.Path, timeout time.Duration) (any, error) {
	type result struct {
		v   any
		err error
	}
	out := make(chan result, 1)
	var latch sync.Once

	cancel := f.store.Once(ctx, p, func(v any) {
		latch.Do(func() {
			if v == nil {
				out <- result{err: fmt.Errorf("%w: %s", common.ErrNodeNotFound, p)}
				return
			}
			out <- result{v: v}
		})
	})
	defer cancel()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case r := <-out:
		return r.v, r.err
	case <-t.C:
		latch.Do(func() {})
		return nil, fmt.Errorf("%w: %s", common.ErrNodeTimeout, p)
	case <-ctx.Done():
		latch.Do(func() {})
		return nil, ctx.Err()
	}
}

// UserField reads users/<username>/<field>. A missing field is written as ""
// so later reads find it.
func (f *Fetcher) UserField(ctx context.Context, username, field string) (string, error) {
	root := graph.UserPath(username)
	if _, err := f.Value(ctx, root); err != nil {
		return "", fmt.Errorf("%w: %s: %w", common.ErrInvalidUser, username, err)
	}

	p := root.Child(field)
	v, err := f.Value(ctx, p)
	switch {
	case err == nil:
		return Stringify(v), nil
	case isNotFound(err):
		f.logger.Debug(ctx, "healing missing field", "path", p.String())
		if err := f.store.Put(ctx, p, ""); err != nil {
			return "", fmt.Errorf("heal %s: %w", p, err)
		}
		return "", nil
	default:
		return "", err
	}
}

// Count returns the number of non-nil entries in collection. It only returns
// once the store signals completion or countSettle has passed.
func (f *Fetcher) Count(ctx context.Context, collection graph.Path) (int, error) {
	keys, err := f.Keys(ctx, collection)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Keys lists the keys of the non-nil entries in collection, sorted, with the
// same completion rule as Count.
func (f *Fetcher) Keys(ctx context.Context, collection graph.Path) ([]string, error) {
	var (
		mu        sync.Mutex
		live      = map[string]bool{}
		done      = make(chan struct{})
		closeDone sync.Once
	)

	cancel := f.store.Map(ctx, collection, func(key string, v any) {
		mu.Lock()
		live[key] = v != nil
		mu.Unlock()
	}, func() {
		closeDone.Do(func() { close(done) })
	})
	defer cancel()

	t := time.NewTimer(f.countSettle)
	defer t.Stop()

	select {
	case <-done:
	case <-t.C:
		f.logger.Debug(ctx, "enumeration settled without completion", "path", collection.String())
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	keys := make([]string, 0, len(live))
	for k, ok := range live {
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Exists reports whether p holds a value. Timeouts are returned as errors.
func (f *Fetcher) Exists(ctx context.Context, p graph.Path) (bool, error) {
	_, err := f.Value(ctx, p)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// Stringify renders a node value as text; strings pass through unchanged.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(v)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNodeNotFound)
}
