// Package graph describes the capabilities the client needs from a
// decentralized graph store and its user identity layer. Reads are callback
// subscriptions that may never fire; a nil value means the node is absent or
// was explicitly nulled.
package graph

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrAlreadyCreated   = errors.New("User already created!")
	ErrWrongCredentials = errors.New("Wrong user or password.")
	ErrNoSession        = errors.New("no authenticated session")
)

// Path addresses a node by its chain of keys from the root.
type Path []string

func ParsePath(s string) Path {
	s = strings.Trim(s, "/")
	if s == "" {
		return Path{}
	}
	return strings.Split(s, "/")
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Child returns a new path extended by keys; p is not modified.
func (p Path) Child(keys ...string) Path {
	out := make(Path, 0, len(p)+len(keys))
	out = append(out, p...)
	return append(out, keys...)
}

// Parent returns p without its last key and that key.
func (p Path) Parent() (Path, string) {
	if len(p) == 0 {
		return Path{}, ""
	}
	return p[:len(p)-1], p[len(p)-1]
}

// UserPath is the public profile node of alias.
func UserPath(alias string) Path {
	return Path{"users", alias}
}

// AliasPath is the public alias node written when an account is created.
func AliasPath(alias string) Path {
	return Path{"~@" + alias}
}

// Session identifies an authenticated account. Handle can be presented to
// Identity.Recall to restore the session later.
type Session struct {
	Alias  string
	Pub    string
	Handle string
}

type Store interface {
	// Once delivers the current value at p to fn at most once. fn may never
	// be called. cancel stops any pending delivery.
	Once(ctx context.Context, p Path, fn func(v any)) (cancel func())
	// Put writes a scalar value (string, number, bool or nil) at p.
	Put(ctx context.Context, p Path, v any) error
	// Add links set/key to the node at ref.
	Add(ctx context.Context, set Path, key string, ref Path) error
	// Remove replaces set/key with a null tombstone.
	Remove(ctx context.Context, set Path, key string) error
	// Map calls fn for every entry of set, tombstones included with a nil
	// value, then done. done may never be called.
	Map(ctx context.Context, set Path, fn func(key string, v any), done func()) (cancel func())
}

type Identity interface {
	Create(ctx context.Context, alias, password string) (pub string, err error)
	Auth(ctx context.Context, alias, password string) (Session, error)
	ChangePassword(ctx context.Context, alias, oldPassword, newPassword string) error
	// Recall restores the session behind handle. It blocks until the store
	// answers or ctx is done.
	Recall(ctx context.Context, handle string) (Session, error)
	Leave(ctx context.Context) error
	// PutPrivate writes an owner-only value for the current session.
	PutPrivate(ctx context.Context, key string, v any) error
}
