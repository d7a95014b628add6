// Package kv stores the client's string key/value entries: the remembered
// account, per-alias passwords, the session handle and pending markers.
package kv

import "context"

type Repository interface {
	// Get returns ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
