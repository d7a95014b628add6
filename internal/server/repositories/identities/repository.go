// Package identities stores relay accounts and their owner-only values.
package identities

import (
	"context"
	"errors"

	"github.com/victoryapp/victory/internal/identity"
)

var ErrAliasExists = errors.New("alias already exists")

type Repository interface {
	// Create returns ErrAliasExists when alias is already registered.
	Create(ctx context.Context, r *identity.Record) error
	GetByAlias(ctx context.Context, alias string) (*identity.Record, error)
	// UpdateKeys replaces the sealed key material of an existing alias.
	UpdateKeys(ctx context.Context, r *identity.Record) error
	PutPrivate(ctx context.Context, alias, key string, value any) error
}
