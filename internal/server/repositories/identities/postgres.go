package identities

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/dbx"
	"github.com/victoryapp/victory/internal/identity"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *identity.Record) error {
	query :=
		`INSERT INTO identities (alias, pub, salt, verifier, sealed_key, nonce)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (alias) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query,
		rec.Alias, rec.Pub, rec.Salt, rec.Verifier, rec.SealedKey, rec.Nonce)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrAliasExists
	}
	return nil
}

func (r *PostgresRepository) GetByAlias(ctx context.Context, alias string) (*identity.Record, error) {
	query :=
		`SELECT alias, pub, salt, verifier, sealed_key, nonce FROM identities
		 WHERE alias = $1
		 `

	rec := &identity.Record{}
	err := r.db.QueryRowContext(ctx, query, alias).
		Scan(&rec.Alias, &rec.Pub, &rec.Salt, &rec.Verifier, &rec.SealedKey, &rec.Nonce)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) UpdateKeys(ctx context.Context, rec *identity.Record) error {
	query :=
		`UPDATE identities SET salt = $2, verifier = $3, sealed_key = $4, nonce = $5, updated_at = now()
		 WHERE alias = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		rec.Alias, rec.Salt, rec.Verifier, rec.SealedKey, rec.Nonce)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) PutPrivate(ctx context.Context, alias, key string, value any) error {
	var raw any
	if value != nil {
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode value: %w", err)
		}
		raw = string(b)
	}

	query :=
		`INSERT INTO private_values (alias, key, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (alias, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		 `

	if _, err := r.db.ExecContext(ctx, query, alias, key, raw); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
