package nodes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/dbx"
	"github.com/victoryapp/victory/internal/graph"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetLeaf(ctx context.Context, path string) (any, error) {
	query :=
		`SELECT value FROM nodes
		 WHERE path = $1
		 `

	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, query, path).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return decodeValue(raw)
}

func (r *PostgresRepository) PutLeaf(ctx context.Context, path string, value any) error {
	raw, err := encodeValue(value)
	if err != nil {
		return err
	}
	parent, name := graph.ParsePath(path).Parent()

	query :=
		`INSERT INTO nodes (path, parent, name, value)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		 `

	if _, err := r.db.ExecContext(ctx, query, path, parent.String(), name, raw); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Children(ctx context.Context, path string) (map[string]any, error) {
	query :=
		`SELECT name, value FROM nodes
		 WHERE parent = $1 AND value IS NOT NULL
		 `

	rows, err := r.db.QueryContext(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := map[string]any{}
	for rows.Next() {
		var (
			name string
			raw  sql.NullString
		)
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetEdge(ctx context.Context, set, key string) (*Edge, error) {
	query :=
		`SELECT ref FROM edges
		 WHERE set_path = $1 AND key = $2
		 `

	var ref sql.NullString
	err := r.db.QueryRowContext(ctx, query, set, key).Scan(&ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &Edge{Set: set, Key: key, Ref: ref.String, Removed: !ref.Valid}, nil
}

func (r *PostgresRepository) PutEdge(ctx context.Context, e *Edge) error {
	var ref any
	if !e.Removed {
		ref = e.Ref
	}

	query :=
		`INSERT INTO edges (set_path, key, ref)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (set_path, key) DO UPDATE SET ref = EXCLUDED.ref, updated_at = now()
		 `

	if _, err := r.db.ExecContext(ctx, query, e.Set, e.Key, ref); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Edges(ctx context.Context, set string) ([]*Edge, error) {
	query :=
		`SELECT key, ref FROM edges
		 WHERE set_path = $1
		 ORDER BY key
		 `

	rows, err := r.db.QueryContext(ctx, query, set)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*Edge
	for rows.Next() {
		var ref sql.NullString
		e := &Edge{Set: set}
		if err := rows.Scan(&e.Key, &ref); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Ref, e.Removed = ref.String, !ref.Valid
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// encodeValue stores nil as SQL NULL and every other scalar as JSON text.
func encodeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return string(b), nil
}

func decodeValue(raw sql.NullString) (any, error) {
	if !raw.Valid {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw.String), &v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}
