// Package services contains relay-side business logic. GraphService resolves
// and writes graph nodes; IdentityService manages accounts and session handles.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/dbx"
	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/server/repositories/nodes"
	"github.com/victoryapp/victory/internal/server/repositories/repomanager"
)

var ErrUnsupportedValue = errors.New("unsupported value type")

// GraphService answers reads the same way a Gun peer would: a leaf wins over
// an edge, an edge over a node's children. Absent and tombstoned nodes read
// as nil.
type GraphService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewGraphService(db *sql.DB, m repomanager.RepositoryManager) *GraphService {
	return &GraphService{db: db, repomanager: m}
}

// Get resolves p. found is false when nothing at all is stored there.
func (s *GraphService) Get(ctx context.Context, p graph.Path) (value any, found bool, err error) {
	repo := s.repomanager.Nodes(s.db)

	v, err := repo.GetLeaf(ctx, p.String())
	switch {
	case err == nil:
		return v, true, nil
	case !errors.Is(err, common.ErrorNotFound):
		return nil, false, err
	}

	if parent, key := p.Parent(); len(p) > 0 {
		e, err := repo.GetEdge(ctx, parent.String(), key)
		switch {
		case err == nil:
			v, err := s.edgeValue(ctx, repo, e)
			return v, err == nil, err
		case !errors.Is(err, common.ErrorNotFound):
			return nil, false, err
		}
	}

	children, err := s.children(ctx, repo, p.String())
	if err != nil {
		return nil, false, err
	}
	if len(children) == 0 {
		return nil, false, nil
	}
	return children, true, nil
}

func (s *GraphService) Put(ctx context.Context, p graph.Path, v any) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty path", ErrUnsupportedValue)
	}
	v, err := normalize(v)
	if err != nil {
		return err
	}
	return s.repomanager.Nodes(s.db).PutLeaf(ctx, p.String(), v)
}

func (s *GraphService) Add(ctx context.Context, set graph.Path, key string, ref graph.Path) error {
	return s.repomanager.Nodes(s.db).PutEdge(ctx, &nodes.Edge{Set: set.String(), Key: key, Ref: ref.String()})
}

func (s *GraphService) Remove(ctx context.Context, set graph.Path, key string) error {
	return s.repomanager.Nodes(s.db).PutEdge(ctx, &nodes.Edge{Set: set.String(), Key: key, Removed: true})
}

// List returns every entry of set by key. Tombstones are included as nil.
func (s *GraphService) List(ctx context.Context, set graph.Path) (map[string]any, error) {
	out := map[string]any{}
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Nodes(tx)
		edges, err := repo.Edges(ctx, set.String())
		if err != nil {
			return err
		}
		for _, e := range edges {
			v, err := s.edgeValue(ctx, repo, e)
			if err != nil {
				return err
			}
			out[e.Key] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GraphService) edgeValue(ctx context.Context, repo nodes.Repository, e *nodes.Edge) (any, error) {
	if e.Removed {
		return nil, nil
	}
	m, err := s.children(ctx, repo, e.Ref)
	if err != nil {
		return nil, err
	}
	m["#"] = e.Ref
	return m, nil
}

func (s *GraphService) children(ctx context.Context, repo nodes.Repository, path string) (map[string]any, error) {
	out, err := repo.Children(ctx, path)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	edges, err := repo.Edges(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if !e.Removed {
			out[e.Key] = map[string]any{"#": e.Ref}
		}
	}
	return out, nil
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
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}
