// Package nodes persists the relay's graph: scalar leaves addressed by
// path and named links (edges) from a set to another node.
package nodes

import "context"

// Edge links Set/Key to the node at Ref. A removed edge is a tombstone and
// carries no Ref.
type Edge struct {
	Set     string
	Key     string
	Ref     string
	Removed bool
}

type Repository interface {
	// GetLeaf returns common.ErrorNotFound when nothing was written at path.
	GetLeaf(ctx context.Context, path string) (any, error)
	PutLeaf(ctx context.Context, path string, value any) error
	// Children returns the non-null leaves directly under path by name.
	Children(ctx context.Context, path string) (map[string]any, error)
	GetEdge(ctx context.Context, set, key string) (*Edge, error)
	PutEdge(ctx context.Context, e *Edge) error
	Edges(ctx context.Context, set string) ([]*Edge, error)
}
