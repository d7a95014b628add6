package grpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/relaypb"
	"github.com/victoryapp/victory/internal/server/services"
	"google.golang.org/protobuf/types/known/structpb"
)

// fail logs err and converts it to a status. Expected outcomes such as wrong
// credentials are logged at debug level.
func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	if errors.Is(err, services.ErrUnsupportedValue) {
		err = fmt.Errorf("%w: %v", relaypb.ErrMalformed, err)
	}
	switch {
	case errors.Is(err, graph.ErrAlreadyCreated),
		errors.Is(err, graph.ErrWrongCredentials),
		errors.Is(err, graph.ErrNoSession),
		errors.Is(err, relaypb.ErrMalformed):
		s.logger.Debug(ctx, "request rejected", "method", method, "request_id", requestID(ctx), "error", err)
	default:
		s.logger.Error(ctx, "request failed", "method", method, "request_id", requestID(ctx), "error", err)
	}
	return relaypb.ToStatus(err)
}

func (s *GRPCServer) reply(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	out, err := relaypb.NewMessage(fields)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	return out, nil
}

func requirePath(req *structpb.Struct, field string) (graph.Path, error) {
	raw := relaypb.String(req, field)
	if raw == "" {
		return nil, fmt.Errorf("%w: %s is required", relaypb.ErrMalformed, field)
	}
	return graph.ParsePath(raw), nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(ctx, relaypb.MethodPing, map[string]any{"status": "OK"})
}

func (s *GRPCServer) Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := requirePath(req, "path")
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodGet, err)
	}
	v, found, err := s.graph.Get(ctx, p)
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodGet, err)
	}
	return s.reply(ctx, relaypb.MethodGet, map[string]any{"found": found, "value": v})
}

func (s *GRPCServer) Put(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := requirePath(req, "path")
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodPut, err)
	}
	if err := s.graph.Put(ctx, p, relaypb.Value(req, "value")); err != nil {
		return nil, s.fail(ctx, relaypb.MethodPut, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) Add(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	set, err := requirePath(req, "set")
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodAdd, err)
	}
	ref, err := requirePath(req, "ref")
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodAdd, err)
	}
	key := relaypb.String(req, "key")
	if key == "" {
		return nil, s.fail(ctx, relaypb.MethodAdd, fmt.Errorf("%w: key is required", relaypb.ErrMalformed))
	}
	if err := s.graph.Add(ctx, set, key, ref); err != nil {
		return nil, s.fail(ctx, relaypb.MethodAdd, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) Remove(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	set, err := requirePath(req, "set")
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodRemove, err)
	}
	key := relaypb.String(req, "key")
	if key == "" {
		return nil, s.fail(ctx, relaypb.MethodRemove, fmt.Errorf("%w: key is required", relaypb.ErrMalformed))
	}
	if err := s.graph.Remove(ctx, set, key); err != nil {
		return nil, s.fail(ctx, relaypb.MethodRemove, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	set, err := requirePath(req, "set")
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodList, err)
	}
	entries, err := s.graph.List(ctx, set)
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodList, err)
	}
	return s.reply(ctx, relaypb.MethodList, map[string]any{"entries": entries})
}

func (s *GRPCServer) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	alias := relaypb.String(req, "alias")
	s.logger.Info(ctx, "Create request", "alias", alias)

	pub, err := s.identities.Create(ctx, alias, relaypb.String(req, "password"))
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodCreate, err)
	}

	s.logger.Info(ctx, "Created", "alias", alias)
	return s.reply(ctx, relaypb.MethodCreate, map[string]any{"pub": pub})
}

func (s *GRPCServer) Auth(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.identities.Auth(ctx, relaypb.String(req, "alias"), relaypb.String(req, "password"))
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodAuth, err)
	}
	return s.session(ctx, relaypb.MethodAuth, sess)
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	err := s.identities.ChangePassword(ctx,
		relaypb.String(req, "alias"), relaypb.String(req, "old"), relaypb.String(req, "new"))
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodChangePassword, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) Recall(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	handle := relaypb.String(req, "handle")
	if handle == "" {
		handle = sessionHandle(ctx)
	}
	if handle == "" {
		return nil, s.fail(ctx, relaypb.MethodRecall, graph.ErrNoSession)
	}
	sess, err := s.identities.Recall(ctx, handle)
	if err != nil {
		return nil, s.fail(ctx, relaypb.MethodRecall, err)
	}
	return s.session(ctx, relaypb.MethodRecall, sess)
}

// Leave has nothing to release: handles are stateless and the client simply
// forgets its own.
func (s *GRPCServer) Leave(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) PutPrivate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key := relaypb.String(req, "key")
	if key == "" {
		return nil, s.fail(ctx, relaypb.MethodPutPrivate, fmt.Errorf("%w: key is required", relaypb.ErrMalformed))
	}
	if err := s.identities.PutPrivate(ctx, sessionHandle(ctx), key, relaypb.Value(req, "value")); err != nil {
		return nil, s.fail(ctx, relaypb.MethodPutPrivate, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) session(ctx context.Context, method string, sess graph.Session) (*structpb.Struct, error) {
	return s.reply(ctx, method, map[string]any{
		"alias":  sess.Alias,
		"pub":    sess.Pub,
		"handle": sess.Handle,
	})
}
