// Package grpc exposes the relay's graph and identity services over the
// victory.relay.Relay gRPC service.
package grpc

import (
	"context"
	"net"

	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/logging"
	"github.com/victoryapp/victory/internal/relaypb"
	"google.golang.org/grpc"
)

type GraphService interface {
	Get(ctx context.Context, p graph.Path) (any, bool, error)
	Put(ctx context.Context, p graph.Path, v any) error
	Add(ctx context.Context, set graph.Path, key string, ref graph.Path) error
	Remove(ctx context.Context, set graph.Path, key string) error
	List(ctx context.Context, set graph.Path) (map[string]any, error)
}

type IdentityService interface {
	Create(ctx context.Context, alias, password string) (string, error)
	Auth(ctx context.Context, alias, password string) (graph.Session, error)
	ChangePassword(ctx context.Context, alias, oldPassword, newPassword string) error
	Recall(ctx context.Context, handle string) (graph.Session, error)
	PutPrivate(ctx context.Context, handle, key string, v any) error
}

type GRPCServer struct {
	address    string
	graph      GraphService
	identities IdentityService
	logger     logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, gs GraphService, is IdentityService) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		graph:      gs,
		identities: is,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and stops gracefully when ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestIDInterceptor, s.sessionInterceptor))
	relaypb.RegisterRelayServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
