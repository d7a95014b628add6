package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/relaypb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type ctxKey string

const (
	sessionHandleKey ctxKey = "sessionHandle"
	requestIDKey     ctxKey = "requestID"
)

func firstValue(ctx context.Context, name string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(name); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// requestIDInterceptor tags every call with the caller's request id (or a
// fresh one) and logs its outcome.
func (s *GRPCServer) requestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := firstValue(ctx, common.RequestIDHeaderName)
	if id == "" {
		id = uuid.NewString()
	}
	ctx = context.WithValue(ctx, requestIDKey, id)

	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "request_id", id,
		"duration", time.Since(start), "error", err)
	return resp, err
}

// sessionInterceptor requires a session handle on owner-only methods and
// passes it to the handler through the context.
func (s *GRPCServer) sessionInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	handle := firstValue(ctx, common.SessionHandleHeaderName)

	if info.FullMethod == relaypb.FullMethod(relaypb.MethodPutPrivate) && handle == "" {
		return nil, relaypb.ToStatus(graph.ErrNoSession)
	}
	if handle != "" {
		ctx = context.WithValue(ctx, sessionHandleKey, handle)
	}
	return handler(ctx, req)
}

func sessionHandle(ctx context.Context) string {
	h, _ := ctx.Value(sessionHandleKey).(string)
	return h
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
