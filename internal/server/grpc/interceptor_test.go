package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/relaypb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestSessionInterceptor_PassesHandleThrough(t *testing.T) {
	s, _, _ := newTestServer()
	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs(common.SessionHandleHeaderName, "h-1"))
	info := &grpc.UnaryServerInfo{FullMethod: relaypb.FullMethod(relaypb.MethodPutPrivate)}

	var got string
	_, err := s.sessionInterceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		got = sessionHandle(ctx)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "h-1", got)
}

func TestSessionInterceptor_PutPrivateWithoutHandle(t *testing.T) {
	s, _, _ := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: relaypb.FullMethod(relaypb.MethodPutPrivate)}

	_, err := s.sessionInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called without a session handle")
		return nil, nil
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestSessionInterceptor_OtherMethodsAllowed(t *testing.T) {
	s, _, _ := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: relaypb.FullMethod(relaypb.MethodGet)}

	called := false
	resp, err := s.sessionInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		called = true
		return "ok", nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", resp)
}

func TestRequestIDInterceptor(t *testing.T) {
	s, _, _ := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: relaypb.FullMethod(relaypb.MethodPing)}

	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs(common.RequestIDHeaderName, "req-42"))
	var got string
	_, err := s.requestIDInterceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		got = requestID(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-42", got)

	_, err = s.requestIDInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		got = requestID(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 36)
}
