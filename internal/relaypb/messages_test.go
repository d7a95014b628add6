package relaypb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/graph"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMessageAccessors(t *testing.T) {
	m, err := NewMessage(map[string]any{
		"path":  "users/alice",
		"found": true,
		"value": nil,
		"entries": map[string]any{
			"bob":   map[string]any{"#": "users/bob"},
			"carol": nil,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "users/alice", String(m, "path"))
	assert.True(t, Bool(m, "found"))
	assert.True(t, Has(m, "value"))
	assert.Nil(t, Value(m, "value"))
	assert.False(t, Has(m, "missing"))
	assert.Equal(t, "", String(m, "missing"))

	entries := Entries(m)
	assert.Len(t, entries, 2)
	assert.Nil(t, entries["carol"])
	assert.Equal(t, map[string]any{"#": "users/bob"}, entries["bob"])
}

func TestNewMessage_RejectsUnsupported(t *testing.T) {
	_, err := NewMessage(map[string]any{"ch": make(chan int)})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestStatusRoundTrip(t *testing.T) {
	tests := []struct {
		in   error
		code codes.Code
		want error
	}{
		{graph.ErrAlreadyCreated, codes.AlreadyExists, graph.ErrAlreadyCreated},
		{graph.ErrWrongCredentials, codes.Unauthenticated, graph.ErrWrongCredentials},
		{graph.ErrNoSession, codes.FailedPrecondition, graph.ErrNoSession},
		{ErrMalformed, codes.InvalidArgument, ErrMalformed},
		{context.DeadlineExceeded, codes.DeadlineExceeded, common.ErrUnavailable},
	}
	for _, tt := range tests {
		st := ToStatus(tt.in)
		assert.Equal(t, tt.code, status.Code(st), tt.in.Error())
		assert.ErrorIs(t, FromStatus(st), tt.want)
	}
}

func TestToStatus_HidesInternalErrors(t *testing.T) {
	st := ToStatus(errors.New("db error: connection refused"))
	s, ok := status.FromError(st)
	require.True(t, ok)
	assert.Equal(t, codes.Internal, s.Code())
	assert.Equal(t, "internal error", s.Message())
}

func TestFromStatus_Unavailable(t *testing.T) {
	err := FromStatus(status.Error(codes.Unavailable, "connection refused"))
	assert.ErrorIs(t, err, common.ErrUnavailable)
	assert.Nil(t, FromStatus(nil))
}
