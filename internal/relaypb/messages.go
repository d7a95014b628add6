package relaypb

import (
	"context"
	"errors"
	"fmt"

	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/graph"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var ErrMalformed = errors.New("malformed relay message")

// NewMessage builds a message body. Values must be representable as
// structpb values: nil, bool, numbers, strings, maps and slices of those.
func NewMessage(fields map[string]any) (*structpb.Struct, error) {
	m, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

// String returns a string field, or "" when it is missing or not a string.
func String(m *structpb.Struct, key string) string {
	return m.GetFields()[key].GetStringValue()
}

func Bool(m *structpb.Struct, key string) bool {
	return m.GetFields()[key].GetBoolValue()
}

// Value returns the Go form of a field. A missing field and an explicit null
// both yield nil.
func Value(m *structpb.Struct, key string) any {
	v, ok := m.GetFields()[key]
	if !ok {
		return nil
	}
	return v.AsInterface()
}

// Has reports whether key is present, null or not.
func Has(m *structpb.Struct, key string) bool {
	_, ok := m.GetFields()[key]
	return ok
}

// Entries returns the "entries" field of a List response. Tombstones map to nil.
func Entries(m *structpb.Struct) map[string]any {
	out := map[string]any{}
	for k, v := range m.GetFields()["entries"].GetStructValue().GetFields() {
		out[k] = v.AsInterface()
	}
	return out
}

// ToStatus converts a service error into the status returned to clients.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, graph.ErrAlreadyCreated):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, graph.ErrWrongCredentials):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, graph.ErrNoSession):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrMalformed):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// FromStatus maps a status received from the relay back to the graph and
// common sentinels.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.AlreadyExists:
		return graph.ErrAlreadyCreated
	case codes.Unauthenticated:
		return graph.ErrWrongCredentials
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", graph.ErrNoSession, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrMalformed, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, st.Message())
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
