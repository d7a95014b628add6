package grpc

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/logging"
	"github.com/victoryapp/victory/internal/relaypb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// ---- fakes ----

type fakeGraph struct {
	mu     sync.Mutex
	values map[string]any
	lists  map[string]map[string]any
	err    error
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{values: map[string]any{}, lists: map[string]map[string]any{}}
}

func (f *fakeGraph) Get(ctx context.Context, p graph.Path) (any, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	v, ok := f.values[p.String()]
	return v, ok, nil
}

func (f *fakeGraph) Put(ctx context.Context, p graph.Path, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.values[p.String()] = v
	return nil
}

func (f *fakeGraph) Add(ctx context.Context, set graph.Path, key string, ref graph.Path) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lists[set.String()] == nil {
		f.lists[set.String()] = map[string]any{}
	}
	f.lists[set.String()][key] = map[string]any{"#": ref.String()}
	return nil
}

func (f *fakeGraph) Remove(ctx context.Context, set graph.Path, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lists[set.String()] == nil {
		f.lists[set.String()] = map[string]any{}
	}
	f.lists[set.String()][key] = nil
	return nil
}

func (f *fakeGraph) List(ctx context.Context, set graph.Path) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]any{}
	for k, v := range f.lists[set.String()] {
		out[k] = v
	}
	return out, nil
}

type fakeIdentities struct {
	mu        sync.Mutex
	passwords map[string]string
	private   map[string]any
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{passwords: map[string]string{}, private: map[string]any{}}
}

func (f *fakeIdentities) Create(ctx context.Context, alias, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.passwords[alias]; ok {
		return "", graph.ErrAlreadyCreated
	}
	f.passwords[alias] = password
	return "pub-" + alias, nil
}

func (f *fakeIdentities) Auth(ctx context.Context, alias, password string) (graph.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.passwords[alias]; !ok || pw != password {
		return graph.Session{}, graph.ErrWrongCredentials
	}
	return graph.Session{Alias: alias, Pub: "pub-" + alias, Handle: "handle-" + alias}, nil
}

func (f *fakeIdentities) ChangePassword(ctx context.Context, alias, oldPassword, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.passwords[alias]; !ok || pw != oldPassword {
		return graph.ErrWrongCredentials
	}
	f.passwords[alias] = newPassword
	return nil
}

func (f *fakeIdentities) Recall(ctx context.Context, handle string) (graph.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for alias := range f.passwords {
		if handle == "handle-"+alias {
			return graph.Session{Alias: alias, Pub: "pub-" + alias, Handle: handle}, nil
		}
	}
	return graph.Session{}, graph.ErrNoSession
}

func (f *fakeIdentities) PutPrivate(ctx context.Context, handle, key string, v any) error {
	sess, err := f.Recall(ctx, handle)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.private[sess.Alias+"/"+key] = v
	return nil
}

// ---- harness ----

func newTestServer() (*GRPCServer, *fakeGraph, *fakeIdentities) {
	g, ids := newFakeGraph(), newFakeIdentities()
	return NewGRPCServer("", logging.Nop(), g, ids), g, ids
}

// startBufconn serves s over an in-memory listener and returns a connected
// relay client.
func startBufconn(t *testing.T, s *GRPCServer) (*relaypb.RelayClient, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient error: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-done
	})
	return relaypb.NewRelayClient(conn), conn
}
