package client

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/logging"
	"github.com/victoryapp/victory/internal/relaypb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

type caller interface {
	Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	relay       caller
	logger      logging.Logger
	dialOpts    []grpc.DialOption

	mu      sync.Mutex
	session *graph.Session
}

var (
	_ graph.Store    = (*GRPCClient)(nil)
	_ graph.Identity = (*GRPCClient)(nil)
)

type Option func(*GRPCClient)

func WithLogger(l logging.Logger) Option {
	return func(c *GRPCClient) { c.logger = l }
}

// WithDialOptions appends options used when dialing the relay.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func withHeader(ctx context.Context, name, value string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(name, value)
	return metadata.NewOutgoingContext(ctx, md)
}

// sessionInterceptor attaches the current session handle and a request id to
// every outgoing call.
func (c *GRPCClient) sessionInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s, ok := c.Current(); ok && s.Handle != "" {
		ctx = withHeader(ctx, common.SessionHandleHeaderName, s.Handle)
	}
	ctx = withHeader(ctx, common.RequestIDHeaderName, uuid.NewString())
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewRelayClient connects to the relay at endpointURL. The connection is
// established lazily on the first call.
func NewRelayClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, logger: logging.Nop()}
	for _, o := range opts {
		o(c)
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.sessionInterceptor),
	}, c.dialOpts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.relay = relaypb.NewRelayClient(conn)
	c.logger = c.logger.With("module", "relay_client")
	return c, nil
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *GRPCClient) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	in, err := relaypb.NewMessage(fields)
	if err != nil {
		return nil, err
	}
	out, err := c.relay.Call(ctx, method, in)
	if err != nil {
		return nil, relaypb.FromStatus(err)
	}
	return out, nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	out, err := c.call(ctx, relaypb.MethodPing, nil)
	if err != nil {
		return err
	}
	if relaypb.String(out, "status") != "OK" {
		return common.ErrUnavailable
	}
	return nil
}

// Once fetches p in the background. A failed call is logged and fn is never
// invoked.
func (c *GRPCClient) Once(ctx context.Context, p graph.Path, fn func(v any)) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		out, err := c.call(ctx, relaypb.MethodGet, map[string]any{"path": p.String()})
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Debug(ctx, "relay get failed", "path", p.String(), "error", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if !relaypb.Bool(out, "found") {
			fn(nil)
			return
		}
		fn(relaypb.Value(out, "value"))
	}()
	return cancel
}

// Map lists set in the background and delivers entries in key order, then
// calls done. A failed call delivers nothing.
func (c *GRPCClient) Map(ctx context.Context, set graph.Path, fn func(key string, v any), done func()) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		out, err := c.call(ctx, relaypb.MethodList, map[string]any{"set": set.String()})
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Debug(ctx, "relay list failed", "set", set.String(), "error", err)
			}
			return
		}
		entries := relaypb.Entries(out)
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if ctx.Err() != nil {
				return
			}
			fn(k, entries[k])
		}
		if ctx.Err() == nil {
			done()
		}
	}()
	return cancel
}

func (c *GRPCClient) Put(ctx context.Context, p graph.Path, v any) error {
	_, err := c.call(ctx, relaypb.MethodPut, map[string]any{"path": p.String(), "value": v})
	return err
}

func (c *GRPCClient) Add(ctx context.Context, set graph.Path, key string, ref graph.Path) error {
	_, err := c.call(ctx, relaypb.MethodAdd, map[string]any{"set": set.String(), "key": key, "ref": ref.String()})
	return err
}

func (c *GRPCClient) Remove(ctx context.Context, set graph.Path, key string) error {
	_, err := c.call(ctx, relaypb.MethodRemove, map[string]any{"set": set.String(), "key": key})
	return err
}

func (c *GRPCClient) Create(ctx context.Context, alias, password string) (string, error) {
	out, err := c.call(ctx, relaypb.MethodCreate, map[string]any{"alias": alias, "password": password})
	if err != nil {
		return "", err
	}
	return relaypb.String(out, "pub"), nil
}

func (c *GRPCClient) Auth(ctx context.Context, alias, password string) (graph.Session, error) {
	out, err := c.call(ctx, relaypb.MethodAuth, map[string]any{"alias": alias, "password": password})
	if err != nil {
		return graph.Session{}, err
	}
	return c.adopt(out)
}

func (c *GRPCClient) ChangePassword(ctx context.Context, alias, oldPassword, newPassword string) error {
	_, err := c.call(ctx, relaypb.MethodChangePassword, map[string]any{"alias": alias, "old": oldPassword, "new": newPassword})
	return err
}

func (c *GRPCClient) Recall(ctx context.Context, handle string) (graph.Session, error) {
	out, err := c.call(ctx, relaypb.MethodRecall, map[string]any{"handle": handle})
	if err != nil {
		return graph.Session{}, err
	}
	return c.adopt(out)
}

// Leave drops the local session. The relay is told as a courtesy; failing to
// reach it does not keep the session alive.
func (c *GRPCClient) Leave(ctx context.Context) error {
	if _, err := c.call(ctx, relaypb.MethodLeave, nil); err != nil {
		c.logger.Debug(ctx, "relay leave failed", "error", err)
	}
	c.setSession(nil)
	return nil
}

func (c *GRPCClient) PutPrivate(ctx context.Context, key string, v any) error {
	if _, ok := c.Current(); !ok {
		return graph.ErrNoSession
	}
	_, err := c.call(ctx, relaypb.MethodPutPrivate, map[string]any{"key": key, "value": v})
	return err
}

// Current returns the session adopted by the last Auth or Recall.
func (c *GRPCClient) Current() (graph.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return graph.Session{}, false
	}
	return *c.session, true
}

func (c *GRPCClient) adopt(out *structpb.Struct) (graph.Session, error) {
	s := graph.Session{
		Alias:  relaypb.String(out, "alias"),
		Pub:    relaypb.String(out, "pub"),
		Handle: relaypb.String(out, "handle"),
	}
	if s.Alias == "" || s.Pub == "" {
		return graph.Session{}, fmt.Errorf("%w: incomplete session", relaypb.ErrMalformed)
	}
	c.setSession(&s)
	return s, nil
}

func (c *GRPCClient) setSession(s *graph.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}
