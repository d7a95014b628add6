// Package services holds the client's application services. AccountService
// reconciles the in-memory session, the local credential cache and the
// remote identity into one logged-in state; ProfileService and
// FollowService act on behalf of that state.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/victoryapp/victory/internal/client/assets"
	"github.com/victoryapp/victory/internal/client/backend"
	"github.com/victoryapp/victory/internal/client/credentials"
	"github.com/victoryapp/victory/internal/client/nodes"
	"github.com/victoryapp/victory/internal/client/session"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/logging"
)

const (
	DefaultRecallTimeout = 100 * time.Millisecond
	DefaultSettleDelay   = time.Second
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_]{2,19}$`)

// AccountService owns every transition of the session state.
type AccountService interface {
	// Recall restores the previous session from its handle, falling back to
	// the remembered credentials.
	Recall(ctx context.Context) error
	Login(ctx context.Context, identifier, password string) error
	Register(ctx context.Context, username, password, email string, dob int64) error
	ResendVerification(ctx context.Context, email string) error
	VerifyRegistration(ctx context.Context, code int) error
	RequestUpdate(ctx context.Context, isAlias bool, value string) error
	VerifyUpdate(ctx context.Context, code int) error
	Logout(ctx context.Context) error
	Current() session.Snapshot
}

// Deps are the collaborators shared by the client services.
type Deps struct {
	Store    graph.Store
	Identity graph.Identity
	Backend  backend.Client
	Cache    *credentials.Cache
	State    *session.State
	Fetcher  *nodes.Fetcher
	Assets   assets.Source
	Logger   logging.Logger
}

type AccountOptions struct {
	RecallTimeout time.Duration
	SettleDelay   time.Duration
}

type accountService struct {
	Deps
	recallTimeout time.Duration
	settleDelay   time.Duration
	now           func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.Assets == nil {
		d.Assets = assets.EmbeddedSource{}
	}
	if d.Fetcher == nil {
		d.Fetcher = nodes.NewFetcher(d.Store, nodes.WithLogger(d.Logger))
	}
	return d
}

func NewAccountService(deps Deps, opts AccountOptions) AccountService {
	s := &accountService{
		Deps:          deps.withDefaults(),
		recallTimeout: opts.RecallTimeout,
		settleDelay:   opts.SettleDelay,
		now:           time.Now,
	}
	if s.recallTimeout <= 0 {
		s.recallTimeout = DefaultRecallTimeout
	}
	if s.settleDelay <= 0 {
		s.settleDelay = DefaultSettleDelay
	}
	return s
}

func (s *accountService) Current() session.Snapshot {
	return s.State.Get()
}

func (s *accountService) Recall(ctx context.Context) error {
	err := s.recallHandle(ctx)
	if err == nil {
		return nil
	}
	s.Logger.Info(ctx, "session recall failed, trying remembered account", "error", err)

	cred, ok, cerr := s.Cache.LastAccount(ctx)
	if cerr != nil {
		return fmt.Errorf("%w: %w", common.ErrSessionRecovery, cerr)
	}
	if !ok {
		return fmt.Errorf("%w: %w", common.ErrSessionRecovery, err)
	}
	if err := s.Login(ctx, cred.Username, cred.Password); err != nil {
		return fmt.Errorf("%w: %w", common.ErrSessionRecovery, err)
	}
	return nil
}

// recallHandle races Identity.Recall against recallTimeout. The losing side
// is cancelled and its result dropped.
func (s *accountService) recallHandle(ctx context.Context) error {
	handle, ok, err := s.Cache.SessionHandle(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return graph.ErrNoSession
	}

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		sess graph.Session
		err  error
	}
	out := make(chan result, 1)
	go func() {
		sess, err := s.Identity.Recall(rctx, handle)
		out <- result{sess: sess, err: err}
	}()

	t := time.NewTimer(s.recallTimeout)
	defer t.Stop()

	var sess graph.Session
	select {
	case r := <-out:
		if r.err != nil {
			s.dropRejectedHandle(ctx, r.err)
			return r.err
		}
		sess = r.sess
	case <-t.C:
		return common.ErrRecallTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	alias := strings.ToLower(sess.Alias)
	if alias == "" || sess.Pub == "" {
		return common.ErrInvalidUser
	}
	if _, err := s.Fetcher.Value(ctx, graph.UserPath(alias)); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidUser, err)
	}
	if !s.Backend.Validate(ctx, sess.Pub) {
		s.dropRejectedHandle(ctx, common.ErrInvalidUser)
		return fmt.Errorf("%w: unknown to backend", common.ErrInvalidUser)
	}
	return s.State.Set(alias, sess.Pub)
}

// dropRejectedHandle forgets a cached handle the store or backend refused,
// so later starts go straight to the remembered credentials.
func (s *accountService) dropRejectedHandle(ctx context.Context, cause error) {
	if !errors.Is(cause, graph.ErrNoSession) && !errors.Is(cause, graph.ErrWrongCredentials) &&
		!errors.Is(cause, common.ErrInvalidUser) {
		return
	}
	if err := s.Cache.ClearSessionHandle(ctx); err != nil {
		s.Logger.Warn(ctx, "clear rejected session handle", "error", err)
	}
}

func (s *accountService) Login(ctx context.Context, identifier, password string) error {
	alias := strings.ToLower(strings.TrimSpace(identifier))
	if strings.Contains(alias, "@") {
		resolved, err := s.Backend.AliasForEmail(ctx, alias)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrAuthentication, err)
		}
		alias = strings.ToLower(resolved)
	}
	if alias == "" {
		return fmt.Errorf("%w: %w", common.ErrAuthentication, common.ErrInvalidUser)
	}

	sess, err := s.Identity.Auth(ctx, alias, password)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrAuthentication, err)
	}
	if sess.Pub == "" {
		return fmt.Errorf("%w: %w", common.ErrAuthentication, session.ErrIncomplete)
	}
	if err := s.Cache.Remember(ctx, credentials.Credential{Username: alias, Password: password}, sess.Handle); err != nil {
		if lerr := s.Identity.Leave(ctx); lerr != nil {
			s.Logger.Warn(ctx, "leave after failed remember", "error", lerr)
		}
		return fmt.Errorf("remember account: %w", err)
	}
	if err := s.State.Set(alias, sess.Pub); err != nil {
		return fmt.Errorf("%w: %w", common.ErrAuthentication, err)
	}

	s.fillDefaultImages(ctx, alias)
	s.Logger.Info(ctx, "logged in", "alias", alias)
	return nil
}

// fillDefaultImages writes default avatar and banner images where the
// profile has none. Unverified accounts have no profile and are skipped.
func (s *accountService) fillDefaultImages(ctx context.Context, alias string) {
	for _, kind := range []assets.Kind{assets.Avatar, assets.Banner} {
		v, err := s.Fetcher.UserField(ctx, alias, string(kind))
		if errors.Is(err, common.ErrInvalidUser) {
			s.Logger.Debug(ctx, "no profile yet, skipping default images", "alias", alias)
			return
		}
		if err != nil {
			s.Logger.Warn(ctx, "read profile image", "alias", alias, "field", kind, "error", err)
			continue
		}
		if v != "" {
			continue
		}
		if err := s.putDefaultImage(ctx, alias, kind); err != nil {
			s.Logger.Warn(ctx, "set default image", "alias", alias, "field", kind, "error", err)
		}
	}
}

func (s *accountService) putDefaultImage(ctx context.Context, alias string, kind assets.Kind) error {
	img, err := s.Assets.Default(ctx, kind)
	if err != nil {
		return err
	}
	url, err := assets.DataURL(img)
	if err != nil {
		return err
	}
	return s.Store.Put(ctx, graph.UserPath(alias).Child(string(kind)), url)
}

func (s *accountService) Register(ctx context.Context, username, password, email string, dob int64) error {
	alias := strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(alias) {
		return common.ErrInvalidUsername
	}

	var (
		pending bool
		sess    graph.Session
	)

	return runSaga(ctx, s.Logger, "register",
		step{"logout", s.Logout},
		step{"check", func(ctx context.Context) error {
			var err error
			pending, err = s.Cache.IsPending(ctx, alias)
			if err != nil {
				return err
			}
			taken, err := s.aliasTaken(ctx, alias)
			if err != nil {
				return err
			}
			if taken && !pending {
				return common.ErrUsernameTaken
			}
			return nil
		}},
		step{"create", func(ctx context.Context) error {
			var err error
			sess, err = s.create(ctx, alias, password)
			return err
		}},
		step{"persist", func(ctx context.Context) error {
			cred := credentials.Credential{Username: alias, Password: password}
			if err := s.Cache.Remember(ctx, cred, sess.Handle); err != nil {
				return err
			}
			if err := s.State.Set(alias, sess.Pub); err != nil {
				return err
			}
			return s.Cache.MarkPending(ctx, alias)
		}},
		step{"private", func(ctx context.Context) error {
			if err := s.Identity.PutPrivate(ctx, "dob", dob); err != nil {
				s.rollbackSession(ctx)
				return err
			}
			return nil
		}},
		step{"backend", func(ctx context.Context) error {
			if err := s.Backend.Register(ctx, sess.Pub, alias, strings.ToLower(email)); err != nil {
				s.rollbackSession(ctx)
				return fmt.Errorf("%w: %w", common.ErrRegistration, err)
			}
			if err := s.Cache.ClearPending(ctx, alias); err != nil {
				s.Logger.Warn(ctx, "clear pending marker", "alias", alias, "error", err)
			}
			s.Logger.Info(ctx, "registered", "alias", alias)
			return nil
		}},
	)
}

// aliasTaken checks the alias node and the public profile. A node that does
// not answer in time counts as absent.
func (s *accountService) aliasTaken(ctx context.Context, alias string) (bool, error) {
	for _, p := range []graph.Path{graph.AliasPath(alias), graph.UserPath(alias)} {
		ok, err := s.Fetcher.Exists(ctx, p)
		if errors.Is(err, common.ErrNodeTimeout) {
			s.Logger.Warn(ctx, "alias check timed out, treating as free", "path", p.String())
			continue
		}
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// create makes the identity and authenticates it. An identity left behind by
// an earlier attempt on this device is taken over: its password is changed
// to the requested one when they differ.
func (s *accountService) create(ctx context.Context, alias, password string) (graph.Session, error) {
	_, err := s.Identity.Create(ctx, alias, password)
	switch {
	case err == nil:
		sess, err := s.Identity.Auth(ctx, alias, password)
		if err != nil {
			return graph.Session{}, fmt.Errorf("%w: %w", common.ErrAccountCreation, err)
		}
		return sess, nil
	case errors.Is(err, graph.ErrAlreadyCreated):
		return s.reconcileExisting(ctx, alias, password)
	default:
		return graph.Session{}, fmt.Errorf("%w: %w", common.ErrAccountCreation, err)
	}
}

func (s *accountService) reconcileExisting(ctx context.Context, alias, password string) (graph.Session, error) {
	old, ok, err := s.Cache.Password(ctx, alias)
	if err != nil {
		return graph.Session{}, err
	}
	if ok && old != password {
		if err := s.Identity.ChangePassword(ctx, alias, old, password); err != nil {
			return graph.Session{}, fmt.Errorf("%w: password update: %w", common.ErrAccountCreation, err)
		}
		if err := s.Cache.SetPassword(ctx, alias, password); err != nil {
			return graph.Session{}, err
		}
		s.Logger.Info(ctx, "password of existing identity updated", "alias", alias)
	}

	t := time.NewTimer(s.settleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return graph.Session{}, ctx.Err()
	case <-t.C:
	}

	if err := s.Identity.Leave(ctx); err != nil {
		return graph.Session{}, err
	}
	s.State.Clear()

	sess, err := s.Identity.Auth(ctx, alias, password)
	if err != nil {
		return graph.Session{}, fmt.Errorf("%w: %w", common.ErrAccountCreation, err)
	}
	return sess, nil
}

// rollbackSession undoes the session side of a registration that failed
// after persisting it. The per-alias password and pending marker stay so the
// next attempt can take the identity over.
func (s *accountService) rollbackSession(ctx context.Context) {
	s.State.Clear()
	if err := s.Identity.Leave(ctx); err != nil {
		s.Logger.Warn(ctx, "leave during rollback", "error", err)
	}
	if err := s.Cache.Forget(ctx); err != nil {
		s.Logger.Warn(ctx, "forget during rollback", "error", err)
	}
}

func (s *accountService) ResendVerification(ctx context.Context, email string) error {
	snap := s.State.Get()
	if !snap.LoggedIn {
		return common.ErrNotLoggedIn
	}
	if err := s.Backend.Register(ctx, snap.Pub, snap.Alias, strings.ToLower(email)); err != nil {
		return fmt.Errorf("%w: %w", common.ErrRegistration, err)
	}
	return nil
}

func (s *accountService) VerifyRegistration(ctx context.Context, code int) error {
	snap := s.State.Get()
	if !snap.LoggedIn {
		return common.ErrNotLoggedIn
	}
	if err := s.Backend.VerifyRegistration(ctx, code); err != nil {
		return fmt.Errorf("%w: %w", common.ErrVerification, err)
	}
	return s.materializeProfile(ctx, snap)
}

// materializeProfile writes the public profile field by field, leaving
// fields that already exist untouched, and indexes it under users.
func (s *accountService) materializeProfile(ctx context.Context, snap session.Snapshot) error {
	root := graph.UserPath(snap.Alias)

	existing := map[string]any{}
	v, err := s.Fetcher.Value(ctx, root)
	switch {
	case err == nil:
		if m, ok := v.(map[string]any); ok {
			existing = m
		}
	case errors.Is(err, common.ErrNodeNotFound):
	default:
		return fmt.Errorf("read profile: %w", err)
	}

	fields := []struct {
		name  string
		value any
	}{
		{"user", snap.Alias},
		{"display", snap.Alias},
		{"banner", ""},
		{"avatar", ""},
		{"bio", ""},
		{"pub", snap.Pub},
		{"created_at", s.now().Unix()},
	}
	for _, f := range fields {
		if _, ok := existing[f.name]; ok {
			continue
		}
		if err := s.Store.Put(ctx, root.Child(f.name), f.value); err != nil {
			return fmt.Errorf("write profile %s: %w", f.name, err)
		}
	}

	if err := s.Store.Add(ctx, graph.Path{common.UsersCollection}, snap.Alias, root); err != nil {
		return fmt.Errorf("index profile: %w", err)
	}
	s.Logger.Info(ctx, "profile materialized", "alias", snap.Alias)
	return nil
}

func (s *accountService) RequestUpdate(ctx context.Context, isAlias bool, value string) error {
	snap := s.State.Get()
	if !snap.LoggedIn {
		return common.ErrNotLoggedIn
	}
	return s.Backend.RequestUpdate(ctx, snap.Pub, isAlias, value)
}

func (s *accountService) VerifyUpdate(ctx context.Context, code int) error {
	if !s.State.Get().LoggedIn {
		return common.ErrNotLoggedIn
	}
	if err := s.Backend.VerifyUpdate(ctx, code); err != nil {
		return fmt.Errorf("%w: %w", common.ErrVerification, err)
	}
	return nil
}

func (s *accountService) Logout(ctx context.Context) error {
	if err := s.Identity.Leave(ctx); err != nil {
		s.Logger.Warn(ctx, "leave", "error", err)
	}
	s.State.Clear()
	if err := s.Cache.Forget(ctx); err != nil {
		return fmt.Errorf("forget account: %w", err)
	}
	return nil
}
