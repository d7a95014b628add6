package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/victoryapp/victory/internal/auth"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/dbx"
	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/identity"
	"github.com/victoryapp/victory/internal/server/config"
	"github.com/victoryapp/victory/internal/server/repositories/identities"
	"github.com/victoryapp/victory/internal/server/repositories/repomanager"
)

// IdentityService creates accounts and issues session handles. The relay
// keeps no session state: a handle is valid as long as its signature and
// expiry check out and the account still carries the same public key.
type IdentityService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	secretKey       []byte
	sessionValidity time.Duration
	newRecord       func(alias, password string) (*identity.Record, error)
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *IdentityService {
	return &IdentityService{
		db:              db,
		repomanager:     m,
		secretKey:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidity,
		newRecord:       identity.NewRecord,
	}
}

// Create registers alias and publishes its public key under ~@alias/pub.
func (s *IdentityService) Create(ctx context.Context, alias, password string) (string, error) {
	if alias == "" || password == "" {
		return "", graph.ErrWrongCredentials
	}
	rec, err := s.newRecord(alias, password)
	if err != nil {
		return "", err
	}

	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Identities(tx).Create(ctx, rec); err != nil {
			if errors.Is(err, identities.ErrAliasExists) {
				return graph.ErrAlreadyCreated
			}
			return err
		}
		return s.repomanager.Nodes(tx).PutLeaf(ctx, graph.AliasPath(alias).Child("pub").String(), rec.Pub)
	})
	if err != nil {
		return "", err
	}
	return rec.Pub, nil
}

func (s *IdentityService) Auth(ctx context.Context, alias, password string) (graph.Session, error) {
	rec, err := s.lookup(ctx, alias, graph.ErrWrongCredentials)
	if err != nil {
		return graph.Session{}, err
	}
	if !rec.Verify(password) {
		return graph.Session{}, graph.ErrWrongCredentials
	}

	handle, err := auth.GenerateHandle(rec.Alias, rec.Pub, s.secretKey, s.sessionValidity)
	if err != nil {
		return graph.Session{}, fmt.Errorf("issue handle: %w", err)
	}
	return graph.Session{Alias: rec.Alias, Pub: rec.Pub, Handle: handle}, nil
}

// ChangePassword reseals the account key; the public key stays the same.
func (s *IdentityService) ChangePassword(ctx context.Context, alias, oldPassword, newPassword string) error {
	rec, err := s.lookup(ctx, alias, graph.ErrWrongCredentials)
	if err != nil {
		return err
	}
	next, err := rec.Rekey(oldPassword, newPassword)
	if err != nil {
		if errors.Is(err, identity.ErrWrongPassword) {
			return graph.ErrWrongCredentials
		}
		return err
	}
	return s.repomanager.Identities(s.db).UpdateKeys(ctx, next)
}

// Recall checks handle and returns the session it was issued for.
func (s *IdentityService) Recall(ctx context.Context, handle string) (graph.Session, error) {
	claims, err := auth.ParseHandle(handle, s.secretKey)
	if err != nil {
		return graph.Session{}, fmt.Errorf("%w: %v", graph.ErrNoSession, err)
	}
	rec, err := s.lookup(ctx, claims.Alias, graph.ErrNoSession)
	if err != nil {
		return graph.Session{}, err
	}
	if rec.Pub != claims.Pub {
		return graph.Session{}, graph.ErrNoSession
	}
	return graph.Session{Alias: rec.Alias, Pub: rec.Pub, Handle: handle}, nil
}

// PutPrivate stores an owner-only value for the account behind handle.
func (s *IdentityService) PutPrivate(ctx context.Context, handle, key string, v any) error {
	if handle == "" {
		return graph.ErrNoSession
	}
	sess, err := s.Recall(ctx, handle)
	if err != nil {
		return err
	}
	v, err = normalize(v)
	if err != nil {
		return err
	}
	return s.repomanager.Identities(s.db).PutPrivate(ctx, sess.Alias, key, v)
}

func (s *IdentityService) lookup(ctx context.Context, alias string, missing error) (*identity.Record, error) {
	rec, err := s.repomanager.Identities(s.db).GetByAlias(ctx, alias)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, missing
		}
		return nil, err
	}
	return rec, nil
}
