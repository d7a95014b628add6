// Package credentials persists what the client needs to log back in without
// prompting: the last account, per-alias passwords, the session handle and
// markers for registrations whose backend step has not completed.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/victoryapp/victory/internal/client/repositories/kv"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/dbx"
)

var ErrMalformed = errors.New("malformed stored credential")

// Credential is the remembered username and password.
type Credential struct {
	Username string
	Password string
}

// Encode renders c as "<username>$<password>".
func (c Credential) Encode() string {
	return c.Username + common.CredentialsDelimiter + c.Password
}

// Decode splits on the first delimiter; passwords may contain it.
func Decode(s string) (Credential, error) {
	user, pass, ok := strings.Cut(s, common.CredentialsDelimiter)
	if !ok || user == "" {
		return Credential{}, ErrMalformed
	}
	return Credential{Username: user, Password: pass}, nil
}

type Cache struct {
	db   *sql.DB
	repo kv.Repository
}

func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db, repo: kv.NewSQLiteRepository(db)}
}

// LastAccount returns ok=false when nothing is remembered.
func (c *Cache) LastAccount(ctx context.Context) (Credential, bool, error) {
	v, ok, err := c.repo.Get(ctx, common.LastAccountKey)
	if err != nil || !ok {
		return Credential{}, false, err
	}
	cred, err := Decode(v)
	if err != nil {
		return Credential{}, false, err
	}
	return cred, true, nil
}

func (c *Cache) Password(ctx context.Context, alias string) (string, bool, error) {
	return c.repo.Get(ctx, common.PasswordKeyPrefix+alias)
}

func (c *Cache) SetPassword(ctx context.Context, alias, password string) error {
	return c.repo.Set(ctx, common.PasswordKeyPrefix+alias, password)
}

func (c *Cache) SessionHandle(ctx context.Context) (string, bool, error) {
	return c.repo.Get(ctx, common.SessionHandleKey)
}

func (c *Cache) ClearSessionHandle(ctx context.Context) error {
	return c.repo.Delete(ctx, common.SessionHandleKey)
}

func (c *Cache) MarkPending(ctx context.Context, alias string) error {
	return c.repo.Set(ctx, common.PendingKeyPrefix+alias, "1")
}

func (c *Cache) IsPending(ctx context.Context, alias string) (bool, error) {
	_, ok, err := c.repo.Get(ctx, common.PendingKeyPrefix+alias)
	return ok, err
}

func (c *Cache) ClearPending(ctx context.Context, alias string) error {
	return c.repo.Delete(ctx, common.PendingKeyPrefix+alias)
}

// Remember stores everything a successful create or login leaves behind in
// one transaction: the alias password, the last account and the handle.
func (c *Cache) Remember(ctx context.Context, cred Credential, handle string) error {
	return dbx.WithTx(ctx, c.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := kv.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.PasswordKeyPrefix+cred.Username, cred.Password); err != nil {
			return err
		}
		if err := repo.Set(ctx, common.LastAccountKey, cred.Encode()); err != nil {
			return err
		}
		if handle == "" {
			return repo.Delete(ctx, common.SessionHandleKey)
		}
		return repo.Set(ctx, common.SessionHandleKey, handle)
	})
}

// Forget drops the last account and session handle together. Per-alias
// passwords and pending markers are kept.
func (c *Cache) Forget(ctx context.Context) error {
	return dbx.WithTx(ctx, c.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := kv.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, common.LastAccountKey); err != nil {
			return err
		}
		return repo.Delete(ctx, common.SessionHandleKey)
	})
}
