// Package identity keeps account key material: an ed25519 signing key whose
// private half is sealed under a password-derived key. The relay and the
// in-memory graph both store accounts as Records.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/cryptox"
)

var ErrWrongPassword = errors.New("wrong password")

// Record is everything persisted for one alias.
type Record struct {
	Alias     string
	Pub       string
	Salt      []byte
	Verifier  []byte
	SealedKey []byte
	Nonce     []byte
}

// NewRecord generates a fresh key pair for alias and seals it under password.
func NewRecord(alias, password string) (*Record, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	defer common.WipeByteArray(priv)

	r := &Record{Alias: alias, Pub: EncodePub(pub)}
	if err := r.seal(priv, password); err != nil {
		return nil, err
	}
	return r, nil
}

// EncodePub renders a public key the way it appears in profiles and alias nodes.
func EncodePub(pub ed25519.PublicKey) string {
	return base64.RawURLEncoding.EncodeToString(pub)
}

// Verify reports whether password unlocks r.
func (r *Record) Verify(password string) bool {
	key := cryptox.DeriveMasterKey([]byte(password), r.Salt)
	defer common.WipeByteArray(key)
	return subtle.ConstantTimeCompare(cryptox.MakeVerifier(key), r.Verifier) == 1
}

// PrivateKey unseals the signing key.
func (r *Record) PrivateKey(password string) (ed25519.PrivateKey, error) {
	if !r.Verify(password) {
		return nil, ErrWrongPassword
	}
	key := cryptox.DeriveMasterKey([]byte(password), r.Salt)
	defer common.WipeByteArray(key)

	priv, err := cryptox.Open(r.SealedKey, r.Nonce, key)
	if err != nil {
		return nil, fmt.Errorf("unseal key: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unseal key: unexpected size %d", len(priv))
	}
	return ed25519.PrivateKey(priv), nil
}

// Rekey re-seals the signing key under newPassword. The public key, and so
// the account's identity, is unchanged.
func (r *Record) Rekey(oldPassword, newPassword string) (*Record, error) {
	priv, err := r.PrivateKey(oldPassword)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(priv)

	next := &Record{Alias: r.Alias, Pub: r.Pub}
	if err := next.seal(priv, newPassword); err != nil {
		return nil, err
	}
	return next, nil
}

func (r *Record) seal(priv ed25519.PrivateKey, password string) error {
	r.Salt = common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveMasterKey([]byte(password), r.Salt)
	defer common.WipeByteArray(key)

	r.Verifier = cryptox.MakeVerifier(key)
	sealed, nonce, err := cryptox.Seal(priv, key)
	if err != nil {
		return fmt.Errorf("seal key: %w", err)
	}
	r.SealedKey, r.Nonce = sealed, nonce
	return nil
}
