// Package auth issues and checks the signed session handles that let a
// client recall a previously authenticated account without its password.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidHandle = errors.New("invalid session handle")

// Claims carries the account a session handle was issued for.
type Claims struct {
	jwt.RegisteredClaims
	Alias string `json:"alias"`
	Pub   string `json:"pub"`
}

func GenerateHandle(alias, pub string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   pub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Alias: alias,
		Pub:   pub,
	})
	return token.SignedString(secretKey)
}

// ParseHandle verifies the signature and expiry of handle and returns its
// claims. Every failure is reported as ErrInvalidHandle.
func ParseHandle(handle string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(handle, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	if !token.Valid || claims.Alias == "" || claims.Pub == "" {
		return nil, ErrInvalidHandle
	}
	return claims, nil
}
