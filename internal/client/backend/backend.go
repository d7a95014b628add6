// Package backend talks to the Victory REST service under /api/v1, which
// pairs public keys with verified email addresses.
package backend

import (
	"context"
	"errors"
	"fmt"
)

// Registration failures, worded for display.
var (
	ErrEmailProvider = errors.New("Please Use a Gmail or ProtonMail address.")
	ErrServer        = errors.New("An Internal Server Error occurred. Please try again later.")
	ErrEmailTaken    = errors.New("An Account with that email already exists.")
)

// Verification failures, worded for display.
var (
	ErrVerifyFailed   = errors.New("Verification failed.")
	ErrInvalidCode    = errors.New("Invalid verification code.")
	ErrCodeNotFound   = errors.New("Verification code not found.")
	ErrVerifyInternal = errors.New("Internal server error during verification.")
)

// StatusError reports a response status with no dedicated sentinel.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.Status, e.Body)
}

type Client interface {
	// Validate reports whether pub is known. Transport failures report true.
	Validate(ctx context.Context, pub string) bool
	Register(ctx context.Context, pub, alias, email string) error
	VerifyRegistration(ctx context.Context, code int) error
	RequestUpdate(ctx context.Context, pub string, isAlias bool, value string) error
	VerifyUpdate(ctx context.Context, code int) error
	AliasForEmail(ctx context.Context, email string) (string, error)
}
