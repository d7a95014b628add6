// Package common defines shared constants and sentinel errors used across
// client and relay layers of Victory. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Session reconciliation errors.
	ErrAuthentication   = errors.New("authentication failed")
	ErrUsernameTaken    = errors.New("username already exists")
	ErrAccountCreation  = errors.New("user creation failed")
	ErrRegistration     = errors.New("registration failed")
	ErrSessionRecovery  = errors.New("error recalling user")
	ErrNotLoggedIn      = errors.New("account not logged in")
	ErrVerification     = errors.New("verification failed")
	ErrInvalidUsername  = errors.New("username must be 3-20 letters, digits or underscores")
	ErrRecallTimeout    = errors.New("session recall timed out")
	ErrInvalidUser      = errors.New("invalid username")
	ErrUnavailable      = errors.New("remote unavailable")
	ErrNodeTimeout      = errors.New("timed out getting value for node")
	ErrNodeNotFound     = errors.New("value not found at node")
	ErrImageTooLarge    = errors.New("image exceeds size limit")
	ErrUnsupportedImage = errors.New("unsupported image type")
)
