// Package common contains shared constants and sentinel errors used across
// Victory components.
package common

// SessionHandleHeaderName is the gRPC metadata key used to carry the
// session handle on outbound relay requests.
const SessionHandleHeaderName = "session_handle"

// RequestIDHeaderName is attached to every outbound REST and relay call.
const RequestIDHeaderName = "x-request-id"

// UsersCollection is the root collection indexing every public profile.
const UsersCollection = "users"

// Local cache keys.
const (
	LastAccountKey       = "lastAccount"
	SessionHandleKey     = "session"
	PasswordKeyPrefix    = "password:"
	PendingKeyPrefix     = "pending:"
	CredentialsDelimiter = "$"
)
