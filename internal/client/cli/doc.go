// Package cli provides the interactive Victory command-line client.
//
// It wires configuration, the local credential cache, the relay store, the
// REST backend and the account services behind a small REPL. On start the
// previous session is recalled; after that the user drives login, register,
// verification, profile edits and follows by command.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
