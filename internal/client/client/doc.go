// Package client contains the client's connection to the outside world that
// is not the REST backend.
//
// GRPCClient implements graph.Store and graph.Identity against a relay peer
// over the victory.relay.Relay gRPC service. Reads keep graph semantics: a
// failed RPC means the callback never fires, exactly as an unreachable peer
// would behave, and callers bound their waits with nodes.Fetcher.
//
// InitDatabase and RunMigrations bootstrap the local SQLite cache with
// embedded goose migrations.
package client
