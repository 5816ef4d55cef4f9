// Package tokenstore persists the opaque access/refresh token pair outside
// the in-memory session so it survives a client restart. Stores hold
// exactly one token pair and perform no validation of token contents.
package tokenstore

import "context"

// Tokens is an opaque access/refresh token pair. Either field may be
// empty; Present reports whether both are set.
type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// Present reports whether both tokens are set.
func (t Tokens) Present() bool {
	return t.Access != "" && t.Refresh != ""
}

// Store is the persistence contract consumed by the session manager.
// Read returns zero-value Tokens (not an error) when nothing is stored;
// stored tokens never expire on their own unless the backing
// implementation is configured with a TTL.
type Store interface {
	Save(ctx context.Context, tokens Tokens) error
	Read(ctx context.Context) (Tokens, error)
	Clear(ctx context.Context) error
}
