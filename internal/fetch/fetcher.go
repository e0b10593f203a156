// Package fetch implements the page-fetch collaborator. The core treats it
// as an opaque async operation: URL in, serialized payload out; transport and
// error mapping stay on this side of the boundary.
package fetch

import (
	"context"
)

// Fetcher retrieves one target and returns the serialized page payload.
type Fetcher interface {
	Fetch(ctx context.Context, target string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, target string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, target string) ([]byte, error) {
	return f(ctx, target)
}
