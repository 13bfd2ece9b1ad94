// Package search finds files in a source tree that mention a token.
package search

import (
	"context"
)

// Provider is the pluggable search capability the resolver depends on: find
// files under some root whose text mentions token, optionally narrowed by a
// path glob. Implementations may fail per invocation, the caller treats a
// failure the same as zero matches.
type Provider interface {
	Search(ctx context.Context, token, glob string) ([]string, error)
}
