package ports

import "context"

// ViewCache stores rendered pages keyed by path and viewer.
type ViewCache interface {
	Get(ctx context.Context, path, viewer string) ([]byte, bool, error)
	Set(ctx context.Context, path, viewer string, body []byte) error
	// Invalidate drops every cached rendering of the given paths, for all
	// viewers.
	Invalidate(ctx context.Context, paths ...string) error
}
