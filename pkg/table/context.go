package table

import "context"

type revalidateKey struct{}

// withRevalidate marks ctx as belonging to an explicit reload.
func withRevalidate(ctx context.Context) context.Context {
	return context.WithValue(ctx, revalidateKey{}, true)
}

// Revalidate reports whether the fetch running under ctx was requested by
// Reload. Search functions backed by a cache should bypass fresh entries.
func Revalidate(ctx context.Context) bool {
	v, _ := ctx.Value(revalidateKey{}).(bool)
	return v
}
