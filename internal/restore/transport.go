package restore

import "context"

// Transport is the bridge capability the restore engine depends on. It
// mirrors the bridge's resource API: paths are relative to the API root,
// mutating calls return the bridge-assigned identifier where one is
// created, and rejections surface as errors. *bridge.Client satisfies it;
// tests substitute an in-memory fake.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, payload any) (string, error)
	Put(ctx context.Context, path string, payload any) error
	Delete(ctx context.Context, path string) error

	// APIKey returns the destination's application key. Restored schedule
	// commands embed it in their stored addresses.
	APIKey() string
}
