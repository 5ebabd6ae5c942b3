package storage

import (
	"context"
	"time"
)

// Gateway is the content-store capability the pipeline and API depend on:
// persist bytes under a key, relocate a remote URL into permanent storage,
// and mint time-limited upload URLs for direct client uploads.
type Gateway interface {
	Upload(ctx context.Context, data []byte, key, contentType string) (string, error)
	// CopyFromURL fetches sourceURL and persists its body under destKey,
	// returning the permanent public URL. Model providers hand back
	// transient URLs, so every stage output goes through this.
	CopyFromURL(ctx context.Context, sourceURL, destKey string) (string, error)
	PresignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PublicURL(key string) string
	// RemovePrefix deletes every object under the prefix. Used when a job
	// is deleted so its outputs do not leak.
	RemovePrefix(ctx context.Context, prefix string) error
}
