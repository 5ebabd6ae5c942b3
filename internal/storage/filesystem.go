package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore persists assets onto the local filesystem. It is intended for
// development and test environments where an object storage service is not
// available; the API serves its contents under a static route.
type FileStore struct {
	basePath   string
	baseURL    string
	httpClient *http.Client
}

// NewFileStore initializes a FileStore rooted at basePath, serving files
// publicly under baseURL.
func NewFileStore(basePath, baseURL string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{
		basePath:   basePath,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	return s.basePath
}

// Upload persists the provided bytes at the given relative key. Keys are
// cleaned to prevent directory traversal.
func (s *FileStore) Upload(ctx context.Context, data []byte, key, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return s.PublicURL(cleanKey), nil
}

// CopyFromURL fetches sourceURL and writes its body under destKey.
func (s *FileStore) CopyFromURL(ctx context.Context, sourceURL, destKey string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("storage: build fetch request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: fetch %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("storage: fetch %s: unexpected status %d", sourceURL, resp.StatusCode)
	}
	body, err := readLimited(resp.Body, maxCopyBytes)
	if err != nil {
		return "", fmt.Errorf("storage: read %s: %w", sourceURL, err)
	}
	return s.Upload(ctx, body, destKey, resp.Header.Get("Content-Type"))
}

// PresignedUploadURL is unsupported on the filesystem store; direct
// uploads require an object storage backend.
func (s *FileStore) PresignedUploadURL(context.Context, string, string, time.Duration) (string, error) {
	return "", errors.New("storage: presigned uploads require object storage")
}

// PublicURL returns the static-route URL for a key.
func (s *FileStore) PublicURL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// RemovePrefix deletes everything under the prefix directory.
func (s *FileStore) RemovePrefix(_ context.Context, prefix string) error {
	cleanPrefix, err := sanitizeKey(prefix)
	if err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.basePath, filepath.FromSlash(cleanPrefix)))
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

var _ Gateway = (*FileStore)(nil)
