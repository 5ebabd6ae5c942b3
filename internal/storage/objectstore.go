package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// maxCopyBytes caps how much a single CopyFromURL will pull from a model
// provider. Video outputs run tens of MB; anything near this limit is a
// provider bug, not a legitimate asset.
const maxCopyBytes = 512 << 20

// readLimited reads at most limit bytes. A source that exceeds the
// limit is an error: storing a truncated asset would complete the stage
// with a corrupt output.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("source exceeds %d byte limit", limit)
	}
	return body, nil
}

// ObjectStoreOptions configures an S3-compatible object store (R2, minio,
// S3 proper all speak the same protocol).
type ObjectStoreOptions struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	PublicURL  string
	UseSSL     bool
	HTTPClient *http.Client
}

// ObjectStore implements Gateway over an S3-compatible bucket.
type ObjectStore struct {
	client     *minio.Client
	httpClient *http.Client
	bucket     string
	publicURL  string
}

// NewObjectStore initializes the minio client and verifies nothing; bucket
// existence is an operational concern checked at first use.
func NewObjectStore(opts ObjectStoreOptions) (*ObjectStore, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("storage: endpoint is required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: init client: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &ObjectStore{
		client:     client,
		httpClient: httpClient,
		bucket:     opts.Bucket,
		publicURL:  strings.TrimRight(opts.PublicURL, "/"),
	}, nil
}

// Upload persists the bytes under key and returns the public URL.
func (s *ObjectStore) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// CopyFromURL downloads sourceURL and uploads its body under destKey.
func (s *ObjectStore) CopyFromURL(ctx context.Context, sourceURL, destKey string) (string, error) {
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

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.Upload(ctx, body, destKey, contentType)
}

// PresignedUploadURL mints a time-limited PUT URL so clients upload
// directly to the bucket.
func (s *ObjectStore) PresignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return u.String(), nil
}

// PublicURL returns the public URL for a key.
func (s *ObjectStore) PublicURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	u := url.URL{Scheme: "https", Host: s.client.EndpointURL().Host, Path: "/" + s.bucket + "/" + key}
	return u.String()
}

// RemovePrefix deletes every object under the prefix.
func (s *ObjectStore) RemovePrefix(ctx context.Context, prefix string) error {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("storage: list %s: %w", prefix, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("storage: remove %s: %w", obj.Key, err)
		}
	}
	return nil
}

var _ Gateway = (*ObjectStore)(nil)
