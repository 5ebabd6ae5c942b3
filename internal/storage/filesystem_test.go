package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStoreUploadAndPublicURL(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	url, err := store.Upload(context.Background(), []byte("png-bytes"), "jobs/job-1/extractor.png", "image/png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "http://localhost:8080/static/jobs/job-1/extractor.png" {
		t.Fatalf("unexpected public url: %q", url)
	}

	data, err := os.ReadFile(filepath.Join(store.BasePath(), "jobs", "job-1", "extractor.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("stored bytes = %q", data)
	}
}

func TestFileStoreRejectsTraversalKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Upload(context.Background(), []byte("x"), "../escape.txt", "text/plain"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

func TestFileStoreCopyFromURL(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("remote-bytes"))
	}))
	defer src.Close()

	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	url, err := store.CopyFromURL(context.Background(), src.URL+"/out.png", "jobs/job-2/extractor.png")
	if err != nil {
		t.Fatalf("CopyFromURL: %v", err)
	}
	if url != "http://localhost:8080/static/jobs/job-2/extractor.png" {
		t.Fatalf("unexpected url: %q", url)
	}
	data, err := os.ReadFile(filepath.Join(store.BasePath(), "jobs", "job-2", "extractor.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "remote-bytes" {
		t.Fatalf("stored bytes = %q", data)
	}
}

func TestFileStoreCopyFromURLRejectsBadStatus(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer src.Close()

	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.CopyFromURL(context.Background(), src.URL+"/missing.png", "jobs/job-3/extractor.png"); err == nil {
		t.Fatal("expected error for non-200 source")
	}
}

func TestFileStoreRemovePrefix(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Upload(ctx, []byte("a"), "jobs/job-4/extractor.png", "image/png"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := store.RemovePrefix(ctx, "jobs/job-4/"); err != nil {
		t.Fatalf("RemovePrefix: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.BasePath(), "jobs", "job-4")); !os.IsNotExist(err) {
		t.Fatalf("prefix directory should be gone, stat err = %v", err)
	}
}

func TestReadLimitedEnforcesLimit(t *testing.T) {
	if _, err := readLimited(strings.NewReader("0123456789"), 9); err == nil {
		t.Fatal("expected error for body one byte over the limit")
	}

	body, err := readLimited(strings.NewReader("0123456789"), 10)
	if err != nil {
		t.Fatalf("readLimited at exact limit: %v", err)
	}
	if string(body) != "0123456789" {
		t.Fatalf("body = %q", body)
	}
}
