package storage

import (
	"strings"
	"testing"

	"reelcraft/internal/domain"
)

func TestJobOutputKeyIsDeterministicPerStage(t *testing.T) {
	cases := []struct {
		stage domain.Stage
		want  string
	}{
		{domain.StageAnalyzer, "jobs/job-1/analyzer.jpg"},
		{domain.StageExtractor, "jobs/job-1/extractor.png"},
		{domain.StageSetDesigner, "jobs/job-1/set_designer.png"},
		{domain.StageCinematographer, "jobs/job-1/cinematographer.mp4"},
	}
	for _, tc := range cases {
		if got := JobOutputKey("job-1", tc.stage); got != tc.want {
			t.Fatalf("JobOutputKey(%s) = %q, want %q", tc.stage, got, tc.want)
		}
	}
}

func TestJobPrefixCoversOutputKeys(t *testing.T) {
	prefix := JobPrefix("job-1")
	key := JobOutputKey("job-1", domain.StageCinematographer)
	if !strings.HasPrefix(key, prefix) {
		t.Fatalf("output key %q not under prefix %q", key, prefix)
	}
}

func TestUploadKeyKeepsExtensionAndIsUnique(t *testing.T) {
	a := UploadKey("user-1", "photo.PNG")
	b := UploadKey("user-1", "photo.PNG")
	if a == b {
		t.Fatal("upload keys should be unique per call")
	}
	if !strings.HasPrefix(a, "uploads/user-1/") {
		t.Fatalf("key %q missing user prefix", a)
	}
	if !strings.HasSuffix(a, ".png") {
		t.Fatalf("key %q should keep lowercased extension", a)
	}
}

func TestUploadKeyWithoutExtension(t *testing.T) {
	key := UploadKey("user-1", "photo")
	if !strings.HasSuffix(key, ".bin") {
		t.Fatalf("key %q should fall back to .bin", key)
	}
}
