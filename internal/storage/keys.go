package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelcraft/internal/domain"
)

// JobOutputKey returns the deterministic key for a stage's durable output.
// The extension is fixed by stage type.
func JobOutputKey(jobID string, stage domain.Stage) string {
	return fmt.Sprintf("jobs/%s/%s.%s", jobID, stage, stage.OutputExtension())
}

// JobPrefix returns the key prefix holding all of a job's outputs.
func JobPrefix(jobID string) string {
	return fmt.Sprintf("jobs/%s/", jobID)
}

// UploadKey returns a unique key for a user upload, keeping the original
// file extension.
func UploadKey(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("uploads/%s/%d-%s%s", userID, time.Now().UnixMilli(), uuid.NewString(), ext)
}
