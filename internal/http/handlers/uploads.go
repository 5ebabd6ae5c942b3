package handlers

import (
	"net/http"
	"time"

	"reelcraft/internal/storage"
)

type presignRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type" validate:"omitempty"`
}

type presignResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	PublicURL string `json:"public_url"`
}

// PresignUpload hands the client a direct PUT URL so product photos never
// stream through this service.
func (a *App) PresignUpload(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req presignRequest
	if !a.decodeAndValidate(w, r, &req) {
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.UploadKey(userID, req.Filename)
	uploadURL, err := a.Store.PresignedUploadURL(r.Context(), key, contentType, 15*time.Minute)
	if err != nil {
		a.Logger.Error().Err(err).Msg("uploads: presign failed")
		a.error(w, http.StatusNotImplemented, "unsupported", "direct uploads are not available on this deployment")
		return
	}
	a.json(w, http.StatusOK, presignResponse{
		UploadURL: uploadURL,
		Key:       key,
		PublicURL: a.Store.PublicURL(key),
	})
}
