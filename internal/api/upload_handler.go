package api

import (
	"errors"
	"net/http"
	"strings"

	"snapbooth/site/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// UploadHandler serves stored intake files by name.
type UploadHandler struct {
	store *storage.LocalStore
}

func NewUploadHandler(store *storage.LocalStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// Serve handles GET /api/uploads/intake/*filename.
func (h *UploadHandler) Serve(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filename"), "/")

	f, info, err := h.store.Open(name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			abortWithError(c, http.StatusBadRequest, "Invalid file name")
		case errors.Is(err, storage.ErrTraversal):
			log.Warn().Str("name", name).Str("ip", c.ClientIP()).Msg("rejected upload path traversal")
			abortWithError(c, http.StatusForbidden, "Forbidden")
		case errors.Is(err, storage.ErrNotFound):
			abortWithError(c, http.StatusNotFound, "File not found")
		default:
			log.Error().Err(err).Str("name", name).Msg("failed to open upload")
			abortWithError(c, http.StatusInternalServerError, "Failed to read file")
		}
		return
	}
	defer f.Close()

	c.Header("Cache-Control", storage.CacheControl)
	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, info.Size(), storage.ContentTypeFor(info.Name()), f, nil)
}
