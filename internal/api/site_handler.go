package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SiteConfig is the public configuration the frontend needs to load its third-party tags.
type SiteConfig struct {
	GTMID          string `json:"gtmId,omitempty"`
	MetaPixelID    string `json:"metaPixelId,omitempty"`
	CrispWebsiteID string `json:"crispWebsiteId,omitempty"`
}

// SiteHandler serves session and configuration lookups for the frontend.
type SiteHandler struct {
	config SiteConfig
}

func NewSiteHandler(config SiteConfig) *SiteHandler {
	return &SiteHandler{config: config}
}

// Attribution handles GET /api/attribution. The snapshot was already captured by the middleware.
func (h *SiteHandler) Attribution(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"attribution": attributionFromContext(c)})
}

// Config handles GET /api/site-config.
func (h *SiteHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, h.config)
}
