package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/repository"
	"snapbooth/site/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler serves the read-only admin API over stored submissions.
type AdminHandler struct {
	authService   service.AuthService
	intakeRepo    repository.IntakeRepository
	leadRepo      repository.LeadRepository
	notifications repository.NotificationRepository
}

// NewAdminHandler creates a new AdminHandler. Repositories may be nil when no database is configured.
func NewAdminHandler(
	authService service.AuthService,
	intakeRepo repository.IntakeRepository,
	leadRepo repository.LeadRepository,
	notifications repository.NotificationRepository,
) *AdminHandler {
	return &AdminHandler{
		authService:   authService,
		intakeRepo:    intakeRepo,
		leadRepo:      leadRepo,
		notifications: notifications,
	}
}

// --- Request/Response Structs ---

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// --- Handler Methods ---

// Login godoc
// @Summary Log in as the site admin
// @Description Checks the admin password and returns a JWT token.
// @Tags Admin
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Admin password"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, expiresAt, err := h.authService.Login(c.Request.Context(), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			log.Warn().Str("ip", c.ClientIP()).Msg("admin login failed")
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			log.Error().Err(err).Msg("admin login error")
			abortWithError(c, http.StatusInternalServerError, "Could not process login")
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// ListIntake godoc
// @Summary List recent intake submissions
// @Tags Admin
// @Produce json
// @Param limit query int false "Max items (default 50, max 200)"
// @Success 200 {object} gin.H "Items and count"
// @Failure 503 {object} gin.H "No database configured"
// @Router /admin/intake [get]
func (h *AdminHandler) ListIntake(c *gin.Context) {
	if h.intakeRepo == nil {
		abortWithError(c, http.StatusServiceUnavailable, "Submissions are not persisted on this server")
		return
	}
	items, err := h.intakeRepo.ListRecent(c.Request.Context(), limitParam(c))
	if err != nil {
		log.Error().Err(err).Msg("failed to list intake submissions")
		abortWithError(c, http.StatusInternalServerError, "Failed to list intake submissions")
		return
	}
	c.JSON(http.StatusOK, listResponse[domain.IntakeSubmission]{Items: nonNil(items), Count: len(items)})
}

// GetIntake godoc
// @Summary Get one intake submission
// @Tags Admin
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} domain.IntakeSubmission
// @Failure 400 {object} gin.H "Invalid ID"
// @Failure 404 {object} gin.H "Not found"
// @Router /admin/intake/{id} [get]
func (h *AdminHandler) GetIntake(c *gin.Context) {
	if h.intakeRepo == nil {
		abortWithError(c, http.StatusServiceUnavailable, "Submissions are not persisted on this server")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid submission ID format")
		return
	}
	sub, err := h.intakeRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Submission not found")
			return
		}
		log.Error().Err(err).Str("id", id.Hex()).Msg("failed to load intake submission")
		abortWithError(c, http.StatusInternalServerError, "Failed to load submission")
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ListLeads godoc
// @Summary List recent leads
// @Tags Admin
// @Produce json
// @Param limit query int false "Max items (default 50, max 200)"
// @Success 200 {object} gin.H "Items and count"
// @Router /admin/leads [get]
func (h *AdminHandler) ListLeads(c *gin.Context) {
	if h.leadRepo == nil {
		abortWithError(c, http.StatusServiceUnavailable, "Leads are not persisted on this server")
		return
	}
	items, err := h.leadRepo.ListRecent(c.Request.Context(), limitParam(c))
	if err != nil {
		log.Error().Err(err).Msg("failed to list leads")
		abortWithError(c, http.StatusInternalServerError, "Failed to list leads")
		return
	}
	c.JSON(http.StatusOK, listResponse[domain.Lead]{Items: nonNil(items), Count: len(items)})
}

// ListNotifications godoc
// @Summary List journaled notifications that were not delivered
// @Tags Admin
// @Produce json
// @Param limit query int false "Max items (default 50, max 200)"
// @Success 200 {object} gin.H "Items and count"
// @Router /admin/notifications [get]
func (h *AdminHandler) ListNotifications(c *gin.Context) {
	if h.notifications == nil {
		abortWithError(c, http.StatusServiceUnavailable, "The notification journal is file-backed on this server")
		return
	}
	items, err := h.notifications.ListRecent(c.Request.Context(), limitParam(c))
	if err != nil {
		log.Error().Err(err).Msg("failed to list notifications")
		abortWithError(c, http.StatusInternalServerError, "Failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, listResponse[domain.NotificationEntry]{Items: nonNil(items), Count: len(items)})
}

// limitParam reads ?limit=, leaving range enforcement to the repository.
func limitParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return repository.ClampLimit(n)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
