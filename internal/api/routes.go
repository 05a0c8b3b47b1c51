package api

import (
	"net/http"

	"snapbooth/site/internal/repository"
	"snapbooth/site/internal/service"
	"snapbooth/site/internal/session"
	"snapbooth/site/internal/storage"

	"github.com/gin-gonic/gin"
)

// RouterDeps collects everything the HTTP layer needs. AuthService and the repositories are optional.
type RouterDeps struct {
	IntakeService  service.IntakeService
	LeadService    service.LeadService
	AuthService    service.AuthService
	Uploads        *storage.LocalStore
	Sessions       session.Store
	Cookie         SessionCookie
	Site           SiteConfig
	IntakeRepo     repository.IntakeRepository
	LeadRepo       repository.LeadRepository
	Notifications  repository.NotificationRepository
	MaxFileSize    int64
	MaxInspiration int
}

func SetupRoutes(router *gin.Engine, deps RouterDeps) {
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "Not found")
	})

	intakeHandler := NewIntakeHandler(deps.IntakeService, deps.MaxFileSize, deps.MaxInspiration)
	uploadHandler := NewUploadHandler(deps.Uploads)
	leadHandler := NewLeadHandler(deps.LeadService)
	wizardHandler := NewWizardHandler(deps.Sessions, deps.LeadService)
	siteHandler := NewSiteHandler(deps.Site)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := router.Group("/api")

	// Uploads are public and cookie-free so they can be linked from sheets and emails.
	apiGroup.GET("/uploads/intake/*filename", uploadHandler.Serve)

	visitor := apiGroup.Group("")
	visitor.Use(SessionMiddleware(deps.Cookie), AttributionMiddleware(deps.Sessions))
	{
		visitor.POST("/intake", intakeHandler.Submit)
		visitor.POST("/leads", leadHandler.Submit)
		visitor.GET("/attribution", siteHandler.Attribution)
		visitor.GET("/site-config", siteHandler.Config)

		wizardGroup := visitor.Group("/wizard")
		{
			wizardGroup.GET("", wizardHandler.Get)
			wizardGroup.POST("/answer", wizardHandler.Answer)
			wizardGroup.POST("/date", wizardHandler.Date)
			wizardGroup.POST("/reset", wizardHandler.Reset)
			wizardGroup.POST("/send", wizardHandler.Send)
		}
	}

	// --- Admin Routes ---
	// Only mounted when an admin credential is configured.
	if deps.AuthService == nil {
		return
	}
	adminHandler := NewAdminHandler(deps.AuthService, deps.IntakeRepo, deps.LeadRepo, deps.Notifications)
	adminGroup := apiGroup.Group("/admin")
	{
		adminGroup.POST("/login", adminHandler.Login)

		protected := adminGroup.Group("")
		protected.Use(AuthMiddleware(deps.AuthService.GetJWTSecret()))
		{
			protected.GET("/intake", adminHandler.ListIntake)
			protected.GET("/intake/:id", adminHandler.GetIntake)
			protected.GET("/leads", adminHandler.ListLeads)
			protected.GET("/notifications", adminHandler.ListNotifications)
		}
	}
}
