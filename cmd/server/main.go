package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"snapbooth/site/internal/api"
	"snapbooth/site/internal/config"
	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/logging"
	"snapbooth/site/internal/notify"
	"snapbooth/site/internal/repository"
	"snapbooth/site/internal/repository/mongo"
	"snapbooth/site/internal/service"
	"snapbooth/site/internal/session"
	"snapbooth/site/internal/sheets"
	"snapbooth/site/internal/storage"
	"snapbooth/site/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// @title Snapbooth Site API
// @version 1.0
// @description Lead capture, client intake and upload serving for the photobooth marketing site.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logging.Setup("info", false)
		log.Fatal().Err(err).Msg("could not load config")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Msg("starting snapbooth site server")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Strs("missing", cfg.MissingSinks()).Msg("invalid configuration")
	}
	for _, sink := range cfg.MissingSinks() {
		log.Warn().Str("sink", sink).Msg("sink not configured, submissions will only be logged and journaled for it")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Session Store ---
	var sessions session.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("could not connect to redis")
		}
		sessions = session.NewRedisStore(rdb, cfg.Session.TTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("sessions stored in redis")
	} else {
		sessions = session.NewMemoryStore(cfg.Session.TTL)
		log.Info().Msg("sessions stored in process memory")
	}

	// --- Database Connection ---
	var (
		intakeRepo    repository.IntakeRepository
		leadRepo      repository.LeadRepository
		notifications repository.NotificationRepository
		journal       notify.Journal
	)
	if cfg.Database.URI != "" {
		dbClient, err := mongo.ConnectDB(ctx, cfg.Database.URI)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to MongoDB")
		}
		defer func() {
			log.Info().Msg("disconnecting MongoDB")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Error().Err(err).Msg("failed to disconnect MongoDB")
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := mongo.EnsureIndexes(ctx, appDB); err != nil {
				log.Error().Err(err).Msg("index creation failed")
				return
			}
			log.Info().Msg("index creation completed")
		}()

		intakeRepo = mongo.NewMongoIntakeRepository(appDB)
		leadRepo = mongo.NewMongoLeadRepository(appDB)
		notifications = mongo.NewMongoNotificationRepository(appDB)
		journal = notifications
		log.Info().Str("database", cfg.Database.Name).Msg("database connection established")
	} else {
		fileJournal, err := notify.OpenFileJournal(cfg.Notify.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Notify.JournalPath).Msg("could not open notification journal")
		}
		defer fileJournal.Close()
		journal = fileJournal
		log.Warn().Msg("no database configured, submissions are not persisted")
	}

	// --- Initialize Storage ---
	uploads, err := storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.PublicPrefix, cfg.Server.PublicBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize upload storage")
	}
	var mirror storage.Mirror
	s3Mirror, err := storage.NewS3Mirror(ctx, cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize S3 mirror")
	}
	if s3Mirror != nil {
		mirror = s3Mirror
	}
	log.Info().Str("root", uploads.Root()).Bool("s3_mirror", mirror != nil).Msg("upload storage ready")

	// --- Sinks ---
	var sheet sheets.Appender
	if cfg.Sheets.Configured() {
		creds, err := cfg.Sheets.Credentials()
		if err != nil {
			log.Fatal().Err(err).Msg("could not read sheets credentials")
		}
		client, err := sheets.NewServiceAccountClient(ctx, creds, cfg.Sheets.BaseURL, cfg.Sheets.SpreadsheetID, 2)
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize sheets client")
		}
		sheet = client
	}

	renderer, err := notify.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("could not compile notification templates")
	}
	if err := renderer.LoadTemplateFile(domain.NotificationIntake, cfg.Notify.IntakeTemplateFile); err != nil {
		log.Fatal().Err(err).Msg("could not load intake notification template")
	}
	if err := renderer.LoadTemplateFile(domain.NotificationLead, cfg.Notify.LeadTemplateFile); err != nil {
		log.Fatal().Err(err).Msg("could not load lead notification template")
	}
	dispatcher := notify.NewDispatcher(notify.NewRelay(cfg.Relay.Endpoint, cfg.Relay.Timeout, cfg.Relay.MaxRetries), journal)

	tracking := telemetry.Multi{telemetry.LogSink{}}
	if cfg.Telemetry.MetaPixelID != "" && cfg.Telemetry.MetaAccessToken != "" {
		tracking = append(tracking, telemetry.NewMetaSink(
			&http.Client{Timeout: 10 * time.Second}, "", cfg.Telemetry.MetaPixelID, cfg.Telemetry.MetaAccessToken))
	}
	if err := tracking.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("telemetry initialization incomplete")
	}

	// --- Initialize Services ---
	bg := service.NewBackground(cfg.Notify.DispatchTimeout)
	intakeService := service.NewIntakeService(service.IntakeDeps{
		Store:      uploads,
		Mirror:     mirror,
		Sheet:      sheet,
		Repo:       intakeRepo,
		Notifier:   dispatcher,
		Renderer:   renderer,
		Telemetry:  tracking,
		Background: bg,
	}, service.IntakeOptions{
		MaxFileSize:    cfg.Storage.MaxFileSize,
		MaxInspiration: cfg.Storage.MaxInspirationImages,
		SheetRange:     cfg.Sheets.IntakeRange,
	})
	leadService := service.NewLeadService(service.LeadDeps{
		Repo:       leadRepo,
		Sheet:      sheet,
		Notifier:   dispatcher,
		Renderer:   renderer,
		Telemetry:  tracking,
		Background: bg,
	}, cfg.Sheets.LeadRange)

	authService, err := service.NewAuthService(cfg.Admin.PasswordHash, cfg.JWT.Secret, cfg.JWT.Expiration)
	if errors.Is(err, service.ErrAdminDisabled) {
		log.Info().Msg("admin API disabled")
	} else if err != nil {
		log.Fatal().Err(err).Msg("invalid admin credentials")
	}

	// --- Initialize Gin Engine ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(api.RequestLogger(), gin.Recovery())

	api.SetupRoutes(router, api.RouterDeps{
		IntakeService: intakeService,
		LeadService:   leadService,
		AuthService:   authService,
		Uploads:       uploads,
		Sessions:      sessions,
		Cookie: api.SessionCookie{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.Secure,
		},
		Site: api.SiteConfig{
			GTMID:          cfg.Telemetry.GTMID,
			MetaPixelID:    cfg.Telemetry.MetaPixelID,
			CrispWebsiteID: cfg.Telemetry.CrispWebsiteID,
		},
		IntakeRepo:     intakeRepo,
		LeadRepo:       leadRepo,
		Notifications:  notifications,
		MaxFileSize:    cfg.Storage.MaxFileSize,
		MaxInspiration: cfg.Storage.MaxInspirationImages,
	})

	handler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(router)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Address).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	// Detached notifications still in flight get the rest of the shutdown window.
	if err := bg.Wait(ctxShutdown); err != nil {
		log.Warn().Err(err).Msg("background work did not finish before shutdown")
	}
	log.Info().Msg("server exiting")
}
