package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/config"
	"github.com/dafibh/dealdesk-backend/internal/handler"
	"github.com/dafibh/dealdesk-backend/internal/jurisdiction"
	"github.com/dafibh/dealdesk-backend/internal/middleware"
	"github.com/dafibh/dealdesk-backend/internal/repository/postgres"
	"github.com/dafibh/dealdesk-backend/internal/repository/storage"
	"github.com/dafibh/dealdesk-backend/internal/service"
	"github.com/dafibh/dealdesk-backend/internal/staterules"
	"github.com/dafibh/dealdesk-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	tenantRepo := postgres.NewTenantRepository(pool)
	apiTokenRepo := postgres.NewAPITokenRepository(pool)
	jurisdictionRepo := postgres.NewJurisdictionRepository(pool)
	stateRuleRepo := postgres.NewStateRuleRepository(pool)
	dealRepo := postgres.NewDealRepository(pool)
	scenarioRepo := postgres.NewScenarioRepository(pool)
	changeLogRepo := postgres.NewChangeLogRepository(pool)
	vehicleRepo := postgres.NewVehicleRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	stockNumberRepo := postgres.NewStockNumberRepository(pool)
	txManager := postgres.NewTransactionManager(pool)

	// Reference-data lookups wrap their repositories with the domain's
	// point-in-time resolution rules (C2/C3).
	jurisdictionResolver := jurisdiction.NewResolver(jurisdictionRepo)
	stateRuleStore := staterules.NewStore(stateRuleRepo)

	// Initialize services
	authService := service.NewAuthService(userRepo, tenantRepo)
	profileService := service.NewProfileService(userRepo)
	apiTokenService := service.NewAPITokenService(apiTokenRepo)
	dealService := service.NewDealService(
		txManager, dealRepo, scenarioRepo, changeLogRepo,
		vehicleRepo, customerRepo, stockNumberRepo,
		jurisdictionRepo, stateRuleRepo,
	)

	// Object storage backs both image uploads and quote export/archival;
	// both report "disabled" the same way when it isn't configured.
	var imageService *service.ImageService
	var exportService *service.ExportService
	if cfg.S3.Bucket != "" && cfg.S3.AccessKeyID != "" {
		imageRepo, err := storage.NewS3ImageRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize image storage")
		}
		imageService = service.NewImageService(imageRepo)
		exportService = service.NewExportService(imageRepo)
	} else {
		log.Warn().Msg("Image storage not configured; upload endpoints will report unavailable")
		imageService = service.NewImageService(nil)
		exportService = service.NewExportService(nil)
	}

	scenarioService := service.NewScenarioService(
		txManager, scenarioRepo, changeLogRepo, jurisdictionRepo, stateRuleRepo, exportService,
	)

	hub := websocket.NewHub()

	// Create tenant provider adapter for auth middleware
	tenantProvider := service.NewTenantProviderAdapter(authService)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, tenantProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	// DMS/CRM integrations authenticate with a long-lived API token instead
	// of an Auth0 session; dualAuthMiddleware accepts either on the partner
	// surface, and rateLimiter throttles the API-token side of it only.
	apiTokenAuthMiddleware := middleware.NewAPITokenAuthMiddleware(apiTokenService)
	dualAuthMiddleware := middleware.NewDualAuthMiddleware(authMiddleware, apiTokenAuthMiddleware)
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService)
	apiTokenHandler := handler.NewAPITokenHandler(apiTokenService, authService)
	dealHandler := handler.NewDealHandler(authService, dealService, scenarioService, jurisdictionResolver, stateRuleStore)
	imageHandler := handler.NewImageHandler(imageService)
	wsHandler := handler.NewWebSocketHandler(hub, authMiddleware, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	handler.RegisterRoutes(e, authMiddleware, dualAuthMiddleware, rateLimiter, authHandler, profileHandler, dealHandler, apiTokenHandler, imageHandler, wsHandler)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
