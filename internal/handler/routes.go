package handler

import (
	"github.com/dafibh/dealdesk-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes. dualAuth/rateLimiter gate the
// partner-facing Deal Computation Core and Atomic Deal Lifecycle Manager
// surface (C9/C10 operations DMS/CRM integrations call): either an Auth0
// session or a `ddsk_`-prefixed API token is accepted there, with the API
// token side additionally rate-limited. Every other route stays Auth0-only.
func RegisterRoutes(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	dualAuth *middleware.DualAuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *AuthHandler,
	profileHandler *ProfileHandler,
	dealHandler *DealHandler,
	apiTokenHandler *APITokenHandler,
	imageHandler *ImageHandler,
	wsHandler *WebSocketHandler,
) {
	// API version 1
	api := e.Group("/api/v1")

	// Auth routes (protected)
	auth := api.Group("/auth")
	auth.Use(authMiddleware.Authenticate())
	auth.POST("/callback", authHandler.Callback)
	auth.GET("/me", authHandler.Me)
	auth.POST("/logout", authHandler.Logout)

	// Profile routes (protected)
	profile := api.Group("/profile")
	profile.Use(authMiddleware.Authenticate())
	profile.GET("", profileHandler.GetProfile)
	profile.PUT("", profileHandler.UpdateProfile)

	// API token routes (JWT only — an API token cannot mint another token)
	tokens := api.Group("/api-tokens")
	tokens.Use(authMiddleware.Authenticate())
	tokens.POST("", apiTokenHandler.CreateAPIToken)
	tokens.GET("", apiTokenHandler.GetAPITokens)
	tokens.DELETE("/:id", apiTokenHandler.RevokeAPIToken)

	// Deal Computation Core and Atomic Deal Lifecycle Manager: the external
	// partner API token surface. DMS/CRM integrations hit these with a
	// ddsk_ token; desk staff hit them with their Auth0 session — both
	// pass through dualAuth, and RateLimitMiddleware only throttles the
	// token side (IsAPITokenAuth gates it internally).
	rateLimit := middleware.RateLimitMiddleware(rateLimiter)

	tax := api.Group("/tax")
	tax.Use(dualAuth.Authenticate(), rateLimit)
	tax.POST("/sales-tax", dealHandler.CalculateSalesTax)

	deals := api.Group("/deals")
	deals.Use(dualAuth.Authenticate(), rateLimit)
	deals.POST("/quote", dealHandler.CalculateQuote)
	deals.POST("", dealHandler.CreateDeal)
	deals.PATCH("/:id", dealHandler.UpdateDeal)
	deals.POST("/:id/transition", dealHandler.TransitionStatus)

	// Atomic Deal Lifecycle Manager: scenario editing and audit replay.
	scenarios := api.Group("/scenarios")
	scenarios.Use(dualAuth.Authenticate(), rateLimit)
	scenarios.PATCH("/:id", dealHandler.UpdateScenario)
	scenarios.GET("/:id/history", dealHandler.ScenarioHistory)
	scenarios.GET("/:id/playback", dealHandler.ScenarioPlayback)
	scenarios.GET("/:id/export", dealHandler.ExportScenario)

	// Image uploads (vehicle photos, etc.)
	images := api.Group("/images")
	images.Use(authMiddleware.Authenticate())
	images.POST("", imageHandler.UploadImage)
	images.DELETE("", imageHandler.DeleteImage)
	images.GET("/url", imageHandler.GetPresignedURL)
	images.POST("/urls", imageHandler.GetBatchPresignedURLs)

	// WebSocket: live deal/scenario updates pushed to connected desks.
	e.GET("/ws", wsHandler.HandleWS)
}
