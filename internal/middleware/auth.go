package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// Auth0IDKey is the context key for the Auth0 user ID (subject)
	Auth0IDKey contextKey = "auth0_id"
	// TenantIDKey is the context key for the caller's tenant (dealership) ID
	TenantIDKey contextKey = "tenant_id"
	// RoleKey is the context key for the caller's role within the tenant
	RoleKey contextKey = "role"
)

// TenantProvider resolves the tenant and role for an authenticated Auth0 subject.
type TenantProvider interface {
	GetTenantByAuth0ID(auth0ID string) (tenantID int32, role string, err error)
}

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	validator      *validator.Validator
	tenantProvider TenantProvider
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domain, audience string, tenantProvider TenantProvider) (*AuthMiddleware, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMiddleware{
		validator:      jwtValidator,
		tenantProvider: tenantProvider,
	}, nil
}

// Authenticate returns an Echo middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			token := parts[1]

			// Validate the token
			claims, err := m.validator.ValidateToken(c.Request().Context(), token)
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			validatedClaims, ok := claims.(*validator.ValidatedClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
			}

			auth0ID := validatedClaims.RegisteredClaims.Subject

			// Store claims in context
			ctx := context.WithValue(c.Request().Context(), ClaimsKey, validatedClaims)
			ctx = context.WithValue(ctx, Auth0IDKey, auth0ID)

			// Fetch tenant by auth0_id and inject into context
			if m.tenantProvider != nil {
				tenantID, role, err := m.tenantProvider.GetTenantByAuth0ID(auth0ID)
				if err != nil {
					log.Debug().Err(err).Str("auth0_id", auth0ID).Msg("Tenant lookup failed")
					return echo.NewHTTPError(http.StatusUnauthorized, "tenant not found")
				}
				ctx = context.WithValue(ctx, TenantIDKey, tenantID)
				ctx = context.WithValue(ctx, RoleKey, role)
			}

			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// ValidateToken validates a bearer token outside the Echo middleware chain
// and returns its tenant ID — used by the WebSocket upgrade handshake,
// which authenticates once at connect time rather than per-request.
func (m *AuthMiddleware) ValidateToken(token string) (int32, error) {
	claims, err := m.validator.ValidateToken(context.Background(), token)
	if err != nil {
		return 0, err
	}
	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
	}
	auth0ID := validatedClaims.RegisteredClaims.Subject

	if m.tenantProvider == nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "tenant provider not configured")
	}
	tenantID, _, err := m.tenantProvider.GetTenantByAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return tenantID, nil
}

// GetAuth0ID extracts the Auth0 user ID from the context
func GetAuth0ID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(Auth0IDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}

// GetCustomClaims extracts the custom claims from the context
func GetCustomClaims(c echo.Context) *CustomClaims {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		return custom
	}
	return nil
}

// GetTenantID extracts the tenant ID from the context
func GetTenantID(c echo.Context) int32 {
	if id, ok := c.Request().Context().Value(TenantIDKey).(int32); ok {
		return id
	}
	return 0
}

// GetRole extracts the caller's role from the context
func GetRole(c echo.Context) string {
	if role, ok := c.Request().Context().Value(RoleKey).(string); ok {
		return role
	}
	return ""
}
