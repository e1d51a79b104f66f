package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/middleware"
	"github.com/dafibh/dealdesk-backend/internal/service"
	"github.com/dafibh/dealdesk-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Helper to set up auth context
func setupAuthContext(c echo.Context, auth0ID string, email, name, picture string) {
	setupAuthContextWithTenant(c, auth0ID, email, name, picture, 0)
}

// Helper to set up auth context with tenant ID
func setupAuthContextWithTenant(c echo.Context, auth0ID string, email, name, picture string, tenantID int32) {
	customClaims := &middleware.CustomClaims{
		Email:   email,
		Name:    name,
		Picture: picture,
	}
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: auth0ID,
		},
		CustomClaims: customClaims,
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.Auth0IDKey, auth0ID)
	if tenantID > 0 {
		ctx = context.WithValue(ctx, middleware.TenantIDKey, tenantID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

func TestCallback_NewUser(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	tenantRepo := testutil.NewMockTenantRepository()
	authService := service.NewAuthService(userRepo, tenantRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Set up auth context with claims
	setupAuthContext(c, "auth0|newuser123", "new@example.com", "New User", "https://example.com/pic.jpg")

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response AuthCallbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if !response.IsNewUser {
		t.Error("Expected IsNewUser to be true for new user")
	}

	if response.User.Email != "new@example.com" {
		t.Errorf("Expected email 'new@example.com', got %s", response.User.Email)
	}

	if response.Tenant.Name != "Personal" {
		t.Errorf("Expected tenant name 'Personal', got %s", response.Tenant.Name)
	}
}

func TestCallback_ExistingUser(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	tenantRepo := testutil.NewMockTenantRepository()
	authService := service.NewAuthService(userRepo, tenantRepo)
	handler := NewAuthHandler(authService)

	// Pre-create user and tenant
	auth0ID := "auth0|existing123"
	existingUser := &domain.User{
		ID:      uuid.New(),
		Auth0ID: auth0ID,
		Email:   "existing@example.com",
	}
	userRepo.AddUser(existingUser)

	existingTenant := &domain.Tenant{
		ID:      1,
		OwnerID: existingUser.ID,
		Name:    "My Tenant",
	}
	tenantRepo.AddTenant(existingTenant, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupAuthContext(c, auth0ID, "existing@example.com", "Existing User", "")

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response AuthCallbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.IsNewUser {
		t.Error("Expected IsNewUser to be false for existing user")
	}

	if response.Tenant.Name != "My Tenant" {
		t.Errorf("Expected tenant name 'My Tenant', got %s", response.Tenant.Name)
	}
}

func TestCallback_MissingAuth0ID(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	tenantRepo := testutil.NewMockTenantRepository()
	authService := service.NewAuthService(userRepo, tenantRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Don't set up auth context - simulating missing auth

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestCallback_MissingEmail(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	tenantRepo := testutil.NewMockTenantRepository()
	authService := service.NewAuthService(userRepo, tenantRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Set up auth context WITHOUT email
	setupAuthContext(c, "auth0|noemail123", "", "No Email User", "")

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problemDetails ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problemDetails); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if problemDetails.Type != ErrorTypeValidation {
		t.Errorf("Expected error type %s, got %s", ErrorTypeValidation, problemDetails.Type)
	}
}

func TestMe_Success(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	tenantRepo := testutil.NewMockTenantRepository()
	authService := service.NewAuthService(userRepo, tenantRepo)
	handler := NewAuthHandler(authService)

	// Pre-create user and tenant
	auth0ID := "auth0|me123"
	name := "Me User"
	existingUser := &domain.User{
		ID:      uuid.New(),
		Auth0ID: auth0ID,
		Email:   "me@example.com",
		Name:    &name,
	}
	userRepo.AddUser(existingUser)

	existingTenant := &domain.Tenant{
		ID:      1,
		OwnerID: existingUser.ID,
		Name:    "Personal",
	}
	tenantRepo.AddTenant(existingTenant, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Include tenant ID in context (simulating middleware behavior)
	setupAuthContextWithTenant(c, auth0ID, "me@example.com", name, "", existingTenant.ID)

	err := handler.Me(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response AuthCallbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.User.Email != "me@example.com" {
		t.Errorf("Expected email 'me@example.com', got %s", response.User.Email)
	}
}

func TestMe_MissingTenantID(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	tenantRepo := testutil.NewMockTenantRepository()
	authService := service.NewAuthService(userRepo, tenantRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Auth context without tenant ID
	setupAuthContext(c, "auth0|notenant", "test@example.com", "Test User", "")

	err := handler.Me(c)
	if err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestMe_UserNotFound(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	tenantRepo := testutil.NewMockTenantRepository()
	authService := service.NewAuthService(userRepo, tenantRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// User doesn't exist in repo but has tenant ID
	setupAuthContextWithTenant(c, "auth0|notfound", "notfound@example.com", "Not Found", "", 1)

	err := handler.Me(c)
	if err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestLogout_Success(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	tenantRepo := testutil.NewMockTenantRepository()
	authService := service.NewAuthService(userRepo, tenantRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Set up auth context
	setupAuthContext(c, "auth0|logout123", "logout@example.com", "Logout User", "")

	err := handler.Logout(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response LogoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Message != "Logged out successfully" {
		t.Errorf("Expected message 'Logged out successfully', got %s", response.Message)
	}
}

func TestLogout_MissingAuth0ID(t *testing.T) {
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	tenantRepo := testutil.NewMockTenantRepository()
	authService := service.NewAuthService(userRepo, tenantRepo)
	handler := NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Don't set up auth context - simulating missing auth

	err := handler.Logout(c)
	if err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}

	var problemDetails ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problemDetails); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if problemDetails.Type != ErrorTypeUnauthorized {
		t.Errorf("Expected error type %s, got %s", ErrorTypeUnauthorized, problemDetails.Type)
	}

	if problemDetails.Status != http.StatusUnauthorized {
		t.Errorf("Expected status %d in body, got %d", http.StatusUnauthorized, problemDetails.Status)
	}
}
