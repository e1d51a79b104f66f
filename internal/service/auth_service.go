package service

import (
	"errors"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo   domain.UserRepository
	tenantRepo domain.TenantRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, tenantRepo domain.TenantRepository) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
	}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	Tenant    *domain.Tenant
	IsNewUser bool
}

// AuthenticateUser handles the authentication flow after an Auth0 callback.
// Creates the user and, on first login, a default tenant (dealership)
// owned by them. No role is assigned here; the user keeps the role the
// user repository gave it.
func (s *AuthService) AuthenticateUser(auth0ID, email string, name, pictureURL *string) (*AuthResult, error) {
	user, err := s.userRepo.CreateOrGetByAuth0ID(auth0ID, email, name, pictureURL)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create or get user")
		return nil, err
	}

	tenant, err := s.tenantRepo.GetByOwnerID(user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			tenant, err = s.createDefaultTenant(user.ID)
			if err != nil {
				log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to create default tenant")
				return nil, err
			}
			log.Info().Str("user_id", user.ID.String()).Msg("Created new user with default tenant")
			return &AuthResult{User: user, Tenant: tenant, IsNewUser: true}, nil
		}
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to get tenant")
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("Existing user authenticated")
	return &AuthResult{User: user, Tenant: tenant, IsNewUser: false}, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}

// GetUserByAuth0ID retrieves a user by their Auth0 ID
func (s *AuthService) GetUserByAuth0ID(auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(auth0ID)
}

// GetTenantByOwnerID retrieves a user's tenant
func (s *AuthService) GetTenantByOwnerID(userID uuid.UUID) (*domain.Tenant, error) {
	return s.tenantRepo.GetByOwnerID(userID)
}

// GetTenantByAuth0ID retrieves the full tenant record for an Auth0 subject
func (s *AuthService) GetTenantByAuth0ID(auth0ID string) (*domain.Tenant, error) {
	return s.tenantRepo.GetByOwnerAuth0ID(auth0ID)
}

// GetTenantByID retrieves a tenant by its ID
func (s *AuthService) GetTenantByID(id int32) (*domain.Tenant, error) {
	return s.tenantRepo.GetByID(id)
}

// GetTenantIDByAuth0ID resolves just the tenant ID for an Auth0 subject,
// for callers (the WebSocket upgrade handshake) that don't need the full
// tenant record. Satisfies websocket.TenantLookup.
func (s *AuthService) GetTenantIDByAuth0ID(auth0ID string) (int32, error) {
	tenant, err := s.tenantRepo.GetByOwnerAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return tenant.ID, nil
}

func (s *AuthService) createDefaultTenant(userID uuid.UUID) (*domain.Tenant, error) {
	tenant := &domain.Tenant{
		OwnerID: userID,
		Name:    "New Dealership",
	}
	return s.tenantRepo.Create(tenant)
}

// TenantProviderAdapter adapts AuthService to middleware.TenantProvider,
// whose single-method shape (auth0ID -> tenantID, role) doesn't match any
// of AuthService's richer lookup methods directly.
type TenantProviderAdapter struct {
	auth *AuthService
}

func NewTenantProviderAdapter(auth *AuthService) *TenantProviderAdapter {
	return &TenantProviderAdapter{auth: auth}
}

// GetTenantByAuth0ID implements middleware.TenantProvider.
func (a *TenantProviderAdapter) GetTenantByAuth0ID(auth0ID string) (int32, string, error) {
	user, err := a.auth.GetUserByAuth0ID(auth0ID)
	if err != nil {
		return 0, "", err
	}
	tenant, err := a.auth.GetTenantByAuth0ID(auth0ID)
	if err != nil {
		return 0, "", err
	}
	role := string(user.Role)
	if role == "" {
		role = string(domain.RoleSalesperson)
	}
	return tenant.ID, role, nil
}
