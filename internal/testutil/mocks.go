// Package testutil provides in-memory fakes of the repository interfaces
// for handler/service unit tests, mirroring the real postgres repositories
// closely enough that a test written against a mock still exercises the
// same error-mapping and tenant-scoping behavior.
package testutil

import (
	"context"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/google/uuid"
)

// MockUserRepository is a mock implementation of domain.UserRepository.
type MockUserRepository struct {
	Users    map[string]*domain.User // by auth0ID
	ByID     map[uuid.UUID]*domain.User
	CreateFn func(auth0ID, email string, name, pictureURL *string) (*domain.User, error)
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Create(user *domain.User) (*domain.User, error) {
	user.ID = uuid.New()
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

func (m *MockUserRepository) Update(user *domain.User) (*domain.User, error) {
	if _, ok := m.ByID[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

func (m *MockUserRepository) UpdateName(auth0ID string, name string) (*domain.User, error) {
	user, ok := m.Users[auth0ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Name = &name
	return user, nil
}

func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name, pictureURL)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:         uuid.New(),
		Auth0ID:    auth0ID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
		Role:       domain.RoleSalesperson,
	}
	m.Users[auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// AddUser adds a user to the mock repository (test helper).
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockTenantRepository is a mock implementation of domain.TenantRepository.
type MockTenantRepository struct {
	Tenants       map[int32]*domain.Tenant
	ByOwnerID     map[uuid.UUID]*domain.Tenant
	ByOwnerAuth0  map[string]*domain.Tenant
	NextID        int32
	GetByOwnerFn  func(ownerID uuid.UUID) (*domain.Tenant, error)
}

func NewMockTenantRepository() *MockTenantRepository {
	return &MockTenantRepository{
		Tenants:      make(map[int32]*domain.Tenant),
		ByOwnerID:    make(map[uuid.UUID]*domain.Tenant),
		ByOwnerAuth0: make(map[string]*domain.Tenant),
		NextID:       1,
	}
}

func (m *MockTenantRepository) GetByID(id int32) (*domain.Tenant, error) {
	if t, ok := m.Tenants[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTenantNotFound
}

func (m *MockTenantRepository) GetByOwnerID(ownerID uuid.UUID) (*domain.Tenant, error) {
	if m.GetByOwnerFn != nil {
		return m.GetByOwnerFn(ownerID)
	}
	if t, ok := m.ByOwnerID[ownerID]; ok {
		return t, nil
	}
	return nil, domain.ErrTenantNotFound
}

func (m *MockTenantRepository) GetByOwnerAuth0ID(auth0ID string) (*domain.Tenant, error) {
	if t, ok := m.ByOwnerAuth0[auth0ID]; ok {
		return t, nil
	}
	return nil, domain.ErrTenantNotFound
}

func (m *MockTenantRepository) Create(tenant *domain.Tenant) (*domain.Tenant, error) {
	tenant.ID = m.NextID
	m.NextID++
	m.Tenants[tenant.ID] = tenant
	m.ByOwnerID[tenant.OwnerID] = tenant
	return tenant, nil
}

func (m *MockTenantRepository) Update(tenant *domain.Tenant) (*domain.Tenant, error) {
	if _, ok := m.Tenants[tenant.ID]; !ok {
		return nil, domain.ErrTenantNotFound
	}
	m.Tenants[tenant.ID] = tenant
	m.ByOwnerID[tenant.OwnerID] = tenant
	return tenant, nil
}

// AddTenant adds a tenant to the mock repository (test helper). auth0ID may
// be empty when the test does not need owner-by-auth0 lookup.
func (m *MockTenantRepository) AddTenant(tenant *domain.Tenant, auth0ID string) {
	m.Tenants[tenant.ID] = tenant
	m.ByOwnerID[tenant.OwnerID] = tenant
	if auth0ID != "" {
		m.ByOwnerAuth0[auth0ID] = tenant
	}
}

// MockAPITokenRepository is a mock implementation of domain.APITokenRepository.
type MockAPITokenRepository struct {
	Tokens map[uuid.UUID]*domain.APIToken
}

func NewMockAPITokenRepository() *MockAPITokenRepository {
	return &MockAPITokenRepository{Tokens: make(map[uuid.UUID]*domain.APIToken)}
}

func (m *MockAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now()
	m.Tokens[token.ID] = token
	return nil
}

func (m *MockAPITokenRepository) GetByTenant(ctx context.Context, tenantID int32) ([]*domain.APIToken, error) {
	var out []*domain.APIToken
	for _, t := range m.Tokens {
		if t.TenantID == tenantID && t.RevokedAt == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockAPITokenRepository) GetByID(ctx context.Context, tenantID int32, id uuid.UUID) (*domain.APIToken, error) {
	if t, ok := m.Tokens[id]; ok && t.TenantID == tenantID {
		return t, nil
	}
	return nil, domain.ErrAPITokenNotFound
}

func (m *MockAPITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	for _, t := range m.Tokens {
		if t.TokenHash == hash && t.RevokedAt == nil {
			return t, nil
		}
	}
	return nil, domain.ErrAPITokenNotFound
}

func (m *MockAPITokenRepository) Revoke(ctx context.Context, tenantID int32, id uuid.UUID) error {
	t, ok := m.Tokens[id]
	if !ok || t.TenantID != tenantID || t.RevokedAt != nil {
		return domain.ErrAPITokenNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *MockAPITokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	if t, ok := m.Tokens[id]; ok {
		now := time.Now()
		t.LastUsedAt = &now
	}
	return nil
}

// AddToken adds a token to the mock repository (test helper).
func (m *MockAPITokenRepository) AddToken(token *domain.APIToken) {
	m.Tokens[token.ID] = token
}

// MockTransactionManager runs transactional work directly against a
// mockTx, with no real isolation or rollback — sufficient for service
// tests that exercise the happy path and validation-error short circuits,
// not for concurrency behavior (that is left to the postgres integration
// surface, which cannot be exercised without a live database).
type MockTransactionManager struct {
	FailWith error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(fn func(tx domain.Tx) error) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	return fn(nil)
}

func (m *MockTransactionManager) WithSerializableTransaction(fn func(tx domain.Tx) error) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	return fn(nil)
}

// MockJurisdictionRepository is a mock implementation of domain.JurisdictionRepository.
type MockJurisdictionRepository struct {
	ByZip map[string]*domain.Jurisdiction
}

func NewMockJurisdictionRepository() *MockJurisdictionRepository {
	return &MockJurisdictionRepository{ByZip: make(map[string]*domain.Jurisdiction)}
}

func (m *MockJurisdictionRepository) Resolve(zip string, asOfDate time.Time) (*domain.Jurisdiction, error) {
	if j, ok := m.ByZip[zip]; ok {
		return j, nil
	}
	return nil, domain.ErrJurisdictionNotFound
}

func (m *MockJurisdictionRepository) Upsert(j *domain.Jurisdiction) (*domain.Jurisdiction, error) {
	m.ByZip[j.Zip] = j
	return j, nil
}

// AddJurisdiction adds a jurisdiction to the mock repository (test helper).
func (m *MockJurisdictionRepository) AddJurisdiction(j *domain.Jurisdiction) {
	m.ByZip[j.Zip] = j
}

// MockStateRuleRepository is a mock implementation of domain.StateRuleRepository.
type MockStateRuleRepository struct {
	ByState map[string]*domain.StateRules
}

func NewMockStateRuleRepository() *MockStateRuleRepository {
	return &MockStateRuleRepository{ByState: make(map[string]*domain.StateRules)}
}

func (m *MockStateRuleRepository) Get(stateCode string, asOfDate time.Time) (*domain.StateRules, error) {
	if r, ok := m.ByState[stateCode]; ok {
		return r, nil
	}
	return nil, domain.ErrStateRulesNotFound
}

func (m *MockStateRuleRepository) Upsert(r *domain.StateRules) (*domain.StateRules, error) {
	m.ByState[r.StateCode] = r
	return r, nil
}

// AddStateRules adds a rule set to the mock repository (test helper).
func (m *MockStateRuleRepository) AddStateRules(r *domain.StateRules) {
	m.ByState[r.StateCode] = r
}

// MockDealRepository is a mock implementation of domain.DealRepository.
type MockDealRepository struct {
	Deals map[uuid.UUID]*domain.Deal
}

func NewMockDealRepository() *MockDealRepository {
	return &MockDealRepository{Deals: make(map[uuid.UUID]*domain.Deal)}
}

func (m *MockDealRepository) GetByID(tenantID int32, id uuid.UUID) (*domain.Deal, error) {
	if d, ok := m.Deals[id]; ok && d.TenantID == tenantID {
		copied := *d
		return &copied, nil
	}
	return nil, domain.ErrDealNotFound
}

func (m *MockDealRepository) GetByIDForUpdate(tx domain.Tx, tenantID int32, id uuid.UUID) (*domain.Deal, error) {
	return m.GetByID(tenantID, id)
}

func (m *MockDealRepository) Create(tx domain.Tx, d *domain.Deal) (*domain.Deal, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Version = 1
	m.Deals[d.ID] = d
	return d, nil
}

func (m *MockDealRepository) Update(tx domain.Tx, d *domain.Deal, expectedVersion int32) (*domain.Deal, error) {
	existing, ok := m.Deals[d.ID]
	if !ok || existing.TenantID != d.TenantID {
		return nil, domain.ErrDealNotFound
	}
	if existing.Version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}
	if existing.CustomerID == d.CustomerID &&
		intPtrEqual(existing.VehicleID, d.VehicleID) &&
		existing.SalespersonID == d.SalespersonID &&
		existing.Status == d.Status &&
		existing.CurrentScenarioID == d.CurrentScenarioID {
		return existing, nil
	}
	d.Version = expectedVersion + 1
	m.Deals[d.ID] = d
	return d, nil
}

func intPtrEqual(a, b *int32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *MockDealRepository) ListByTenant(tenantID int32) ([]*domain.Deal, error) {
	var out []*domain.Deal
	for _, d := range m.Deals {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	return out, nil
}

// AddDeal adds a deal to the mock repository (test helper).
func (m *MockDealRepository) AddDeal(d *domain.Deal) {
	m.Deals[d.ID] = d
}

// MockScenarioRepository is a mock implementation of domain.ScenarioRepository.
type MockScenarioRepository struct {
	Scenarios map[uuid.UUID]*domain.Scenario
}

func NewMockScenarioRepository() *MockScenarioRepository {
	return &MockScenarioRepository{Scenarios: make(map[uuid.UUID]*domain.Scenario)}
}

func (m *MockScenarioRepository) GetByID(tenantID int32, id uuid.UUID) (*domain.Scenario, error) {
	if s, ok := m.Scenarios[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockScenarioRepository) Create(tx domain.Tx, s *domain.Scenario) (*domain.Scenario, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.Scenarios[s.ID] = s
	return s, nil
}

func (m *MockScenarioRepository) Update(tx domain.Tx, s *domain.Scenario) (*domain.Scenario, error) {
	if _, ok := m.Scenarios[s.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	m.Scenarios[s.ID] = s
	return s, nil
}

func (m *MockScenarioRepository) ListByDeal(tenantID int32, dealID uuid.UUID) ([]*domain.Scenario, error) {
	var out []*domain.Scenario
	for _, s := range m.Scenarios {
		if s.DealID == dealID {
			out = append(out, s)
		}
	}
	return out, nil
}

// AddScenario adds a scenario to the mock repository (test helper).
func (m *MockScenarioRepository) AddScenario(s *domain.Scenario) {
	m.Scenarios[s.ID] = s
}

// MockChangeLogRepository is a mock implementation of domain.ChangeLogRepository.
type MockChangeLogRepository struct {
	Entries []*domain.ScenarioChangeLog
}

func NewMockChangeLogRepository() *MockChangeLogRepository {
	return &MockChangeLogRepository{}
}

func (m *MockChangeLogRepository) Append(tx domain.Tx, entry *domain.ScenarioChangeLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockChangeLogRepository) History(scenarioID uuid.UUID) ([]*domain.ScenarioChangeLog, error) {
	var out []*domain.ScenarioChangeLog
	for _, e := range m.Entries {
		if e.ScenarioID == scenarioID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockChangeLogRepository) LatestTimestamp(scenarioID uuid.UUID) (time.Time, error) {
	var latest time.Time
	for _, e := range m.Entries {
		if e.ScenarioID == scenarioID && e.Timestamp.After(latest) {
			latest = e.Timestamp
		}
	}
	return latest, nil
}

// MockVehicleRepository is a mock implementation of domain.VehicleRepository.
type MockVehicleRepository struct {
	Vehicles map[int32]*domain.Vehicle
}

func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{Vehicles: make(map[int32]*domain.Vehicle)}
}

func (m *MockVehicleRepository) GetByID(tenantID int32, id int32) (*domain.Vehicle, error) {
	if v, ok := m.Vehicles[id]; ok && v.TenantID == tenantID {
		return v, nil
	}
	return nil, domain.ErrVehicleNotFound
}

func (m *MockVehicleRepository) GetByIDForUpdate(tx domain.Tx, tenantID int32, id int32) (*domain.Vehicle, error) {
	return m.GetByID(tenantID, id)
}

func (m *MockVehicleRepository) Create(v *domain.Vehicle) (*domain.Vehicle, error) {
	m.Vehicles[v.ID] = v
	return v, nil
}

func (m *MockVehicleRepository) Update(tx domain.Tx, v *domain.Vehicle) (*domain.Vehicle, error) {
	if _, ok := m.Vehicles[v.ID]; !ok {
		return nil, domain.ErrVehicleNotFound
	}
	m.Vehicles[v.ID] = v
	return v, nil
}

func (m *MockVehicleRepository) ListAvailable(tenantID int32) ([]*domain.Vehicle, error) {
	var out []*domain.Vehicle
	for _, v := range m.Vehicles {
		if v.TenantID == tenantID && v.Status == domain.VehicleStatusAvailable {
			out = append(out, v)
		}
	}
	return out, nil
}

// AddVehicle adds a vehicle to the mock repository (test helper).
func (m *MockVehicleRepository) AddVehicle(v *domain.Vehicle) {
	m.Vehicles[v.ID] = v
}

// MockCustomerRepository is a mock implementation of domain.CustomerRepository.
type MockCustomerRepository struct {
	Customers map[uuid.UUID]*domain.Customer
}

func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{Customers: make(map[uuid.UUID]*domain.Customer)}
}

func (m *MockCustomerRepository) GetByID(tenantID int32, id uuid.UUID) (*domain.Customer, error) {
	if c, ok := m.Customers[id]; ok && c.TenantID == tenantID {
		return c, nil
	}
	return nil, domain.ErrCustomerNotFound
}

func (m *MockCustomerRepository) FindByContact(tx domain.Tx, tenantID int32, email, phone string) (*domain.Customer, error) {
	for _, c := range m.Customers {
		if c.TenantID == tenantID && c.Email == email && c.Phone == phone {
			return c, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (m *MockCustomerRepository) Create(tx domain.Tx, c *domain.Customer) (*domain.Customer, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.Customers[c.ID] = c
	return c, nil
}

// AddCustomer adds a customer to the mock repository (test helper).
func (m *MockCustomerRepository) AddCustomer(c *domain.Customer) {
	m.Customers[c.ID] = c
}

// MockStockNumberRepository is a mock implementation of domain.StockNumberRepository.
type MockStockNumberRepository struct {
	next int
}

func NewMockStockNumberRepository() *MockStockNumberRepository {
	return &MockStockNumberRepository{}
}

func (m *MockStockNumberRepository) NextDealNumber(tx domain.Tx, tenantID int32, now time.Time) (string, error) {
	m.next++
	return fmtDealNumber(now, m.next), nil
}

func fmtDealNumber(now time.Time, n int) string {
	return now.Format("2006-0102-") + padInt(n)
}

func padInt(n int) string {
	s := ""
	for i := 0; i < 4; i++ {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	return s
}
