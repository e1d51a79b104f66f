package domain

import (
	"time"

	"github.com/dafibh/dealdesk-backend/internal/money"
	"github.com/google/uuid"
)

// VehicleStatus tracks a vehicle's availability for a new deal.
type VehicleStatus string

const (
	VehicleStatusAvailable VehicleStatus = "available"
	VehicleStatusPending   VehicleStatus = "pending"
	VehicleStatusInDeal    VehicleStatus = "in_deal"
	VehicleStatusSold      VehicleStatus = "sold"
)

// Vehicle is one unit of dealer inventory. It may be softly reserved by at
// most one Deal at a time, via ReservedForDealID — a weak reference, never
// an owning one.
type Vehicle struct {
	ID                int32
	TenantID          int32
	VIN               string
	StockNumber       string
	Year              int
	Make              string
	Model             string
	Trim              string
	MSRP              money.Money
	Cost              money.Money
	Status            VehicleStatus
	ReservedForDealID *uuid.UUID
	ReservedUntil     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// VehicleRepository persists inventory.
type VehicleRepository interface {
	GetByID(tenantID int32, id int32) (*Vehicle, error)
	GetByIDForUpdate(tx Tx, tenantID int32, id int32) (*Vehicle, error)
	Create(v *Vehicle) (*Vehicle, error)
	Update(tx Tx, v *Vehicle) (*Vehicle, error)
	ListAvailable(tenantID int32) ([]*Vehicle, error)
}

// Customer is a dealership's tenant-scoped contact record.
type Customer struct {
	ID        uuid.UUID
	TenantID  int32
	FirstName string
	LastName  string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomerRepository persists Customer records and supports lookup by
// contact info so createDeal can find-or-create within its transaction.
type CustomerRepository interface {
	GetByID(tenantID int32, id uuid.UUID) (*Customer, error)
	FindByContact(tx Tx, tenantID int32, email, phone string) (*Customer, error)
	Create(tx Tx, c *Customer) (*Customer, error)
}

// StockNumberSequence is a per-tenant atomic counter backing stock-number
// and deal-number generation.
type StockNumberSequence struct {
	TenantID   int32
	Year       int
	LastNumber int32
}

// StockNumberRepository atomically increments per-tenant, per-year
// sequences used to mint deal numbers (format YYYY-MMDD-NNNN).
type StockNumberRepository interface {
	NextDealNumber(tx Tx, tenantID int32, now time.Time) (string, error)
}
