package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/repository/storage"
	"github.com/google/uuid"
)

// exportPresignedURLExpiry mirrors ImageService's window: long enough for a
// desk to hand the link to a customer or auditor, short enough that a
// leaked link doesn't stay valid indefinitely.
const exportPresignedURLExpiry = 2 * time.Hour

// ErrExportStorageNotConfigured mirrors ErrImageStorageNotConfigured: export
// reuses the same object-storage adapter, so it is unavailable under the
// same condition.
var ErrExportStorageNotConfigured = errors.New("export storage not configured")

// QuoteExport is the canonical, storage-independent archival shape: a
// snapshot of one scenario's quote, self-contained enough to reconstruct
// what a desk showed a customer without needing the live database row.
type QuoteExport struct {
	ScenarioID  uuid.UUID             `json:"scenarioId"`
	DealID      uuid.UUID             `json:"dealId"`
	Revision    int32                 `json:"revision"`
	ExportedAt  time.Time             `json:"exportedAt"`
	Quote       domain.ComputedQuote  `json:"quote"`
	DealInput   domain.DealInput      `json:"dealInput"`
}

// ExportService archives a ComputedQuote + its Scenario to object storage
// as canonical JSON (the "glovebox copy" / compliance-retention record
// real desking platforms keep) and hands back a presigned URL, reusing the
// S3 adapter ImageService already wires in.
type ExportService struct {
	storage storage.ImageRepository
}

// NewExportService creates an ExportService. A nil storage adapter is
// valid — Export then reports ErrExportStorageNotConfigured, the same
// degrade-gracefully shape ImageService uses when S3 isn't configured.
func NewExportService(storage storage.ImageRepository) *ExportService {
	return &ExportService{storage: storage}
}

// IsEnabled reports whether object storage is configured.
func (s *ExportService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// exportObjectPath mirrors ImageService's tenant/entity/id layout so exports
// live alongside other tenant-scoped objects in the same bucket.
func exportObjectPath(tenantID int32, scenario *domain.Scenario) string {
	return fmt.Sprintf("%d/quote-exports/%s/rev-%d.json", tenantID, scenario.DealID, scenario.Revision)
}

// Export serializes scenario's quote to canonical JSON, uploads it, and
// returns a presigned URL to the archived copy. Called on demand by
// ScenarioService.ExportQuote (GET /scenarios/:id/export), outside any ADLM
// transaction, so a failed archival never rolls back a deal.
func (s *ExportService) Export(ctx context.Context, tenantID int32, scenario *domain.Scenario) (string, error) {
	if !s.IsEnabled() {
		return "", ErrExportStorageNotConfigured
	}

	export := QuoteExport{
		ScenarioID: scenario.ID,
		DealID:     scenario.DealID,
		Revision:   scenario.Revision,
		ExportedAt: time.Now().UTC(),
		Quote:      scenario.Quote,
		DealInput:  scenario.Input,
	}

	data, err := json.Marshal(export)
	if err != nil {
		return "", fmt.Errorf("marshal quote export: %w", err)
	}

	objectPath := exportObjectPath(tenantID, scenario)
	if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(data), "application/json", int64(len(data))); err != nil {
		return "", fmt.Errorf("upload quote export: %w", err)
	}

	return s.storage.GeneratePresignedURL(ctx, objectPath, exportPresignedURLExpiry)
}
