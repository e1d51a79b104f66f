package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
	"github.com/google/uuid"
)

// mockExportImageRepository implements storage.ImageRepository for testing,
// recording the last uploaded object so tests can assert on its shape.
type mockExportImageRepository struct {
	lastPath string
	lastData []byte
}

func (m *mockExportImageRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.lastPath = objectPath
	m.lastData = b
	return objectPath, nil
}

func (m *mockExportImageRepository) Delete(ctx context.Context, objectPath string) error {
	return nil
}

func (m *mockExportImageRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://s3.amazonaws.com/bucket/" + objectPath + "?X-Amz-Signature=test", nil
}

func TestExportService_DisabledWithoutStorage(t *testing.T) {
	svc := NewExportService(nil)
	if svc.IsEnabled() {
		t.Error("expected IsEnabled to be false without a storage adapter")
	}

	_, err := svc.Export(context.Background(), 1, &domain.Scenario{})
	if err != ErrExportStorageNotConfigured {
		t.Errorf("err = %v, want ErrExportStorageNotConfigured", err)
	}
}

func TestExportService_UploadsCanonicalJSON(t *testing.T) {
	repo := &mockExportImageRepository{}
	svc := NewExportService(repo)
	if !svc.IsEnabled() {
		t.Fatal("expected IsEnabled to be true with a storage adapter")
	}

	dealID := uuid.New()
	scenario := &domain.Scenario{
		ID:       uuid.New(),
		DealID:   dealID,
		Revision: 3,
		Input:    domain.DealInput{VehiclePrice: money.MustMoney("20000.00"), DealType: domain.DealTypeCash},
		Quote:    domain.ComputedQuote{OutTheDoor: money.MustMoney("21000.00")},
	}

	url, err := svc.Export(context.Background(), 7, scenario)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if url == "" {
		t.Error("expected a non-empty presigned URL")
	}

	wantPath := "7/quote-exports/" + dealID.String() + "/rev-3.json"
	if repo.lastPath != wantPath {
		t.Errorf("uploaded path = %s, want %s", repo.lastPath, wantPath)
	}

	var decoded QuoteExport
	if err := json.Unmarshal(repo.lastData, &decoded); err != nil {
		t.Fatalf("uploaded data is not valid JSON: %v", err)
	}
	if decoded.DealID != dealID || decoded.Revision != 3 {
		t.Errorf("decoded export = %+v, want dealId %s revision 3", decoded, dealID)
	}
	if decoded.Quote.OutTheDoor.String() != "21000.00" {
		t.Errorf("decoded quote OutTheDoor = %s, want 21000.00", decoded.Quote.OutTheDoor)
	}
}
