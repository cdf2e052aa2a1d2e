package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
)

type fakePreorderCatalogRepo struct {
	expired []models.ProductVariant
	findErr error

	seenNow     time.Time
	deactivated []uuid.UUID
}

func (f *fakePreorderCatalogRepo) FindExpiredPreorderVariants(ctx context.Context, now time.Time) ([]models.ProductVariant, error) {
	f.seenNow = now
	return f.expired, f.findErr
}

func (f *fakePreorderCatalogRepo) DeactivatePreorders(ctx context.Context, tx *gorm.DB, variantIDs []uuid.UUID) (int64, error) {
	f.deactivated = append(f.deactivated, variantIDs...)
	return int64(len(variantIDs)), nil
}

func TestPreorderHandlerDeactivatesExpired(t *testing.T) {
	first := models.ProductVariant{ID: uuid.New()}
	second := models.ProductVariant{ID: uuid.New()}
	repo := &fakePreorderCatalogRepo{expired: []models.ProductVariant{first, second}}

	handler, err := NewPreorderHandler(PreorderHandlerParams{
		Logger:  testLogger(),
		DB:      fakeTxRunner{},
		Catalog: repo,
	})
	if err != nil {
		t.Fatalf("NewPreorderHandler: %v", err)
	}
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	handler.(*preorderHandler).now = func() time.Time { return frozen }

	if err := handler.Handle(context.Background(), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !repo.seenNow.Equal(frozen) {
		t.Fatalf("expected cutoff %s, got %s", frozen, repo.seenNow)
	}
	if len(repo.deactivated) != 2 {
		t.Fatalf("expected both variants deactivated, got %v", repo.deactivated)
	}
}

func TestPreorderHandlerNoExpiredVariants(t *testing.T) {
	repo := &fakePreorderCatalogRepo{}
	handler, err := NewPreorderHandler(PreorderHandlerParams{
		Logger:  testLogger(),
		DB:      fakeTxRunner{},
		Catalog: repo,
	})
	if err != nil {
		t.Fatalf("NewPreorderHandler: %v", err)
	}

	if err := handler.Handle(context.Background(), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(repo.deactivated) != 0 {
		t.Fatalf("expected no writes, got %v", repo.deactivated)
	}
}

func TestPreorderHandlerPropagatesFindError(t *testing.T) {
	repo := &fakePreorderCatalogRepo{findErr: errors.New("boom")}
	handler, err := NewPreorderHandler(PreorderHandlerParams{
		Logger:  testLogger(),
		DB:      fakeTxRunner{},
		Catalog: repo,
	})
	if err != nil {
		t.Fatalf("NewPreorderHandler: %v", err)
	}

	if err := handler.Handle(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
