package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/internal/catalog"
	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
)

type fakeRenameCatalogRepo struct {
	productType  *models.ProductType
	selection    []uuid.UUID
	variants     []models.ProductVariant
	valueRows    []catalog.VariantValueRow
	renamed      []catalog.VariantRename
	lookupCalls  int
	variantCalls int
}

func (f *fakeRenameCatalogRepo) FindProductType(ctx context.Context, id uuid.UUID) (*models.ProductType, error) {
	f.lookupCalls++
	return f.productType, nil
}

func (f *fakeRenameCatalogRepo) VariantSelectionAttributeIDs(ctx context.Context, productTypeID uuid.UUID) ([]uuid.UUID, error) {
	return f.selection, nil
}

func (f *fakeRenameCatalogRepo) VariantsOfProductType(ctx context.Context, productTypeID uuid.UUID) ([]models.ProductVariant, error) {
	f.variantCalls++
	return f.variants, nil
}

func (f *fakeRenameCatalogRepo) VariantValueNames(ctx context.Context, variantIDs, attributeIDs []uuid.UUID) ([]catalog.VariantValueRow, error) {
	return f.valueRows, nil
}

func (f *fakeRenameCatalogRepo) UpdateVariantNames(ctx context.Context, tx *gorm.DB, renames []catalog.VariantRename) error {
	f.renamed = append(f.renamed, renames...)
	return nil
}

func newRenameHandler(t *testing.T, repo *fakeRenameCatalogRepo) Handler {
	t.Helper()
	handler, err := NewRenameHandler(RenameHandlerParams{
		Logger:  testLogger(),
		DB:      fakeTxRunner{},
		Catalog: repo,
	})
	if err != nil {
		t.Fatalf("NewRenameHandler: %v", err)
	}
	return handler
}

func renamePayload(t *testing.T, productTypeID uuid.UUID, attributeIDs ...uuid.UUID) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(VariantNameRefreshPayload{
		ProductTypeID: productTypeID,
		AttributeIDs:  attributeIDs,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func TestRenameHandlerRequiresPayload(t *testing.T) {
	handler := newRenameHandler(t, &fakeRenameCatalogRepo{})

	if err := handler.Handle(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing payload")
	}
	if err := handler.Handle(context.Background(), renamePayload(t, uuid.Nil)); err == nil {
		t.Fatal("expected error for nil product type id")
	}
}

func TestRenameHandlerSkipsMissingProductType(t *testing.T) {
	repo := &fakeRenameCatalogRepo{}
	handler := newRenameHandler(t, repo)

	err := handler.Handle(context.Background(), renamePayload(t, uuid.New(), uuid.New()))
	if err != nil {
		t.Fatalf("expected missing product type to be tolerated, got %v", err)
	}
	if repo.variantCalls != 0 {
		t.Fatal("expected no variant loading for a missing product type")
	}
}

func TestRenameHandlerRenamesFromAttributeValues(t *testing.T) {
	productTypeID := uuid.New()
	sizeAttr := uuid.New()
	colorAttr := uuid.New()
	irrelevantAttr := uuid.New()

	renamable := models.ProductVariant{ID: uuid.New(), Name: "old name", SKU: "SKU-1"}
	bare := models.ProductVariant{ID: uuid.New(), Name: "stale", SKU: "SKU-2"}
	current := models.ProductVariant{ID: uuid.New(), Name: "L / Red", SKU: "SKU-3"}

	repo := &fakeRenameCatalogRepo{
		productType: &models.ProductType{ID: productTypeID, Name: "Shirt"},
		selection:   []uuid.UUID{sizeAttr, colorAttr},
		variants:    []models.ProductVariant{renamable, bare, current},
		valueRows: []catalog.VariantValueRow{
			{VariantID: renamable.ID, ValueName: "L"},
			{VariantID: renamable.ID, ValueName: "Red"},
			{VariantID: current.ID, ValueName: "L"},
			{VariantID: current.ID, ValueName: "Red"},
		},
	}
	handler := newRenameHandler(t, repo)

	err := handler.Handle(context.Background(), renamePayload(t, productTypeID, sizeAttr, colorAttr, irrelevantAttr))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(repo.renamed) != 2 {
		t.Fatalf("expected 2 renames, got %v", repo.renamed)
	}
	byVariant := map[uuid.UUID]string{}
	for _, rename := range repo.renamed {
		byVariant[rename.VariantID] = rename.Name
	}
	if byVariant[renamable.ID] != "L / Red" {
		t.Fatalf("expected joined value names, got %q", byVariant[renamable.ID])
	}
	// A variant with no values for the selected attributes falls back to its SKU.
	if byVariant[bare.ID] != "SKU-2" {
		t.Fatalf("expected sku fallback, got %q", byVariant[bare.ID])
	}
	if _, ok := byVariant[current.ID]; ok {
		t.Fatal("expected already-correct name to be left alone")
	}
}

func TestRenameHandlerIgnoresNonSelectionAttributes(t *testing.T) {
	productTypeID := uuid.New()
	repo := &fakeRenameCatalogRepo{
		productType: &models.ProductType{ID: productTypeID, Name: "Shirt"},
		selection:   []uuid.UUID{uuid.New()},
	}
	handler := newRenameHandler(t, repo)

	err := handler.Handle(context.Background(), renamePayload(t, productTypeID, uuid.New()))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if repo.variantCalls != 0 {
		t.Fatal("expected early return when no selection attribute is affected")
	}
}
