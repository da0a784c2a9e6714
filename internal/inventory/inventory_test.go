package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/pkg/db/models"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
	"github.com/localmarthq/localmart-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int, priceCents int) models.Product {
	t.Helper()
	product := models.Product{
		ShopID:     uuid.New(),
		Name:       "Olive Oil 1L",
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestReserveDecrementsStockAndSnapshotsPrice(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 3, 12000)

	var items []ReservationItem
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		items, terr = Reserve(ctx, tx, []ReservationRequest{{ProductID: product.ID, Qty: 2}})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected 1 reservation item, got %d", len(items))
	}
	if items[0].UnitPriceCents != 12000 || items[0].TotalCents != 24000 {
		t.Fatalf("unexpected price snapshot %+v", items[0])
	}
	if items[0].ShopID != product.ShopID {
		t.Fatalf("shop id not propagated")
	}

	var stored models.Product
	if err := db.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stored.Stock != 1 {
		t.Fatalf("expected stock 1, got %d", stored.Stock)
	}
	if !stored.IsAvailable {
		t.Fatal("product should remain available with stock left")
	}
}

func TestReserveToZeroFlipsAvailability(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 2, 500)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []ReservationRequest{{ProductID: product.ID, Qty: 2}})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var stored models.Product
	if err := db.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stored.Stock != 0 || stored.IsAvailable {
		t.Fatalf("expected exhausted unavailable product, got %+v", stored)
	}
}

func TestReserveInsufficientStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 1, 500)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []ReservationRequest{{ProductID: product.ID, Qty: 2}})
		return terr
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}

	var stored models.Product
	if err := db.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stored.Stock != 1 {
		t.Fatalf("failed reservation must not change stock, got %d", stored.Stock)
	}
}

func TestReserveBatchRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := seedProduct(t, db, 5, 500)
	productB := seedProduct(t, db, 1, 500)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []ReservationRequest{
			{ProductID: productA.ID, Qty: 3},
			{ProductID: productB.ID, Qty: 2},
		})
		return terr
	})
	if err == nil {
		t.Fatal("expected batch failure")
	}

	var storedA models.Product
	if err := db.First(&storedA, "id = ?", productA.ID).Error; err != nil {
		t.Fatalf("load product a: %v", err)
	}
	if storedA.Stock != 5 {
		t.Fatalf("expected rollback to restore stock 5, got %d", storedA.Stock)
	}
}

func TestReserveMissingProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []ReservationRequest{{ProductID: uuid.New(), Qty: 1}})
		return terr
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReserveInactiveProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 5, 500)
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []ReservationRequest{{ProductID: product.ID, Qty: 1}})
		return terr
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnavailable {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReleaseRestoresStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "inventory-test"})
	product := seedProduct(t, db, 2, 500)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, terr := Reserve(ctx, tx, []ReservationRequest{{ProductID: product.ID, Qty: 2}}); terr != nil {
			return terr
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return Release(ctx, tx, logg, []ReleaseRequest{{ProductID: product.ID, Qty: 2}})
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	var stored models.Product
	if err := db.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stored.Stock != 2 || !stored.IsAvailable {
		t.Fatalf("expected restored available stock, got %+v", stored)
	}
}

func TestReleaseMissingProductIsNoop(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "inventory-test"})

	err := db.Transaction(func(tx *gorm.DB) error {
		return Release(ctx, tx, logg, []ReleaseRequest{{ProductID: uuid.New(), Qty: 1}})
	})
	if err != nil {
		t.Fatalf("release of missing product must not fail: %v", err)
	}
}
