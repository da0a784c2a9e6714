package ratings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/localmarthq/localmart-backend/pkg/db"
	"github.com/localmarthq/localmart-backend/pkg/db/models"
	"github.com/localmarthq/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ratings_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Shop{}, &models.Product{}, &models.ProductRating{}, &models.Order{}, &models.OrderLineItem{}, &models.OrderStatusEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedShop(t *testing.T, db *gorm.DB) models.Shop {
	t.Helper()
	shop := models.Shop{OwnerUserID: uuid.New(), Name: "Corner Grocery", IsActive: true}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	return shop
}

func seedDeliveredOrder(t *testing.T, db *gorm.DB, shopID uuid.UUID, rating *int) models.Order {
	t.Helper()
	order := models.Order{
		OrderNumber:   "ORD260829" + uuid.NewString()[:4],
		CustomerID:    uuid.New(),
		ShopID:        shopID,
		Status:        enums.OrderStatusDelivered,
		SubtotalCents: 1000,
		TotalCents:    1050,
		Rating:        rating,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func intPtr(v int) *int { return &v }

func TestRecomputeShopAveragesDeliveredRatedOrders(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	shop := seedShop(t, db)

	seedDeliveredOrder(t, db, shop.ID, intPtr(5))
	seedDeliveredOrder(t, db, shop.ID, intPtr(4))
	seedDeliveredOrder(t, db, shop.ID, intPtr(4))
	seedDeliveredOrder(t, db, shop.ID, nil) // unrated, excluded

	if err := RecomputeShop(ctx, db, shop.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	var stored models.Shop
	if err := db.First(&stored, "id = ?", shop.ID).Error; err != nil {
		t.Fatalf("load shop: %v", err)
	}
	if stored.RatingCount != 3 {
		t.Fatalf("expected count 3, got %d", stored.RatingCount)
	}
	if stored.RatingAvg != 4.33 {
		t.Fatalf("expected avg 4.33, got %v", stored.RatingAvg)
	}
}

func TestRecomputeShopWithNoRatingsZeroesAggregate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	shop := seedShop(t, db)
	if err := db.Model(&models.Shop{}).Where("id = ?", shop.ID).
		Updates(map[string]any{"rating_avg": 4.5, "rating_count": 7}).Error; err != nil {
		t.Fatalf("seed stale aggregate: %v", err)
	}

	if err := RecomputeShop(ctx, db, shop.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	var stored models.Shop
	if err := db.First(&stored, "id = ?", shop.ID).Error; err != nil {
		t.Fatalf("load shop: %v", err)
	}
	if stored.RatingAvg != 0 || stored.RatingCount != 0 {
		t.Fatalf("expected zeroed aggregate, got %+v", stored)
	}
}

func TestRecomputeShopMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := RecomputeShop(context.Background(), db, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRateProductUpsertsAndRecomputes(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	shop := seedShop(t, db)
	product := models.Product{ShopID: shop.ID, Name: "Honey Jar", PriceCents: 900, Stock: 10, IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	client := dbpkg.NewWithConn(db)
	svc, err := NewService(client)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	userA := uuid.New()
	userB := uuid.New()

	if _, err := svc.RateProduct(ctx, RateProductInput{UserID: userA, ProductID: product.ID, Rating: 5}); err != nil {
		t.Fatalf("rate product: %v", err)
	}
	if _, err := svc.RateProduct(ctx, RateProductInput{UserID: userB, ProductID: product.ID, Rating: 2}); err != nil {
		t.Fatalf("rate product: %v", err)
	}

	var stored models.Product
	if err := db.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stored.RatingCount != 2 || stored.RatingAvg != 3.5 {
		t.Fatalf("unexpected aggregate %+v", stored)
	}

	// same user rates again: updated in place, count unchanged
	if _, err := svc.RateProduct(ctx, RateProductInput{UserID: userB, ProductID: product.ID, Rating: 4}); err != nil {
		t.Fatalf("re-rate product: %v", err)
	}
	if err := db.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stored.RatingCount != 2 || stored.RatingAvg != 4.5 {
		t.Fatalf("unexpected aggregate after re-rate %+v", stored)
	}
}

func TestRateProductValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(dbpkg.NewWithConn(db))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.RateProduct(context.Background(), RateProductInput{UserID: uuid.New(), ProductID: uuid.New(), Rating: 6})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.RateProduct(context.Background(), RateProductInput{UserID: uuid.New(), ProductID: uuid.New(), Rating: 3})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}
