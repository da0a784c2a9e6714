package ratings

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/pkg/db/models"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
	"github.com/localmarthq/localmart-backend/pkg/enums"
)

// RecomputeShop rebuilds the shop's rating aggregate from every rated
// delivered order. The stored aggregate is never adjusted incrementally; a
// full scan is the single source of truth.
func RecomputeShop(ctx context.Context, tx *gorm.DB, shopID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if shopID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}

	var ratings []int
	err := tx.WithContext(ctx).Model(&models.Order{}).
		Where("shop_id = ? AND status = ? AND rating IS NOT NULL", shopID, enums.OrderStatusDelivered).
		Pluck("rating", &ratings).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan order ratings")
	}

	avg, count := average(ratings)
	result := tx.WithContext(ctx).Model(&models.Shop{}).
		Where("id = ?", shopID).
		Updates(map[string]any{
			"rating_avg":   avg,
			"rating_count": count,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "store shop rating aggregate")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}
	return nil
}

// RecomputeProduct rebuilds the product's rating aggregate from the
// product_ratings table.
func RecomputeProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	var ratings []int
	err := tx.WithContext(ctx).Model(&models.ProductRating{}).
		Where("product_id = ?", productID).
		Pluck("rating", &ratings).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan product ratings")
	}

	avg, count := average(ratings)
	result := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"rating_avg":   avg,
			"rating_count": count,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "store product rating aggregate")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// average returns the mean rounded to two decimal places. An empty slice
// yields a zero average and zero count.
func average(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := decimal.Zero
	for _, r := range ratings {
		sum = sum.Add(decimal.NewFromInt(int64(r)))
	}
	avg, _ := sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(2).Float64()
	return avg, len(ratings)
}
