package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/pkg/db/models"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
	"github.com/localmarthq/localmart-backend/pkg/logger"
)

// ReleaseRequest returns qty units of a product to the shelf.
type ReleaseRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// Release restores stock for every request inside the caller's transaction.
// A product that no longer exists is skipped with a warning; cancellation of
// an old order must not fail because a listing was removed in the meantime.
func Release(ctx context.Context, tx *gorm.DB, logg *logger.Logger, requests []ReleaseRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}

	for _, req := range requests {
		if req.ProductID == uuid.Nil || req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "release requires a product id and positive quantity")
		}

		result := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", req.ProductID).
			Updates(map[string]any{
				"stock":        gorm.Expr("stock + ?", req.Qty),
				"is_available": true,
			})
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "release stock")
		}
		if result.RowsAffected == 0 && logg != nil {
			fields := map[string]any{
				"product_id": req.ProductID.String(),
				"qty":        req.Qty,
			}
			logg.Warn(logg.WithFields(ctx, fields), "stock release skipped, product missing")
		}
	}
	return nil
}
