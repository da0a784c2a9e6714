package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/pkg/db/models"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
)

// ReservationRequest asks for qty units of a product to be taken off the shelf.
type ReservationRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// ReservationItem snapshots the product at the moment stock was reserved.
// UnitPriceCents is frozen here; later price changes never touch it.
type ReservationItem struct {
	ProductID      uuid.UUID
	ShopID         uuid.UUID
	ProductName    string
	Qty            int
	UnitPriceCents int
	TotalCents     int
	RemainingStock int
	MinStock       int
}

// Reserve decrements stock for every request inside the caller's transaction.
// The whole batch succeeds or the first failure aborts it: a missing product,
// an inactive or out-of-stock listing, or a quantity the remaining stock
// cannot cover all return typed errors for the transaction to roll back on.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationItem, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}

	items := make([]ReservationItem, 0, len(requests))
	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}

		var product models.Product
		if err := tx.WithContext(ctx).First(&product, "id = ?", req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", req.ProductID))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive || !product.IsAvailable {
			return nil, pkgerrors.New(pkgerrors.CodeUnavailable, fmt.Sprintf("product %q is not available", product.Name))
		}
		if product.Stock < req.Qty {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("product %q has %d in stock, %d requested", product.Name, product.Stock, req.Qty))
		}

		// Guarded decrement so concurrent reservations cannot oversell.
		result := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND stock >= ?", req.ProductID, req.Qty).
			Updates(map[string]any{
				"stock":        gorm.Expr("stock - ?", req.Qty),
				"is_available": gorm.Expr("stock - ? > 0", req.Qty),
			})
		if result.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "reserve stock")
		}
		if result.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("product %q has insufficient stock", product.Name))
		}

		items = append(items, ReservationItem{
			ProductID:      product.ID,
			ShopID:         product.ShopID,
			ProductName:    product.Name,
			Qty:            req.Qty,
			UnitPriceCents: product.PriceCents,
			TotalCents:     product.PriceCents * req.Qty,
			RemainingStock: product.Stock - req.Qty,
			MinStock:       product.MinStock,
		})
	}
	return items, nil
}
