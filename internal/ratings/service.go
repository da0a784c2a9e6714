package ratings

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/pkg/db/models"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines product rating operations. Shop ratings are written by the
// order workflow and only recomputed here.
type Service interface {
	RateProduct(ctx context.Context, input RateProductInput) (*models.ProductRating, error)
}

type service struct {
	tx txRunner
}

// RateProductInput captures a user's rating for a product they purchased.
type RateProductInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Rating    int
	Review    *string
}

// NewService wires rating dependencies.
func NewService(tx txRunner) (Service, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{tx: tx}, nil
}

func (s *service) RateProduct(ctx context.Context, input RateProductInput) (*models.ProductRating, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if input.Review != nil {
		trimmed := strings.TrimSpace(*input.Review)
		if trimmed == "" {
			input.Review = nil
		} else {
			input.Review = &trimmed
		}
	}

	var rating models.ProductRating
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", input.ProductID).
			Count(&count).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if count == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		err := tx.WithContext(ctx).
			Where("product_id = ? AND user_id = ?", input.ProductID, input.UserID).
			First(&rating).Error
		switch {
		case err == nil:
			rating.Rating = input.Rating
			rating.Review = input.Review
			if err := tx.WithContext(ctx).Save(&rating).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rating")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			rating = models.ProductRating{
				ProductID: input.ProductID,
				UserID:    input.UserID,
				Rating:    input.Rating,
				Review:    input.Review,
			}
			if err := tx.WithContext(ctx).Create(&rating).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store rating")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rating")
		}

		return RecomputeProduct(ctx, tx, input.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return &rating, nil
}
