package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a shop listing. IsAvailable is derived from Stock and recomputed
// on every stock mutation; products are soft-deactivated, never hard-deleted
// by the order workflow.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ShopID      uuid.UUID `gorm:"column:shop_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	PriceCents  int       `gorm:"column:price_cents;not null"`
	Stock       int       `gorm:"column:stock;not null;default:0"`
	MinStock    int       `gorm:"column:min_stock;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	IsAvailable bool      `gorm:"column:is_available;not null;default:false"`
	RatingAvg   float64   `gorm:"column:rating_avg;not null;default:0"`
	RatingCount int       `gorm:"column:rating_count;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.IsAvailable = p.Stock > 0
	return nil
}
