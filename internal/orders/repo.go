package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/localmarthq/localmart-backend/pkg/db/models"
	"github.com/localmarthq/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
	"github.com/localmarthq/localmart-backend/pkg/pagination"
)

// listFilter narrows a paginated order query.
type listFilter struct {
	CustomerID *uuid.UUID
	ShopID     *uuid.UUID
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// StatusStat is one row of the per-status shop aggregate.
type StatusStat struct {
	Status     enums.OrderStatus `json:"status"`
	Count      int64             `json:"count"`
	TotalCents int64             `json:"total_cents"`
}

// Repository persists orders, their line items, and the daily order counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Find(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusEntry) error
	List(ctx context.Context, filter listFilter) ([]models.Order, int64, error)
	NextOrderSequence(ctx context.Context, day string) (int, error)
	ShopStats(ctx context.Context, shopID uuid.UUID, since time.Time) ([]StatusStat, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds the gorm-backed order repository.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repositoryImpl) Find(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit("Items", "History").
		Save(order).Error
}

func (r *repositoryImpl) AppendHistory(ctx context.Context, entry *models.OrderStatusEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) List(ctx context.Context, filter listFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Pagination.Normalize()
	var rows []models.Order
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// NextOrderSequence increments the day's counter and returns the new value.
// The upsert runs inside the caller's transaction so two concurrent orders
// can never draw the same sequence number.
func (r *repositoryImpl) NextOrderSequence(ctx context.Context, day string) (int, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"seq": gorm.Expr("order_counters.seq + 1"),
		}),
	}).Create(&models.OrderCounter{Day: day, Seq: 1}).Error
	if err != nil {
		return 0, err
	}

	var counter models.OrderCounter
	if err := r.db.WithContext(ctx).First(&counter, "day = ?", day).Error; err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (r *repositoryImpl) ShopStats(ctx context.Context, shopID uuid.UUID, since time.Time) ([]StatusStat, error) {
	var stats []StatusStat
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_cents), 0) AS total_cents").
		Where("shop_id = ? AND created_at >= ?", shopID, since).
		Group("status").
		Order("status ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
