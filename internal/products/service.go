package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/internal/notifications"
	"github.com/localmarthq/localmart-backend/pkg/db/models"
	"github.com/localmarthq/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
	"github.com/localmarthq/localmart-backend/pkg/logger"
	"github.com/localmarthq/localmart-backend/pkg/outbox"
	"github.com/localmarthq/localmart-backend/pkg/outbox/payloads"
	"github.com/localmarthq/localmart-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notificationEmitter interface {
	EmitTx(ctx context.Context, tx *gorm.DB, input notifications.EmitInput) (*models.Notification, error)
}

// Service defines shop-owner product management operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, input UpdateInput) (*models.Product, error)
	Deactivate(ctx context.Context, productID, actorShopID uuid.UUID) error
	Restock(ctx context.Context, input RestockInput) (*models.Product, error)
	ChangePrice(ctx context.Context, input ChangePriceInput) (*models.Product, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier notificationEmitter
	wishlist WishlistTxRepo
	logg     *logger.Logger
}

// WishlistTxRepo binds the wishlist holder lookup to a transaction.
type WishlistTxRepo interface {
	HolderIDsTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]uuid.UUID, error)
}

// CreateInput describes a new listing.
type CreateInput struct {
	ActorShopID uuid.UUID
	Name        string
	Description *string
	PriceCents  int
	Stock       int
	MinStock    int
}

// UpdateInput mutates listing fields. Nil pointers leave fields untouched.
type UpdateInput struct {
	ProductID   uuid.UUID
	ActorShopID uuid.UUID
	Name        *string
	Description *string
	MinStock    *int
}

// RestockInput adds qty units to a listing.
type RestockInput struct {
	ProductID   uuid.UUID
	ActorShopID uuid.UUID
	Qty         int
}

// ChangePriceInput sets a new unit price.
type ChangePriceInput struct {
	ProductID     uuid.UUID
	ActorShopID   uuid.UUID
	NewPriceCents int
}

// NewService wires product management dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, notifier notificationEmitter, wishlist WishlistTxRepo, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "products repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification emitter required")
	}
	if wishlist == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wishlist repository required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   publisher,
		notifier: notifier,
		wishlist: wishlist,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.ActorShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop context missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Stock < 0 || input.MinStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock values cannot be negative")
	}

	product := &models.Product{
		ShopID:      input.ActorShopID,
		Name:        name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		MinStock:    input.MinStock,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store product")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Product, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	product, err := s.loadOwned(ctx, s.repo, input.ProductID, input.ActorShopID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.MinStock != nil {
		if *input.MinStock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock cannot be negative")
		}
		product.MinStock = *input.MinStock
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) Deactivate(ctx context.Context, productID, actorShopID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.loadOwned(ctx, s.repo, productID, actorShopID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return nil
	}
	product.IsActive = false
	product.IsAvailable = false
	if err := s.repo.Save(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	return nil
}

// Restock adds stock inside one transaction. Crossing from zero back to a
// positive count notifies every wishlist holder and queues a restock event.
func (s *service) Restock(ctx context.Context, input RestockInput) (*models.Product, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.loadOwned(ctx, repo, input.ProductID, input.ActorShopID)
		if err != nil {
			return err
		}

		wasOut := product.Stock == 0
		product.Stock += input.Qty
		product.IsAvailable = product.IsActive && product.Stock > 0
		if err := repo.Save(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
		}

		if wasOut && product.IsAvailable {
			if err := s.notifyBackInStock(ctx, tx, product); err != nil {
				return err
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventProductRestocked,
				AggregateType: enums.AggregateProduct,
				AggregateID:   product.ID,
				Data: payloads.ProductRestockedEvent{
					ProductID:   product.ID,
					ShopID:      product.ShopID,
					ProductName: product.Name,
					NewStock:    product.Stock,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue restock event")
			}
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePrice sets a new unit price. A decrease notifies wishlist holders and
// queues a price change event. Existing order line items keep their snapshot.
func (s *service) ChangePrice(ctx context.Context, input ChangePriceInput) (*models.Product, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.NewPriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.loadOwned(ctx, repo, input.ProductID, input.ActorShopID)
		if err != nil {
			return err
		}

		oldPrice := product.PriceCents
		if oldPrice == input.NewPriceCents {
			updated = product
			return nil
		}

		product.PriceCents = input.NewPriceCents
		if err := repo.Save(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update price")
		}

		if input.NewPriceCents < oldPrice {
			holders, err := s.wishlist.HolderIDsTx(ctx, tx, product.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist holders")
			}
			for _, userID := range holders {
				emitInput := notifications.NewPriceDrop(userID, product.ID, product.Name, product.PriceCents)
				if _, err := s.notifier.EmitTx(ctx, tx, emitInput); err != nil {
					return err
				}
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventProductPriceChanged,
				AggregateType: enums.AggregateProduct,
				AggregateID:   product.ID,
				Data: payloads.ProductPriceChangedEvent{
					ProductID:     product.ID,
					ShopID:        product.ShopID,
					ProductName:   product.Name,
					OldPriceCents: oldPrice,
					NewPriceCents: product.PriceCents,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue price change event")
			}
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) notifyBackInStock(ctx context.Context, tx *gorm.DB, product *models.Product) error {
	holders, err := s.wishlist.HolderIDsTx(ctx, tx, product.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist holders")
	}
	payload := &types.NotificationPayload{ProductID: &product.ID, ShopID: &product.ShopID}
	for _, userID := range holders {
		emitInput := notifications.NewStockAlert(userID,
			"Back in stock",
			fmt.Sprintf("%s is available again.", product.Name),
			payload)
		if _, err := s.notifier.EmitTx(ctx, tx, emitInput); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, repo Repository, productID, actorShopID uuid.UUID) (*models.Product, error) {
	product, err := repo.Find(ctx, productID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if actorShopID == uuid.Nil || product.ShopID != actorShopID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another shop")
	}
	return product, nil
}
