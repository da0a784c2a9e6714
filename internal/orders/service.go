package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/internal/inventory"
	"github.com/localmarthq/localmart-backend/internal/notifications"
	"github.com/localmarthq/localmart-backend/internal/ratings"
	"github.com/localmarthq/localmart-backend/internal/shops"
	"github.com/localmarthq/localmart-backend/pkg/config"
	"github.com/localmarthq/localmart-backend/pkg/db/models"
	"github.com/localmarthq/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
	"github.com/localmarthq/localmart-backend/pkg/logger"
	"github.com/localmarthq/localmart-backend/pkg/outbox"
	"github.com/localmarthq/localmart-backend/pkg/outbox/payloads"
	"github.com/localmarthq/localmart-backend/pkg/pagination"
	"github.com/localmarthq/localmart-backend/pkg/types"
)

const orderNumberPrefix = "ORD"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notificationEmitter interface {
	EmitTx(ctx context.Context, tx *gorm.DB, input notifications.EmitInput) (*models.Notification, error)
}

// Actor identifies who is performing an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
	ShopID *uuid.UUID
}

// CreateItem is one requested product+quantity pair.
type CreateItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput describes a new order.
type CreateInput struct {
	CustomerID           uuid.UUID
	Items                []CreateItem
	DeliveryAddress      types.Address
	DeliveryInstructions *string
	PaymentMethod        enums.PaymentMethod
}

// UpdateStatusInput advances an order's lifecycle.
type UpdateStatusInput struct {
	OrderID   uuid.UUID
	NewStatus enums.OrderStatus
	Actor     Actor
}

// CancelInput exits an order from the lifecycle.
type CancelInput struct {
	OrderID uuid.UUID
	Actor   Actor
	Reason  string
}

// RateInput attaches a one-time rating to a delivered order.
type RateInput struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	Rating     int
	Review     *string
}

// ListParams configures a paginated order listing.
type ListParams struct {
	CustomerID *uuid.UUID
	ShopID     *uuid.UUID
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// ListResult wraps returned orders and pagination metadata.
type ListResult struct {
	Items []models.Order  `json:"items"`
	Meta  pagination.Meta `json:"pagination"`
}

// Service coordinates the order lifecycle: creation with inventory
// reservation, status transitions, cancellation with stock release, and
// rating submission.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	Rate(ctx context.Context, input RateInput) (*models.Order, error)
	ShopStats(ctx context.Context, shopID uuid.UUID, since time.Time) ([]StatusStat, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier notificationEmitter
	shops    *shops.Repository
	cfg      config.OrdersConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the order lifecycle dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, notifier notificationEmitter, shopRepo *shops.Repository, cfg config.OrdersConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
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
	if shopRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shops repository required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   publisher,
		notifier: notifier,
		shops:    shopRepo,
		cfg:      cfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Create places an order in a single transaction. Stock reservation, pricing,
// the daily sequence draw, the shop owner notification, and the outbox event
// all commit together or not at all.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	if field := input.DeliveryAddress.Validate(); field != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("delivery address %s required", field))
	}
	payment := input.PaymentMethod
	if payment == "" {
		payment = enums.PaymentMethodCash
	}
	if !payment.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	requests := make([]inventory.ReservationRequest, 0, len(input.Items))
	for _, item := range input.Items {
		requests = append(requests, inventory.ReservationRequest{
			ProductID: item.ProductID,
			Qty:       item.Quantity,
		})
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reserved, err := inventory.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}

		shopID := reserved[0].ShopID
		for _, item := range reserved[1:] {
			if item.ShopID != shopID {
				return pkgerrors.New(pkgerrors.CodeValidation, "all items must belong to a single shop")
			}
		}

		subtotal := 0
		lineItems := make([]models.OrderLineItem, 0, len(reserved))
		for _, item := range reserved {
			subtotal += item.TotalCents
			lineItems = append(lineItems, models.OrderLineItem{
				ProductID:      item.ProductID,
				ProductName:    item.ProductName,
				Quantity:       item.Qty,
				UnitPriceCents: item.UnitPriceCents,
				TotalCents:     item.TotalCents,
			})
		}
		fee := s.deliveryFee(subtotal)

		now := s.now().UTC()
		repo := s.repo.WithTx(tx)
		seq, err := repo.NextOrderSequence(ctx, now.Format("060102"))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "draw order sequence")
		}

		order = &models.Order{
			OrderNumber:          fmt.Sprintf("%s%s%04d", orderNumberPrefix, now.Format("060102"), seq),
			CustomerID:           input.CustomerID,
			ShopID:               shopID,
			Status:               enums.OrderStatusPending,
			SubtotalCents:        subtotal,
			DeliveryFeeCents:     fee,
			TotalCents:           subtotal + fee,
			PaymentMethod:        payment,
			DeliveryAddress:      input.DeliveryAddress,
			DeliveryInstructions: input.DeliveryInstructions,
			Items:                lineItems,
			History: []models.OrderStatusEntry{{
				Status:      enums.OrderStatusPending,
				ActorUserID: input.CustomerID,
			}},
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order")
		}

		shop, err := s.shops.WithTx(tx).Find(ctx, shopID)
		if err != nil {
			return err
		}
		_, err = s.notifier.EmitTx(ctx, tx, notifications.NewOrderStatus(
			shop.OwnerUserID, order.ID,
			"New order received",
			fmt.Sprintf("Order %s is waiting for your confirmation.", order.OrderNumber)))
		if err != nil {
			return err
		}

		// Warn the shop once a reservation drains a product to its floor.
		for _, item := range reserved {
			if item.MinStock <= 0 || item.RemainingStock > item.MinStock {
				continue
			}
			productID := item.ProductID
			_, err = s.notifier.EmitTx(ctx, tx, notifications.NewStockAlert(
				shop.OwnerUserID,
				"Low stock warning",
				fmt.Sprintf("%s is down to %d units.", item.ProductName, item.RemainingStock),
				&types.NotificationPayload{ProductID: &productID, ShopID: &shopID}))
			if err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				CustomerID:    order.CustomerID,
				ShopID:        order.ShopID,
				TotalCents:    order.TotalCents,
				ItemCount:     len(order.Items),
				PaymentMethod: order.PaymentMethod,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	page := params.Pagination.Normalize()
	rows, total, err := s.repo.List(ctx, listFilter{
		CustomerID: params.CustomerID,
		ShopID:     params.ShopID,
		Status:     params.Status,
		Pagination: page,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &ListResult{Items: rows, Meta: pagination.NewMeta(page, total)}, nil
}

// UpdateStatus applies one legal lifecycle step. Cancellation has its own
// operation; refunds are reserved for administrators.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if input.NewStatus == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use the cancel operation to cancel an order")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.Find(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if err := authorizeFulfilment(order, input.Actor); err != nil {
			return err
		}

		switch {
		case input.NewStatus == enums.OrderStatusRefunded:
			if input.Actor.Role != enums.UserRoleAdmin {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can refund orders")
			}
			if !CanRefund(order.Status) {
				return invalidTransition(order.Status, input.NewStatus)
			}
		case !CanAdvance(order.Status, input.NewStatus):
			return invalidTransition(order.Status, input.NewStatus)
		}

		from := order.Status
		now := s.now().UTC()
		order.Status = input.NewStatus
		if input.NewStatus == enums.OrderStatusDelivered {
			order.ActualDeliveryAt = &now
		}
		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order status")
		}
		if err := repo.AppendHistory(ctx, &models.OrderStatusEntry{
			OrderID:     order.ID,
			Status:      input.NewStatus,
			ActorUserID: input.Actor.UserID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		title, message := customerStatusCopy(order.OrderNumber, input.NewStatus)
		if _, err := s.notifier.EmitTx(ctx, tx, notifications.NewOrderStatus(order.CustomerID, order.ID, title, message)); err != nil {
			return err
		}

		changedBy := input.Actor.UserID
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				ShopID:      order.ShopID,
				FromStatus:  from,
				ToStatus:    input.NewStatus,
				ChangedBy:   &changedBy,
			},
		}); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel exits the order from the lifecycle and returns every reserved unit
// to stock. Products deleted since placement are skipped with a warning.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.Find(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.CustomerID != input.Actor.UserID && input.Actor.Role != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
		if !CanCancel(order.Status) {
			return invalidTransition(order.Status, enums.OrderStatusCancelled)
		}

		releases := make([]inventory.ReleaseRequest, 0, len(order.Items))
		for _, item := range order.Items {
			releases = append(releases, inventory.ReleaseRequest{
				ProductID: item.ProductID,
				Qty:       item.Quantity,
			})
		}
		if err := inventory.Release(ctx, tx, s.logg, releases); err != nil {
			return err
		}

		now := s.now().UTC()
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store cancelled order")
		}
		if err := repo.AppendHistory(ctx, &models.OrderStatusEntry{
			OrderID:     order.ID,
			Status:      enums.OrderStatusCancelled,
			ActorUserID: input.Actor.UserID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		title, message := customerStatusCopy(order.OrderNumber, enums.OrderStatusCancelled)
		if _, err := s.notifier.EmitTx(ctx, tx, notifications.NewOrderStatus(order.CustomerID, order.ID, title, message)); err != nil {
			return err
		}

		cancelledBy := input.Actor.UserID
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				ShopID:      order.ShopID,
				CancelledAt: now,
				CancelledBy: &cancelledBy,
				Reason:      strings.TrimSpace(input.Reason),
			},
		}); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Rate records a one-time rating on a delivered order and rebuilds the shop's
// aggregate in the same transaction.
func (s *service) Rate(ctx context.Context, input RateInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.Find(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.CustomerID != input.CustomerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be rated")
		}
		if order.Rating != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already rated")
		}

		now := s.now().UTC()
		rating := input.Rating
		order.Rating = &rating
		order.RatedAt = &now
		if input.Review != nil {
			review := strings.TrimSpace(*input.Review)
			if review != "" {
				order.Review = &review
			}
		}
		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order rating")
		}

		if err := ratings.RecomputeShop(ctx, tx, order.ShopID); err != nil {
			return err
		}
		shop, err := s.shops.WithTx(tx).Find(ctx, order.ShopID)
		if err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.OrderRatedEvent{
				OrderID:       order.ID,
				ShopID:        order.ShopID,
				CustomerID:    order.CustomerID,
				Rating:        rating,
				ShopRatingAvg: shop.RatingAvg,
			},
		}); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ShopStats(ctx context.Context, shopID uuid.UUID, since time.Time) ([]StatusStat, error) {
	if shopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	stats, err := s.repo.ShopStats(ctx, shopID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate shop orders")
	}
	return stats, nil
}

// deliveryFee applies the flat fee below the free-delivery threshold.
func (s *service) deliveryFee(subtotalCents int) int {
	threshold := s.cfg.FreeDeliveryThresholdCents
	if threshold <= 0 {
		threshold = 500
	}
	if subtotalCents > threshold {
		return 0
	}
	if s.cfg.FlatDeliveryFeeCents > 0 {
		return s.cfg.FlatDeliveryFeeCents
	}
	return 50
}

// authorizeRead lets the owning customer, the order's shop, or an admin see
// the order.
func authorizeRead(order *models.Order, actor Actor) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	if order.CustomerID == actor.UserID {
		return nil
	}
	if actor.Role == enums.UserRoleShopOwner && actor.ShopID != nil && *actor.ShopID == order.ShopID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
}

// authorizeFulfilment lets the order's shop or an admin move the order
// through the lifecycle.
func authorizeFulfilment(order *models.Order, actor Actor) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	if actor.Role == enums.UserRoleShopOwner && actor.ShopID != nil && *actor.ShopID == order.ShopID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order is fulfilled by another shop")
}

func actorRef(actor Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: actor.UserID,
		ShopID: actor.ShopID,
		Role:   string(actor.Role),
	}
}
