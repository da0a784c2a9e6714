package notifications

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/pkg/config"
	dbpkg "github.com/localmarthq/localmart-backend/pkg/db"
	"github.com/localmarthq/localmart-backend/pkg/db/models"
	"github.com/localmarthq/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
	"github.com/localmarthq/localmart-backend/pkg/outbox"
	"github.com/localmarthq/localmart-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:notifications_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	publisher := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(NewRepository(db), dbpkg.NewWithConn(db), publisher, config.NotificationsConfig{ExpiryDays: 30})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, db
}

func TestEmitDefaultsAndOutboxRow(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	before := time.Now().UTC()
	notification, err := svc.Emit(ctx, EmitInput{
		UserID:  userID,
		Type:    enums.NotificationTypePromotion,
		Title:   "  Weekend deal  ",
		Message: "Everything in the bakery aisle is 20% off.",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	if notification.Title != "Weekend deal" {
		t.Fatalf("title not trimmed: %q", notification.Title)
	}
	if notification.Priority != enums.NotificationPriorityMedium {
		t.Fatalf("expected default medium priority, got %s", notification.Priority)
	}
	wantExpiry := before.AddDate(0, 0, 30)
	if notification.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || notification.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Fatalf("expected expiry ~+30d, got %v", notification.ExpiresAt)
	}
	if notification.IsSent {
		t.Fatal("notification must not be pre-marked sent")
	}

	var events []models.OutboxEvent
	if err := db.Find(&events).Error; err != nil {
		t.Fatalf("load outbox: %v", err)
	}
	if len(events) != 1 || events[0].EventType != enums.EventNotificationRequested {
		t.Fatalf("expected one notification_requested event, got %+v", events)
	}
}

func TestEmitValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input EmitInput
	}{
		{"missing user", EmitInput{Type: enums.NotificationTypePromotion, Title: "t", Message: "m"}},
		{"unknown type", EmitInput{UserID: uuid.New(), Type: "telegram", Title: "t", Message: "m"}},
		{"empty title", EmitInput{UserID: uuid.New(), Type: enums.NotificationTypePromotion, Title: "  ", Message: "m"}},
		{"long title", EmitInput{UserID: uuid.New(), Type: enums.NotificationTypePromotion, Title: strings.Repeat("x", 101), Message: "m"}},
		{"long message", EmitInput{UserID: uuid.New(), Type: enums.NotificationTypePromotion, Title: "t", Message: strings.Repeat("x", 501)}},
		{"bad priority", EmitInput{UserID: uuid.New(), Type: enums.NotificationTypePromotion, Title: "t", Message: "m", Priority: "asap"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Emit(ctx, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestEmitAcceptsBoundaryLengths(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.Emit(context.Background(), EmitInput{
		UserID:  uuid.New(),
		Type:    enums.NotificationTypeSystemAlert,
		Title:   strings.Repeat("t", 100),
		Message: strings.Repeat("m", 500),
	})
	if err != nil {
		t.Fatalf("boundary lengths must pass: %v", err)
	}
}

func TestUnreadCountExcludesExpiredAndRead(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	unread, err := svc.Emit(ctx, NewOrderStatus(userID, uuid.New(), "Order confirmed", "Your order was confirmed."))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	read, err := svc.Emit(ctx, NewOrderStatus(userID, uuid.New(), "Order delivered", "Your order arrived."))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	expired, err := svc.Emit(ctx, NewOrderStatus(userID, uuid.New(), "Old news", "This one expired."))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	_ = unread

	if err := svc.MarkRead(ctx, userID, read.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := db.Model(&models.Notification{}).Where("id = ?", expired.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("expire notification: %v", err)
	}

	count, err := svc.UnreadCount(ctx, userID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected unread count 1, got %d", count)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	notification, err := svc.Emit(ctx, NewOrderStatus(userID, uuid.New(), "Order confirmed", "Confirmed."))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	if err := svc.MarkRead(ctx, userID, notification.ID); err != nil {
		t.Fatalf("first mark read: %v", err)
	}
	if err := svc.MarkRead(ctx, userID, notification.ID); err != nil {
		t.Fatalf("second mark read must be idempotent: %v", err)
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()

	notification, err := svc.Emit(ctx, NewOrderStatus(owner, uuid.New(), "Order confirmed", "Confirmed."))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	err = svc.MarkRead(ctx, uuid.New(), notification.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
}

func TestMarkAllReadAndDeleteRead(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := svc.Emit(ctx, NewOrderStatus(userID, uuid.New(), "Update", "Status changed.")); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	marked, err := svc.MarkAllRead(ctx, userID)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if marked != 3 {
		t.Fatalf("expected 3 marked, got %d", marked)
	}

	deleted, err := svc.DeleteRead(ctx, userID)
	if err != nil {
		t.Fatalf("delete read: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", deleted)
	}

	result, err := svc.List(ctx, ListParams{UserID: userID, Pagination: pagination.Params{Page: 1, Limit: 10}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 0 {
		t.Fatalf("expected empty list, got %d items", len(result.Items))
	}
}

func TestListPaginationMeta(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		if _, err := svc.Emit(ctx, NewOrderStatus(userID, uuid.New(), "Update", "Status changed.")); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	result, err := svc.List(ctx, ListParams{UserID: userID, Pagination: pagination.Params{Page: 2, Limit: 2}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items on page 2, got %d", len(result.Items))
	}
	meta := result.Meta
	if meta.CurrentPage != 2 || meta.TotalPages != 3 || meta.TotalItems != 5 || !meta.HasNextPage || !meta.HasPrevPage {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()

	notification, err := svc.Emit(ctx, NewOrderStatus(owner, uuid.New(), "Update", "Status changed."))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	err = svc.Delete(ctx, uuid.New(), notification.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.Delete(ctx, owner, notification.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}
