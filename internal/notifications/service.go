package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/pkg/config"
	"github.com/localmarthq/localmart-backend/pkg/db/models"
	"github.com/localmarthq/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
	"github.com/localmarthq/localmart-backend/pkg/outbox"
	"github.com/localmarthq/localmart-backend/pkg/outbox/payloads"
	"github.com/localmarthq/localmart-backend/pkg/pagination"
	"github.com/localmarthq/localmart-backend/pkg/types"
)

const (
	maxTitleLength   = 100
	maxMessageLength = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines notification emission and read-state operations.
type Service interface {
	Emit(ctx context.Context, input EmitInput) (*models.Notification, error)
	EmitTx(ctx context.Context, tx *gorm.DB, input EmitInput) (*models.Notification, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error
	DeleteRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	cfg    config.NotificationsConfig
	now    func() time.Time
}

// EmitInput describes a notification to persist.
type EmitInput struct {
	UserID      uuid.UUID
	Type        enums.NotificationType
	Title       string
	Message     string
	Payload     *types.NotificationPayload
	Priority    enums.NotificationPriority
	ViaEmail    bool
	ViaSMS      bool
	ViaPush     bool
	ScheduledAt *time.Time
	ExpiresAt   *time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Pagination pagination.Params
	UnreadOnly bool
}

// ListResult wraps returned notifications and pagination metadata.
type ListResult struct {
	Items []models.Notification `json:"items"`
	Meta  pagination.Meta       `json:"pagination"`
}

// NewService wires notification dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, cfg config.NotificationsConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: publisher,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

func (s *service) Emit(ctx context.Context, input EmitInput) (*models.Notification, error) {
	var notification *models.Notification
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		notification, txErr = s.EmitTx(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return notification, nil
}

// EmitTx validates and persists the notification inside the caller's
// transaction, then queues the delivery fan-out event alongside it.
func (s *service) EmitTx(ctx context.Context, tx *gorm.DB, input EmitInput) (*models.Notification, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient user id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification type")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if len([]rune(title)) > maxTitleLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title exceeds 100 characters")
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message required")
	}
	if len([]rune(message)) > maxMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message exceeds 500 characters")
	}

	priority := input.Priority
	if priority == "" {
		priority = enums.NotificationPriorityMedium
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification priority")
	}

	now := s.now().UTC()
	expiresAt := now.AddDate(0, 0, s.expiryDays())
	if input.ExpiresAt != nil {
		expiresAt = input.ExpiresAt.UTC()
	}

	notification := &models.Notification{
		UserID:      input.UserID,
		Type:        input.Type,
		Title:       title,
		Message:     message,
		Payload:     input.Payload,
		Priority:    priority,
		ViaEmail:    input.ViaEmail,
		ViaSMS:      input.ViaSMS,
		ViaPush:     input.ViaPush,
		ScheduledAt: input.ScheduledAt,
		ExpiresAt:   expiresAt,
	}
	if err := s.repo.WithTx(tx).Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store notification")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   notification.ID,
		Data: payloads.NotificationRequestedEvent{
			NotificationID: notification.ID,
			UserID:         notification.UserID,
			Type:           notification.Type,
			Priority:       notification.Priority,
			Title:          notification.Title,
			ViaEmail:       notification.ViaEmail,
			ViaSMS:         notification.ViaSMS,
			ViaPush:        notification.ViaPush,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue notification event")
	}
	return notification, nil
}

func (s *service) expiryDays() int {
	if s.cfg.ExpiryDays > 0 {
		return s.cfg.ExpiryDays
	}
	return 30
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	page := params.Pagination.Normalize()
	rows, total, err := s.repo.List(ctx, listParams{
		UserID:     params.UserID,
		Pagination: page,
		UnreadOnly: params.UnreadOnly,
		Now:        s.now().UTC(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	return &ListResult{
		Items: rows,
		Meta:  pagination.NewMeta(page, total),
	}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.UnreadCount(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	found, err := s.repo.Delete(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) DeleteRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.DeleteRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete read notifications")
	}
	return count, nil
}
