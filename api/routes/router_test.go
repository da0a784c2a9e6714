package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/internal/notifications"
	"github.com/localmarthq/localmart-backend/internal/orders"
	"github.com/localmarthq/localmart-backend/internal/products"
	pkgauth "github.com/localmarthq/localmart-backend/pkg/auth"
	"github.com/localmarthq/localmart-backend/pkg/config"
	"github.com/localmarthq/localmart-backend/pkg/db/models"
	"github.com/localmarthq/localmart-backend/pkg/enums"
	"github.com/localmarthq/localmart-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct{}

func (stubOrdersService) Create(ctx context.Context, input orders.CreateInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) Get(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) List(ctx context.Context, params orders.ListParams) (*orders.ListResult, error) {
	return &orders.ListResult{Items: []models.Order{}}, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, input orders.UpdateStatusInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) Cancel(ctx context.Context, input orders.CancelInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) Rate(ctx context.Context, input orders.RateInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) ShopStats(ctx context.Context, shopID uuid.UUID, since time.Time) ([]orders.StatusStat, error) {
	return []orders.StatusStat{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) Emit(ctx context.Context, input notifications.EmitInput) (*models.Notification, error) {
	return &models.Notification{}, nil
}

func (stubNotificationsService) EmitTx(ctx context.Context, tx *gorm.DB, input notifications.EmitInput) (*models.Notification, error) {
	return &models.Notification{}, nil
}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{Items: []models.Notification{}}, nil
}

func (stubNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) DeleteRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubProductsService struct{}

func (stubProductsService) Create(ctx context.Context, input products.CreateInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductsService) Update(ctx context.Context, input products.UpdateInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductsService) Deactivate(ctx context.Context, productID, actorShopID uuid.UUID) error {
	return nil
}

func (stubProductsService) Restock(ctx context.Context, input products.RestockInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductsService) ChangePrice(ctx context.Context, input products.ChangePriceInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "localmart-test",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(Deps{
		Config:        testConfig(),
		Logger:        logg,
		DB:            stubPinger{},
		Orders:        stubOrdersService{},
		Notifications: stubNotificationsService{},
		Products:      stubProductsService{},
	})
}

func mintToken(t *testing.T, role enums.UserRole, shopID *uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		ShopID: shopID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthLiveSkipsAuth(t *testing.T) {
	handler := newTestRouter(t)
	rec := doRequest(t, handler, http.MethodGet, "/health/live", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAPIGroupRejectsMissingJWT(t *testing.T) {
	handler := newTestRouter(t)
	rec := doRequest(t, handler, http.MethodGet, "/api/orders", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCustomerCanListOrders(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, enums.UserRoleCustomer, nil)
	rec := doRequest(t, handler, http.MethodGet, "/api/orders", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}
}

func TestAdminRouteRequiresAdminRole(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, enums.UserRoleCustomer, nil)
	rec := doRequest(t, handler, http.MethodGet, "/api/orders/admin/all", token, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	adminToken := mintToken(t, enums.UserRoleAdmin, nil)
	rec = doRequest(t, handler, http.MethodGet, "/api/orders/admin/all", adminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProductRoutesRequireShopOwner(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, enums.UserRoleCustomer, nil)
	rec := doRequest(t, handler, http.MethodDelete, "/api/products/"+uuid.NewString(), token, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	shopID := uuid.New()
	ownerToken := mintToken(t, enums.UserRoleShopOwner, &shopID)
	rec = doRequest(t, handler, http.MethodDelete, "/api/products/"+uuid.NewString(), ownerToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for shop owner, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestShopStatsRequiresShopOwner(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, enums.UserRoleCustomer, nil)
	rec := doRequest(t, handler, http.MethodGet, "/api/orders/shop/stats", token, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	shopID := uuid.New()
	ownerToken := mintToken(t, enums.UserRoleShopOwner, &shopID)
	rec = doRequest(t, handler, http.MethodGet, "/api/orders/shop/stats", ownerToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for shop owner, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateOrderRejectsBadJSON(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, enums.UserRoleCustomer, nil)
	rec := doRequest(t, handler, http.MethodPost, "/api/orders", token, "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
