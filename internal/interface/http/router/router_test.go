package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	appbook "github.com/xiebiao/bookshop/internal/application/book"
	appinvoice "github.com/xiebiao/bookshop/internal/application/invoice"
	apporder "github.com/xiebiao/bookshop/internal/application/order"
	apppromotion "github.com/xiebiao/bookshop/internal/application/promotion"
	appshipping "github.com/xiebiao/bookshop/internal/application/shipping"
	appuser "github.com/xiebiao/bookshop/internal/application/user"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/inventory"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/promotion"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/events"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql/mysqltest"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/internal/interface/http/router"
	"github.com/xiebiao/bookshop/pkg/jwt"
	"github.com/xiebiao/bookshop/pkg/response"
)

// memorySessions 会话、黑名单的内存实现
type memorySessions struct {
	mu        sync.Mutex
	blacklist map[string]bool
}

func (s *memorySessions) SaveSession(context.Context, uint, map[string]any, time.Duration) error {
	return nil
}

func (s *memorySessions) DeleteSession(context.Context, uint) error { return nil }

func (s *memorySessions) AddToBlacklist(_ context.Context, token string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[token] = true
	return nil
}

func (s *memorySessions) IsInBlacklist(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blacklist[token], nil
}

// memoryIdempotency 下单幂等键的内存实现
type memoryIdempotency struct {
	mu      sync.Mutex
	fps     map[string]string
	orderID map[string]uint
}

func (m *memoryIdempotency) Begin(_ context.Context, userID uint, key, fp string) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := fmt.Sprintf("%d:%s", userID, key)
	existing, ok := m.fps[k]
	if !ok {
		m.fps[k] = fp
		return 0, nil
	}
	if existing != fp {
		return 0, order.ErrIdempotencyKeyReused
	}
	if m.orderID[k] == 0 {
		return 0, order.ErrRequestInFlight
	}
	return m.orderID[k], nil
}

func (m *memoryIdempotency) Complete(_ context.Context, userID uint, key, _ string, orderID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderID[fmt.Sprintf("%d:%s", userID, key)] = orderID
	return nil
}

func (m *memoryIdempotency) Abort(_ context.Context, userID uint, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fps, fmt.Sprintf("%d:%s", userID, key))
	return nil
}

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	jwt    *jwt.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	require.NoError(t, router.RegisterValidators())

	db := mysqltest.New(t)
	logger := zap.NewNop()
	txManager := mysql.NewTxManager(db)
	bookRepo := mysql.NewBookRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	invoiceRepo := mysql.NewInvoiceRepository(db)
	promotionRepo := mysql.NewPromotionRepository(db)
	shippingRepo := mysql.NewShippingRepository(db)

	sessions := &memorySessions{blacklist: map[string]bool{}}
	idempotency := &memoryIdempotency{fps: map[string]string{}, orderID: map[string]uint{}}
	jwtManager := jwt.NewManager("router-test-secret", time.Hour, 24*time.Hour)
	publisher := events.NewNopPublisher(logger)

	userService := user.NewService(mysql.NewUserRepository(db), bcrypt.MinCost)
	bookService := book.NewService(bookRepo)
	promotionService := promotion.NewService(promotionRepo, promotion.Options{ClampFixed: true, Location: time.Local})
	ledger := inventory.NewLedger(bookRepo)

	handlers := router.Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService, logger),
			appuser.NewLoginUseCase(userService, jwtManager, sessions, logger),
			appuser.NewLogoutUseCase(sessions, logger),
		),
		Book: handler.NewBookHandler(
			appbook.NewPublishBookUseCase(bookService, logger),
			appbook.NewGetBookUseCase(bookService),
			appbook.NewListBooksUseCase(bookService),
			appbook.NewAdjustStockUseCase(ledger, txManager, logger),
		),
		Shipping: handler.NewShippingHandler(appshipping.NewListMethodsUseCase(shippingRepo)),
		Order: handler.NewOrderHandler(handler.OrderUseCases{
			Create: apporder.NewCreateOrderUseCase(orderRepo, ledger, shippingRepo, promotionService,
				txManager, idempotency, publisher, logger),
			Cancel:   apporder.NewCancelOrderUseCase(orderRepo, ledger, txManager, publisher, logger),
			Confirm:  apporder.NewConfirmOrderUseCase(orderRepo, txManager, logger),
			Assign:   apporder.NewAssignShipperUseCase(orderRepo, txManager, logger),
			Complete: apporder.NewCompleteOrderUseCase(orderRepo, txManager, publisher, logger),
			Get:      apporder.NewGetOrderUseCase(orderRepo),
			List:     apporder.NewListOrdersUseCase(orderRepo),
		}),
		Invoice: handler.NewInvoiceHandler(
			appinvoice.NewCreateInvoiceUseCase(invoiceRepo, ledger, promotionService, txManager, publisher, logger),
			appinvoice.NewGetInvoiceUseCase(invoiceRepo),
			appinvoice.NewListInvoicesUseCase(invoiceRepo),
		),
		Promotion: handler.NewPromotionHandler(
			apppromotion.NewCheckPromotionUseCase(promotionService),
			apppromotion.NewSavePromotionUseCase(promotionRepo, bookRepo, promotionService, txManager, logger),
			apppromotion.NewGetPromotionUseCase(promotionRepo),
			apppromotion.NewListPromotionsUseCase(promotionRepo),
		),
	}

	engine := router.New(router.Options{Mode: gin.TestMode}, logger, handlers, middleware.NewAuthMiddleware(jwtManager, sessions))
	return &testServer{engine: engine, db: db, jwt: jwtManager}
}

func (s *testServer) token(t *testing.T, userID uint, role user.Role) string {
	t.Helper()
	pair, err := s.jwt.GenerateToken(jwt.Identity{UserID: userID, Email: fmt.Sprintf("u%d@example.com", userID), Role: string(role)})
	require.NoError(t, err)
	return pair.AccessToken
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestPingAndMetrics(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, env.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAuthAndRoleGates(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, 1, user.RoleCustomer)
	staff := s.token(t, 100, user.RoleStaff)

	code, _ := s.do(t, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/orders", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	publish := map[string]any{
		"isbn": "9787115428028", "title": "Go语言实战", "author": "威廉·肯尼迪",
		"publisher": "人民邮电出版社", "price": 5900, "stock": 10,
	}
	code, _ = s.do(t, http.MethodPost, "/api/v1/books", customer, publish)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/books", staff, publish)
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, _ = s.do(t, http.MethodPost, "/api/v1/books", staff, publish)
	assert.Equal(t, http.StatusConflict, code)

	promo := map[string]any{
		"code": "SPRING10", "discount_type": "percent", "discount": "10",
		"start_date": "2026-01-01", "end_date": "2026-12-31",
	}
	code, _ = s.do(t, http.MethodPost, "/api/v1/promotions", staff, promo)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/invoices", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]any{
		"email": "reader@example.com", "password": "secret123", "nickname": "读者",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = s.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]any{
		"email": "reader@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	login := decode[appuser.LoginResponse](t, env)
	require.NotEmpty(t, login.AccessToken)

	code, _ = s.do(t, http.MethodGet, "/api/v1/orders", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/users/logout", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/orders", login.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, 1, user.RoleCustomer)
	stranger := s.token(t, 2, user.RoleCustomer)
	staff := s.token(t, 100, user.RoleStaff)

	bookID := mysqltest.SeedBook(t, s.db, "9787111111111", "Go程序设计语言", 8900, 5)
	shipID := mysqltest.SeedShipping(t, s.db, "快递", 1000, true)

	body := map[string]any{
		"items":              []map[string]any{{"book_id": bookID, "quantity": 2}},
		"shipping_method_id": shipID,
		"shipping_address":   "上海市浦东新区",
	}
	code, env := s.do(t, http.MethodPost, "/api/v1/orders", customer, body, handler.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, code, env.Message)
	created := decode[apporder.OrderView](t, env)
	assert.Equal(t, 3, mysqltest.Stock(t, s.db, bookID))

	// 相同的Idempotency-Key重放第一次的结果
	code, env = s.do(t, http.MethodPost, "/api/v1/orders", customer, body, handler.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, created.OrderID, decode[apporder.OrderView](t, env).OrderID)
	assert.Equal(t, 3, mysqltest.Stock(t, s.db, bookID))

	tooMany := map[string]any{"items": []map[string]any{{"book_id": bookID, "quantity": 4}}}
	code, _ = s.do(t, http.MethodPost, "/api/v1/orders", customer, tooMany)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/orders", customer, map[string]any{"items": []map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, code)

	orderPath := fmt.Sprintf("/api/v1/orders/%d", created.OrderID)
	code, _ = s.do(t, http.MethodGet, orderPath, stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodGet, orderPath, staff, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/api/v1/orders/999", customer, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodGet, "/api/v1/orders/abc", customer, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/orders/no/"+created.OrderNo, customer, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, created.OrderID, decode[apporder.OrderView](t, env).OrderID)
	code, _ = s.do(t, http.MethodGet, "/api/v1/orders/no/"+created.OrderNo, stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodGet, "/api/v1/orders/no/NOPE", customer, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPatch, orderPath+"/confirm", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodPatch, orderPath+"/complete", staff, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodPatch, orderPath+"/confirm", staff, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	code, env = s.do(t, http.MethodPost, orderPath+"/assign-shipper", staff, map[string]any{"shipper_id": 7})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "delivering", decode[apporder.StatusResponse](t, env).Status)
	code, env = s.do(t, http.MethodPatch, orderPath+"/complete", staff, nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, http.MethodPatch, orderPath+"/cancel", customer, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	cancelled := decode[apporder.CancelOrderResponse](t, env)
	assert.False(t, cancelled.Restocked)
	assert.Equal(t, 3, mysqltest.Stock(t, s.db, bookID))
}

func TestListOrdersStatusValidation(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, 1, user.RoleCustomer)

	code, _ := s.do(t, http.MethodGet, "/api/v1/orders?status=bogus", customer, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(t, http.MethodGet, "/api/v1/orders?status=pending", customer, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	page := decode[response.PageData](t, env)
	assert.Zero(t, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Zero(t, page.TotalPages)
}

func TestShippingMethodsArePublic(t *testing.T) {
	s := newTestServer(t)
	mysqltest.SeedShipping(t, s.db, "快递", 1000, true)
	mysqltest.SeedShipping(t, s.db, "停用", 500, false)

	code, env := s.do(t, http.MethodGet, "/api/v1/shipping-methods", "", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	methods := decode[[]appshipping.MethodView](t, env)
	require.Len(t, methods, 1)
	assert.Equal(t, "快递", methods[0].Name)
}

func TestListBooksPaging(t *testing.T) {
	s := newTestServer(t)
	mysqltest.SeedBook(t, s.db, "9787111111111", "A", 1000, 1)
	mysqltest.SeedBook(t, s.db, "9787222222222", "B", 2000, 1)
	mysqltest.SeedBook(t, s.db, "9787333333333", "C", 3000, 1)

	code, env := s.do(t, http.MethodGet, "/api/v1/books?page=2&page_size=2&sort_by=price_asc", "", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	page := decode[response.PageData](t, env)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)

	var list []appbook.BookListItem
	raw, err := json.Marshal(page.List)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "C", list[0].Title)

	code, _ = s.do(t, http.MethodGet, "/api/v1/books?page_size=101", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPromotionEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, 200, user.RoleAdmin)

	bad := map[string]any{
		"code": "BAD", "discount_type": "bogus", "discount": "10",
		"start_date": "2026-01-01", "end_date": "2026-12-31",
	}
	code, _ := s.do(t, http.MethodPost, "/api/v1/promotions", admin, bad)
	assert.Equal(t, http.StatusBadRequest, code)

	start := time.Now().AddDate(0, 0, -1).Format(time.DateOnly)
	end := time.Now().AddDate(0, 0, 30).Format(time.DateOnly)
	good := map[string]any{
		"code": "spring10", "name": "春季九折", "discount_type": "percent", "discount": "10",
		"start_date": start, "end_date": end,
	}
	code, env := s.do(t, http.MethodPost, "/api/v1/promotions", admin, good)
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, _ = s.do(t, http.MethodPost, "/api/v1/promotions", admin, good)
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/promotions/check?code=SPRING10&amount=20000", "", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	check := decode[map[string]any](t, env)
	assert.Equal(t, "180.00", check["final_yuan"])

	code, _ = s.do(t, http.MethodGet, "/api/v1/promotions/check?code=SPRING10", "", nil)
	assert.Equal(t, http.StatusBadRequest, code, "缺少amount")
	code, _ = s.do(t, http.MethodGet, "/api/v1/promotions/check?code=SPRING10&amount=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, env = s.do(t, http.MethodGet, "/api/v1/promotions/check?code=SPRING10&amount=0", "", nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = s.do(t, http.MethodGet, "/api/v1/promotions/check?code=NOPE&amount=100", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/promotions?page_size=5", admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	page := decode[response.PageData](t, env)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 5, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)
}
