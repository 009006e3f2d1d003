package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apppartner "github.com/erp/restaurant/internal/application/partner"
	apppos "github.com/erp/restaurant/internal/application/pos"
	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/trade"
	"github.com/erp/restaurant/internal/infrastructure/auth"
	"github.com/erp/restaurant/internal/infrastructure/config"
	"github.com/erp/restaurant/internal/infrastructure/persistence"
	"github.com/erp/restaurant/internal/interfaces/http/dto"
	"github.com/erp/restaurant/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret = "handler-test-secret-at-least-32-chars"
	testIssuer    = "restaurant-identity"
)

var validatorOnce sync.Once

// testAPI serves the settlement handlers over in-memory SQLite
type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	validatorOnce.Do(func() {
		require.NoError(t, middleware.SetupValidator())
	})

	database, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         ":memory:",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, persistence.AutoMigrate(database.DB))

	repos := persistence.NewRepositories(database.DB)
	scope := persistence.NewTransactionScope(database.DB, true)
	sessionService := apppos.NewSessionService(repos, scope, apppos.SessionServiceConfig{Location: time.UTC}, nil)
	paymentService := apppos.NewPaymentService(repos, scope, nil)
	creditService := apppartner.NewCreditService(repos, scope, nil)

	sessions := NewSessionHandler(sessionService)
	payments := NewPaymentHandler(paymentService)
	credit := NewCustomerCreditHandler(paymentService, creditService)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	verifier := auth.NewTokenVerifier(config.JWTConfig{Secret: testJWTSecret, Issuer: testIssuer})
	api := engine.Group("/api/v1", middleware.JWTAuthMiddleware(verifier))

	api.POST("/sessions/open", sessions.Open)
	api.GET("/sessions/active", sessions.GetActive)
	api.GET("/sessions/today", sessions.GetToday)
	api.GET("/sessions/history", sessions.History)
	api.GET("/sessions/:id", sessions.GetByID)
	api.GET("/sessions/:id/summary", sessions.GetSummary)
	api.GET("/sessions/:id/reconcile", sessions.Reconcile)
	api.POST("/sessions/:id/close", sessions.Close)
	api.POST("/sessions/:id/totals", sessions.UpdateTotals)
	api.POST("/sessions/:id/orders/increment", sessions.IncrementOrderCount)
	api.GET("/sessions/:id/payments", payments.ListBySession)
	api.GET("/sessions/:id/payments/summary", payments.SummaryByMethod)
	api.POST("/payments", payments.RecordPayment)
	api.POST("/payments/split", payments.RecordSplitPayment)
	api.GET("/orders/:id/payments", payments.ListByOrder)
	api.GET("/customers/credit", credit.ListWithCredit)
	api.GET("/customers/:id/credit", credit.GetSummary)
	api.POST("/customers/:id/credit/payoff", credit.PayOff)
	api.POST("/customers/:id/credit/payments", credit.RecordPayment)

	// unauthenticated routes exercise the handlers' own 401
	anonymous := engine.Group("/anonymous")
	anonymous.POST("/sessions/open", sessions.Open)
	anonymous.POST("/payments", payments.RecordPayment)

	return &testAPI{t: t, db: database.DB, engine: engine}
}

func (a *testAPI) token(subject string) string {
	a.t.Helper()
	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Roles: []string{"cashier"},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(a.t, err)
	return token
}

// do sends a request as subject; an empty subject sends no Authorization header
func (a *testAPI) do(method, path, subject, body string) (*httptest.ResponseRecorder, dto.Response) {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(subject))
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

// openSession opens a drawer for cashier and returns its ID
func (a *testAPI) openSession(cashier, openingCash string) string {
	a.t.Helper()
	w, resp := a.do(http.MethodPost, "/api/v1/sessions/open", cashier, `{"opening_cash":"`+openingCash+`"}`)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return data(resp)["id"].(string)
}

func (a *testAPI) createOrder(number, total string, sessionID string, customerID *uuid.UUID) *trade.Order {
	a.t.Helper()
	sid := uuid.MustParse(sessionID)
	o, err := trade.NewOrder(number, dec(total), &sid, customerID)
	require.NoError(a.t, err)
	require.NoError(a.t, persistence.NewGormOrderRepository(a.db).Create(context.Background(), o))
	return o
}

func (a *testAPI) createCustomer(code, credit string) *partner.Customer {
	a.t.Helper()
	c, err := partner.NewCustomer(code, "Customer "+code)
	require.NoError(a.t, err)
	c.CurrentCredit = dec(credit)
	require.NoError(a.t, persistence.NewGormCustomerRepository(a.db).Create(context.Background(), c))
	return c
}

func (a *testAPI) reloadOrder(id uuid.UUID) *trade.Order {
	a.t.Helper()
	o, err := persistence.NewGormOrderRepository(a.db).FindByID(context.Background(), id)
	require.NoError(a.t, err)
	return o
}

func (a *testAPI) reloadCustomer(id uuid.UUID) *partner.Customer {
	a.t.Helper()
	c, err := persistence.NewGormCustomerRepository(a.db).FindByID(context.Background(), id)
	require.NoError(a.t, err)
	return c
}

func data(resp dto.Response) map[string]any {
	m, _ := resp.Data.(map[string]any)
	return m
}

func errorCode(resp dto.Response) string {
	if resp.Error == nil {
		return ""
	}
	return resp.Error.Code
}

// decimalField reads a decimal serialized as a JSON string
func decimalField(t *testing.T, m map[string]any, key string) decimal.Decimal {
	t.Helper()
	s, ok := m[key].(string)
	require.True(t, ok, "%s is not a decimal string: %v", key, m[key])
	return decimal.RequireFromString(s)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
