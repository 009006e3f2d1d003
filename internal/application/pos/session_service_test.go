package pos

import (
	"context"
	"testing"
	"time"

	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var kathmandu = time.FixedZone("NPT", 5*3600+45*60)

func newSessionService(store *memStore, now time.Time) *SessionService {
	svc := NewSessionService(store.repositories(), memAtomicScope{store: store}, SessionServiceConfig{Location: kathmandu}, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestNewSessionService_Defaults(t *testing.T) {
	svc := NewSessionService(newMemStore().repositories(), nil, SessionServiceConfig{}, nil)
	assert.Equal(t, time.Local, svc.config.Location)
	assert.True(t, svc.config.Thresholds.Tolerance.Equal(decimal.NewFromInt(50)))
	assert.NotNil(t, svc.logger)
}

func TestSessionService_Open(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 3, 14, 23, 50, 0, 0, kathmandu)
	svc := newSessionService(store, now)
	cashier := valueobject.MustNewSubject("cashier-1")

	first, err := svc.Open(context.Background(), OpenSessionRequest{CashierID: cashier, OpeningCash: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, "open", first.Status)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, kathmandu), first.SessionDate)
	assert.True(t, first.TotalCashSales.IsZero())

	_, err = svc.Open(context.Background(), OpenSessionRequest{CashierID: cashier, OpeningCash: dec("50")})
	assert.ErrorIs(t, err, pos.ErrOpenSessionExists)

	active, err := svc.GetActive(context.Background(), cashier)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)
	assert.Len(t, store.sessions, 1)

	other, err := svc.Open(context.Background(), OpenSessionRequest{CashierID: valueobject.MustNewSubject("cashier-2")})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestSessionService_Open_NegativeFloat(t *testing.T) {
	svc := newSessionService(newMemStore(), time.Now())

	_, err := svc.Open(context.Background(), OpenSessionRequest{
		CashierID:   valueobject.MustNewSubject("cashier-1"),
		OpeningCash: dec("-1"),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestSessionService_Open_PublishesEvent(t *testing.T) {
	svc := newSessionService(newMemStore(), time.Now())
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	svc.SetEventPublisher(publisher)

	_, err := svc.Open(context.Background(), OpenSessionRequest{CashierID: valueobject.MustNewSubject("cashier-1")})
	require.NoError(t, err)
	assert.Equal(t, []string{pos.EventTypeCashierSessionOpened}, publisher.eventTypes(0))
}

func TestSessionService_Close(t *testing.T) {
	f := newFixture(t)
	payments := newPaymentService(f)
	order := f.order("1000", nil)
	for _, amount := range []string{"200", "150"} {
		_, err := f.pay(payments, order.ID, "cash", amount)
		require.NoError(t, err)
	}
	_, err := f.pay(payments, order.ID, "card", "300")
	require.NoError(t, err)

	svc := newSessionService(f.store, time.Now())
	resp, err := svc.Close(context.Background(), f.session.ID, CloseSessionRequest{ClosingCash: dec("500"), Notes: "end of day"})
	require.NoError(t, err)

	assert.Equal(t, "closed", resp.Status)
	require.NotNil(t, resp.ExpectedCash)
	assert.True(t, resp.ExpectedCash.Equal(dec("450")))
	assert.True(t, resp.CashVariance.Equal(dec("50")))
	assert.Equal(t, string(pos.VarianceBalanced), resp.VarianceLevel)
	assert.NotNil(t, resp.ClosedAt)

	_, err = svc.Close(context.Background(), f.session.ID, CloseSessionRequest{ClosingCash: dec("500")})
	assert.ErrorIs(t, err, pos.ErrSessionClosed)

	_, err = svc.Close(context.Background(), uuid.New(), CloseSessionRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSessionService_Close_UsesPaymentsNotAccumulator(t *testing.T) {
	f := newFixture(t)
	svc := newSessionService(f.store, time.Now())

	// accumulator bumped without a payment behind it
	_, err := svc.UpdateTotals(context.Background(), f.session.ID, UpdateTotalsRequest{Method: "cash", Amount: dec("999")})
	require.NoError(t, err)

	resp, err := svc.Close(context.Background(), f.session.ID, CloseSessionRequest{ClosingCash: dec("100")})
	require.NoError(t, err)
	assert.True(t, resp.ExpectedCash.Equal(dec("100")))
	assert.True(t, resp.CashVariance.IsZero())
}

func TestSessionService_Close_LogsVariance(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zap.InfoLevel)
	svc := NewSessionService(f.store.repositories(), memAtomicScope{store: f.store}, SessionServiceConfig{}, zap.New(core))

	resp, err := svc.Close(context.Background(), f.session.ID, CloseSessionRequest{ClosingCash: dec("0")})
	require.NoError(t, err)
	assert.True(t, resp.CashVariance.Equal(dec("-100")))
	assert.Equal(t, string(pos.VarianceOverTolerance), resp.VarianceLevel)

	entries := logs.FilterMessage("Cashier session closed with cash variance").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
}

func TestSessionService_UpdateTotals(t *testing.T) {
	f := newFixture(t)
	svc := newSessionService(f.store, time.Now())

	resp, err := svc.UpdateTotals(context.Background(), f.session.ID, UpdateTotalsRequest{Method: "fonepay", Amount: dec("25")})
	require.NoError(t, err)
	assert.True(t, resp.TotalQRSales.Equal(dec("25")))

	_, err = svc.UpdateTotals(context.Background(), f.session.ID, UpdateTotalsRequest{Method: "voucher", Amount: dec("25")})
	assert.ErrorIs(t, err, shared.ErrInvalidMethod)

	_, err = svc.UpdateTotals(context.Background(), f.session.ID, UpdateTotalsRequest{Method: "cash", Amount: decimal.Zero})
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestSessionService_IncrementOrderCount(t *testing.T) {
	f := newFixture(t)
	svc := newSessionService(f.store, time.Now())

	for i := 0; i < 3; i++ {
		_, err := svc.IncrementOrderCount(context.Background(), f.session.ID)
		require.NoError(t, err)
	}
	resp, err := svc.GetByID(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalOrders)

	_, err = svc.Close(context.Background(), f.session.ID, CloseSessionRequest{ClosingCash: dec("100")})
	require.NoError(t, err)
	_, err = svc.IncrementOrderCount(context.Background(), f.session.ID)
	assert.ErrorIs(t, err, pos.ErrSessionClosed)
}

func TestSessionService_GetActive_None(t *testing.T) {
	svc := newSessionService(newMemStore(), time.Now())

	active, err := svc.GetActive(context.Background(), valueobject.MustNewSubject("nobody"))
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestSessionService_GetTodaySession(t *testing.T) {
	store := newMemStore()
	cashier := valueobject.MustNewSubject("cashier-1")
	morning := time.Date(2026, 3, 14, 8, 0, 0, 0, kathmandu)

	svc := newSessionService(store, morning)
	first, err := svc.Open(context.Background(), OpenSessionRequest{CashierID: cashier})
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), first.ID, CloseSessionRequest{})
	require.NoError(t, err)

	svc.now = func() time.Time { return morning.Add(6 * time.Hour) }
	second, err := svc.Open(context.Background(), OpenSessionRequest{CashierID: cashier})
	require.NoError(t, err)

	today, err := svc.GetTodaySession(context.Background(), cashier)
	require.NoError(t, err)
	require.NotNil(t, today)
	assert.Equal(t, second.ID, today.ID)

	svc.now = func() time.Time { return morning.AddDate(0, 0, 1) }
	tomorrow, err := svc.GetTodaySession(context.Background(), cashier)
	require.NoError(t, err)
	assert.Nil(t, tomorrow)
}

func TestSessionService_GetSummary(t *testing.T) {
	f := newFixture(t)
	payments := newPaymentService(f)
	customer := f.customer("0")
	paid := f.order("300", nil)
	partial := f.order("500", nil)
	onCredit := f.order("200", customer)
	f.order("50", nil)

	_, err := f.pay(payments, paid.ID, "cash", "300")
	require.NoError(t, err)
	_, err = f.pay(payments, partial.ID, "fonepay", "100")
	require.NoError(t, err)
	_, err = f.pay(payments, onCredit.ID, "credit", "200")
	require.NoError(t, err)

	svc := newSessionService(f.store, time.Now())
	summary, err := svc.GetSummary(context.Background(), f.session.ID)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Orders.Count)
	assert.Equal(t, 1, summary.Orders.Paid)
	assert.Equal(t, 1, summary.Orders.Partial)
	assert.Equal(t, 1, summary.Orders.Credit)
	assert.Equal(t, 1, summary.Orders.Unpaid)
	assert.True(t, summary.Orders.GrandTotal.Equal(dec("1050")))
	assert.True(t, summary.Payments.Fonepay.Equal(dec("100")))
	assert.True(t, summary.CashTotal.Equal(dec("300")))
	assert.True(t, summary.ExpectedCash.Equal(dec("400")))
	assert.Len(t, summary.OrderList, 4)
	assert.Len(t, summary.PaymentList, 3)

	_, err = svc.GetSummary(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSessionService_GetHistory(t *testing.T) {
	store := newMemStore()
	cashier := valueobject.MustNewSubject("cashier-1")
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, kathmandu)
	svc := newSessionService(store, day)

	for i := 0; i < 3; i++ {
		svc.now = func() time.Time { return day.AddDate(0, 0, i) }
		s, err := svc.Open(context.Background(), OpenSessionRequest{CashierID: cashier})
		require.NoError(t, err)
		_, err = svc.Close(context.Background(), s.ID, CloseSessionRequest{})
		require.NoError(t, err)
	}

	page, err := svc.GetHistory(context.Background(), SessionHistoryQuery{CashierID: &cashier, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].OpenedAt.After(page.Items[1].OpenedAt))

	// a mid-day bound is truncated to its business day
	from := day.AddDate(0, 0, 1).Add(5 * time.Hour)
	page, err = svc.GetHistory(context.Background(), SessionHistoryQuery{From: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
}

func TestSessionService_Reconcile(t *testing.T) {
	f := newFixture(t)
	payments := newPaymentService(f)
	order := f.order("100", nil)
	_, err := f.pay(payments, order.ID, "cash", "100")
	require.NoError(t, err)

	svc := newSessionService(f.store, time.Now())

	// an order tagged to the session without an increment is not tender drift
	result, err := svc.Reconcile(context.Background(), f.session.ID, false)
	require.NoError(t, err)
	assert.True(t, result.InSync)
	assert.False(t, result.OrdersInSync)
	assert.Equal(t, 0, result.StoredOrders)
	assert.Equal(t, 1, result.RecomputedOrders)
	assert.True(t, result.Drift.IsZero())

	result, err = svc.Reconcile(context.Background(), f.session.ID, true)
	require.NoError(t, err)
	assert.False(t, result.Applied)

	// drift the accumulator
	_, err = svc.UpdateTotals(context.Background(), f.session.ID, UpdateTotalsRequest{Method: "card", Amount: dec("40")})
	require.NoError(t, err)

	result, err = svc.Reconcile(context.Background(), f.session.ID, true)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.True(t, result.Drift.Card.Equal(dec("-40")))

	session := f.reloadSession()
	assert.True(t, session.Totals.Card.IsZero())
	assert.True(t, session.Totals.Cash.Equal(dec("100")))
	assert.Equal(t, 0, session.TotalOrders, "order count only moves through IncrementOrderCount")

	result, err = svc.Reconcile(context.Background(), f.session.ID, true)
	require.NoError(t, err)
	assert.True(t, result.InSync)
	assert.False(t, result.Applied)
}

func TestSessionService_Reconcile_ClosedSessionIsReadOnly(t *testing.T) {
	f := newFixture(t)
	svc := newSessionService(f.store, time.Now())
	_, err := svc.UpdateTotals(context.Background(), f.session.ID, UpdateTotalsRequest{Method: "card", Amount: dec("40")})
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), f.session.ID, CloseSessionRequest{ClosingCash: dec("100")})
	require.NoError(t, err)

	result, err := svc.Reconcile(context.Background(), f.session.ID, false)
	require.NoError(t, err)
	assert.False(t, result.InSync)
	assert.True(t, result.Drift.Card.Equal(dec("-40")))

	_, err = svc.Reconcile(context.Background(), f.session.ID, true)
	assert.ErrorIs(t, err, pos.ErrSessionClosed)
}
