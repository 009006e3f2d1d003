package pos

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSession(t *testing.T, openingCash int64) *CashierSession {
	t.Helper()
	s, err := OpenCashierSession(testCashier, decimal.NewFromInt(openingCash), time.Now(), time.UTC)
	require.NoError(t, err)
	return s
}

func TestBusinessDay(t *testing.T) {
	kathmandu := time.FixedZone("NPT", 5*3600+45*60)
	at := time.Date(2024, 3, 9, 20, 30, 0, 0, time.UTC) // 02:15 next day in NPT

	day := BusinessDay(at, kathmandu)

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, kathmandu), day)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), BusinessDay(at, time.UTC))
}

func TestOpenCashierSession(t *testing.T) {
	t.Run("opens with zeroed accumulators", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC)
		s, err := OpenCashierSession(testCashier, decimal.NewFromInt(100), now, time.UTC)
		require.NoError(t, err)

		assert.Equal(t, SessionStatusOpen, s.Status)
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), s.SessionDate)
		assert.True(t, s.Totals.IsZero())
		assert.Zero(t, s.TotalOrders)
		assert.Nil(t, s.ClosedAt)
		require.Len(t, s.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeCashierSessionOpened, s.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects negative float", func(t *testing.T) {
		_, err := OpenCashierSession(testCashier, decimal.NewFromInt(-1), time.Now(), time.UTC)
		assert.Error(t, err)
	})

	t.Run("rejects missing cashier", func(t *testing.T) {
		_, err := OpenCashierSession(valueobject.Subject{}, decimal.Zero, time.Now(), time.UTC)
		assert.True(t, errors.Is(err, shared.ErrInvalidSubject))
	})
}

func TestCashierSession_RecordTender(t *testing.T) {
	s := openTestSession(t, 0)

	require.NoError(t, s.RecordTender(MethodCash, decimal.NewFromInt(400)))
	require.NoError(t, s.RecordTender(MethodCard, decimal.NewFromInt(200)))
	require.NoError(t, s.RecordTender(MethodQR, decimal.NewFromInt(30)))
	require.NoError(t, s.RecordTender(MethodFonepay, decimal.NewFromInt(20)))
	require.NoError(t, s.RecordTender(MethodCredit, decimal.NewFromInt(100)))

	assert.True(t, s.Totals.Cash.Equal(decimal.NewFromInt(400)))
	assert.True(t, s.Totals.Card.Equal(decimal.NewFromInt(200)))
	assert.True(t, s.Totals.QR.Equal(decimal.NewFromInt(50)), "qr and fonepay share a bucket")
	assert.True(t, s.Totals.Credit.Equal(decimal.NewFromInt(100)))
	assert.True(t, s.Totals.Sum().Equal(decimal.NewFromInt(750)))

	assert.True(t, errors.Is(s.RecordTender(MethodCash, decimal.Zero), shared.ErrInvalidAmount))
	assert.True(t, errors.Is(s.RecordTender(PaymentMethod("gift"), decimal.NewFromInt(1)), shared.ErrInvalidMethod))
}

func TestCashierSession_Close(t *testing.T) {
	t.Run("computes expected cash and variance", func(t *testing.T) {
		s := openTestSession(t, 100)
		now := time.Now()

		err := s.Close(decimal.NewFromInt(500), decimal.NewFromInt(350), "end of shift", DefaultVarianceThresholds(), now)
		require.NoError(t, err)

		assert.Equal(t, SessionStatusClosed, s.Status)
		assert.True(t, s.ExpectedCash.Equal(decimal.NewFromInt(450)))
		assert.True(t, s.CashVariance.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, VarianceBalanced, s.VarianceLevel)
		assert.Equal(t, "end of shift", s.Notes)
		require.NotNil(t, s.ClosedAt)
		assert.Equal(t, now, *s.ClosedAt)

		events := s.GetDomainEvents()
		closed, ok := events[len(events)-1].(*CashierSessionClosedEvent)
		require.True(t, ok)
		assert.True(t, closed.CashVariance.Equal(decimal.NewFromInt(50)))
	})

	t.Run("uses recomputed cash sales rather than the accumulator", func(t *testing.T) {
		s := openTestSession(t, 100)
		require.NoError(t, s.RecordTender(MethodCash, decimal.NewFromInt(999)))

		require.NoError(t, s.Close(decimal.NewFromInt(300), decimal.NewFromInt(200), "", DefaultVarianceThresholds(), time.Now()))

		assert.True(t, s.ExpectedCash.Equal(decimal.NewFromInt(300)))
		assert.True(t, s.CashVariance.IsZero())
	})

	t.Run("closed session is terminal", func(t *testing.T) {
		s := openTestSession(t, 0)
		require.NoError(t, s.Close(decimal.Zero, decimal.Zero, "", DefaultVarianceThresholds(), time.Now()))

		err := s.Close(decimal.Zero, decimal.Zero, "", DefaultVarianceThresholds(), time.Now())
		assert.True(t, errors.Is(err, ErrSessionClosed))
		assert.Equal(t, "Session is already closed", err.Error())
		assert.True(t, errors.Is(s.RecordTender(MethodCash, decimal.NewFromInt(1)), ErrSessionClosed))
		assert.True(t, errors.Is(s.IncrementOrderCount(), ErrSessionClosed))
	})
}

func TestCashierSession_Reconcile(t *testing.T) {
	s := openTestSession(t, 0)
	require.NoError(t, s.RecordTender(MethodCash, decimal.NewFromInt(10)))

	payments := []Payment{newTestPayment(t, MethodCash, 25), newTestPayment(t, MethodFonepay, 5)}
	recomputed := TenderTotalsFromPayments(payments)
	drift := recomputed.Sub(s.Totals)

	assert.True(t, drift.Cash.Equal(decimal.NewFromInt(15)))
	assert.True(t, drift.QR.Equal(decimal.NewFromInt(5)))

	require.NoError(t, s.IncrementOrderCount())
	s.Reconcile(recomputed)
	assert.True(t, s.Totals.Sum().Equal(TotalPaid(payments)))
	assert.Equal(t, 1, s.TotalOrders)
}

func TestVarianceThresholds_Classify(t *testing.T) {
	th := DefaultVarianceThresholds()

	assert.Equal(t, VarianceBalanced, th.Classify(decimal.Zero))
	assert.Equal(t, VarianceBalanced, th.Classify(decimal.NewFromInt(-50)))
	assert.Equal(t, VarianceOverTolerance, th.Classify(decimal.NewFromInt(51)))
	assert.Equal(t, VarianceOverTolerance, th.Classify(decimal.NewFromInt(-500)))
	assert.Equal(t, VarianceCritical, th.Classify(decimal.NewFromInt(501)))
}
