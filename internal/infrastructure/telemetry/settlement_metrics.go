package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a metrics constructor is given a nil meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// SettlementMetrics records payment, session and customer credit activity.
// A nil *SettlementMetrics is valid and records nothing.
type SettlementMetrics struct {
	logger *zap.Logger

	paymentCount   *Counter
	paymentAmount  metric.Float64Counter
	sessionsOpened *Counter
	sessionsClosed *Counter
	closeVariance  *Histogram
	creditBalance  metric.Float64UpDownCounter
}

// NewSettlementMetrics registers the settlement instruments on meter.
func NewSettlementMetrics(meter metric.Meter, logger *zap.Logger) (*SettlementMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &SettlementMetrics{logger: logger}
	var err error

	if m.paymentCount, err = NewCounter(meter,
		"settlement_payment_total", "Payments recorded", "{payments}"); err != nil {
		return nil, err
	}
	if m.paymentAmount, err = meter.Float64Counter("settlement_payment_amount_total",
		metric.WithDescription("Sum of recorded payment amounts"),
		metric.WithUnit("{currency}")); err != nil {
		return nil, err
	}
	if m.sessionsOpened, err = NewCounter(meter,
		"settlement_session_opened_total", "Cashier sessions opened", "{sessions}"); err != nil {
		return nil, err
	}
	if m.sessionsClosed, err = NewCounter(meter,
		"settlement_session_closed_total", "Cashier sessions closed", "{sessions}"); err != nil {
		return nil, err
	}
	if m.closeVariance, err = NewHistogram(meter, HistogramOpts{
		Name:        "settlement_session_cash_variance",
		Description: "Absolute cash variance at session close",
		Unit:        "{currency}",
		Boundaries:  VarianceBuckets,
	}); err != nil {
		return nil, err
	}
	if m.creditBalance, err = meter.Float64UpDownCounter("settlement_customer_credit_outstanding",
		metric.WithDescription("Net change in outstanding customer credit"),
		metric.WithUnit("{currency}")); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordPayment counts one payment of amount tendered with method.
func (m *SettlementMetrics) RecordPayment(ctx context.Context, method string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrPaymentMethod.String(method))
	m.paymentCount.Inc(ctx, AttrPaymentMethod.String(method))
	m.paymentAmount.Add(ctx, amount.InexactFloat64(), attrs)
}

// RecordSessionOpened counts a newly opened cashier session.
func (m *SettlementMetrics) RecordSessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsOpened.Inc(ctx)
}

// RecordSessionClosed counts a close and records the absolute variance.
func (m *SettlementMetrics) RecordSessionClosed(ctx context.Context, level string, variance decimal.Decimal) {
	if m == nil {
		return
	}
	m.sessionsClosed.Inc(ctx, AttrVarianceLevel.String(level))
	m.closeVariance.Record(ctx, variance.Abs().InexactFloat64(), AttrVarianceLevel.String(level))
}

// RecordCreditChange adds delta to the outstanding credit gauge.
func (m *SettlementMetrics) RecordCreditChange(ctx context.Context, reason string, delta decimal.Decimal) {
	if m == nil || delta.IsZero() {
		return
	}
	m.creditBalance.Add(ctx, delta.InexactFloat64(), metric.WithAttributes(AttrCreditReason.String(reason)))
}
