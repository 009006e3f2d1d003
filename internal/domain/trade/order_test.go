package trade

import (
	"errors"
	"testing"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	t.Run("creates unpaid order", func(t *testing.T) {
		order, err := NewOrder("ORD-001", decimal.NewFromInt(1000), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusUnpaid, order.PaymentStatus)
		assert.True(t, order.GrandTotal.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, 1, order.Version)
		assert.False(t, order.HasCustomer())
	})

	t.Run("rejects empty order number", func(t *testing.T) {
		_, err := NewOrder("", decimal.NewFromInt(10), nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects negative grand total", func(t *testing.T) {
		_, err := NewOrder("ORD-002", decimal.NewFromInt(-1), nil, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidAmount))
	})
}

func TestOrder_BelongsTo(t *testing.T) {
	customerID := uuid.New()
	order, err := NewOrder("ORD-003", decimal.NewFromInt(10), nil, &customerID)
	require.NoError(t, err)

	assert.True(t, order.HasCustomer())
	assert.True(t, order.BelongsTo(customerID))
	assert.False(t, order.BelongsTo(uuid.New()))
}

func TestOrder_ApplyPaymentStatus(t *testing.T) {
	order, err := NewOrder("ORD-004", decimal.NewFromInt(10), nil, nil)
	require.NoError(t, err)

	require.NoError(t, order.ApplyPaymentStatus(PaymentStatusPartial))
	assert.Equal(t, PaymentStatusPartial, order.PaymentStatus)
	require.Len(t, order.GetDomainEvents(), 1)

	event, ok := order.GetDomainEvents()[0].(*OrderPaymentStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, PaymentStatusUnpaid, event.OldStatus)
	assert.Equal(t, PaymentStatusPartial, event.NewStatus)

	// unchanged status raises nothing
	require.NoError(t, order.ApplyPaymentStatus(PaymentStatusPartial))
	assert.Len(t, order.GetDomainEvents(), 1)

	assert.Error(t, order.ApplyPaymentStatus(PaymentStatus("refunded")))
}
