package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentEvent(t *testing.T, method pos.PaymentMethod, amount string) *pos.PaymentRecordedEvent {
	t.Helper()
	payment, err := pos.NewPayment(uuid.New(), uuid.New(), method, decimal.RequireFromString(amount),
		valueobject.MustNewSubject("cashier-7"), "", "")
	require.NoError(t, err)
	return pos.NewPaymentRecordedEvent(payment)
}

func TestEventSerializer_SettlementEvents(t *testing.T) {
	s := NewEventSerializer()
	RegisterSettlementEvents(s)

	assert.Equal(t, []string{
		"CashierSessionClosed",
		"CashierSessionOpened",
		"CustomerCreditChanged",
		"OrderPaymentStatusChanged",
		"PaymentRecorded",
	}, s.RegisteredTypes())
	for _, eventType := range SettlementEventTypes {
		assert.True(t, s.IsRegistered(eventType), eventType)
	}

	original := newPaymentEvent(t, pos.MethodFonepay, "1250.75")
	data, err := s.Serialize(original)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "1250.75", raw["amount"])
	assert.Equal(t, "fonepay", raw["method"])
	assert.Equal(t, "PaymentRecorded", raw["type"])

	decoded, err := s.Deserialize(original.EventType(), data)
	require.NoError(t, err)
	got, ok := decoded.(*pos.PaymentRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), got.EventID())
	assert.True(t, got.Amount.Equal(original.Amount))
	assert.Equal(t, "cashier-7", got.ReceivedBy)
	assert.WithinDuration(t, original.OccurredAt(), got.OccurredAt(), time.Microsecond)
}

func TestEventSerializer_Errors(t *testing.T) {
	s := NewEventSerializer()
	RegisterSettlementEvents(s)

	_, err := s.Deserialize("Unknown", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = s.Deserialize(pos.EventTypePaymentRecorded, []byte(`{"amount":`))
	assert.ErrorContains(t, err, "failed to unmarshal")
}
