package event

import (
	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/trade"
)

// SettlementEventTypes lists every event the settlement services publish
var SettlementEventTypes = []string{
	pos.EventTypeCashierSessionOpened,
	pos.EventTypeCashierSessionClosed,
	pos.EventTypePaymentRecorded,
	trade.EventTypeOrderPaymentStatusChanged,
	partner.EventTypeCustomerCreditChanged,
}

// RegisterSettlementEvents registers the settlement event types with serializer
func RegisterSettlementEvents(serializer *EventSerializer) {
	serializer.Register(pos.EventTypeCashierSessionOpened, &pos.CashierSessionOpenedEvent{})
	serializer.Register(pos.EventTypeCashierSessionClosed, &pos.CashierSessionClosedEvent{})
	serializer.Register(pos.EventTypePaymentRecorded, &pos.PaymentRecordedEvent{})
	serializer.Register(trade.EventTypeOrderPaymentStatusChanged, &trade.OrderPaymentStatusChangedEvent{})
	serializer.Register(partner.EventTypeCustomerCreditChanged, &partner.CustomerCreditChangedEvent{})
}
