package pos

import (
	"testing"

	"github.com/erp/restaurant/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSinglePaymentStatus(t *testing.T) {
	total := decimal.NewFromInt(1000)

	tests := []struct {
		name     string
		method   PaymentMethod
		payments func(t *testing.T) []Payment
		want     trade.PaymentStatus
	}{
		{
			name:   "partial cash",
			method: MethodCash,
			payments: func(t *testing.T) []Payment {
				return []Payment{newTestPayment(t, MethodCash, 400)}
			},
			want: trade.PaymentStatusPartial,
		},
		{
			name:   "cash covering the total",
			method: MethodCash,
			payments: func(t *testing.T) []Payment {
				return []Payment{newTestPayment(t, MethodCash, 400), newTestPayment(t, MethodCash, 600)}
			},
			want: trade.PaymentStatusPaid,
		},
		{
			name:   "overpayment is paid",
			method: MethodCard,
			payments: func(t *testing.T) []Payment {
				return []Payment{newTestPayment(t, MethodCard, 1200)}
			},
			want: trade.PaymentStatusPaid,
		},
		{
			name:   "credit forces credit when fully covered",
			method: MethodCredit,
			payments: func(t *testing.T) []Payment {
				return []Payment{newTestPayment(t, MethodCredit, 1000)}
			},
			want: trade.PaymentStatusCredit,
		},
		{
			name:   "credit forces credit when short",
			method: MethodCredit,
			payments: func(t *testing.T) []Payment {
				return []Payment{newTestPayment(t, MethodCredit, 100)}
			},
			want: trade.PaymentStatusCredit,
		},
		{
			name:   "earlier credit payment does not force credit on a cash call",
			method: MethodCash,
			payments: func(t *testing.T) []Payment {
				return []Payment{newTestPayment(t, MethodCredit, 100), newTestPayment(t, MethodCash, 100)}
			},
			want: trade.PaymentStatusPartial,
		},
		{
			name:   "nothing paid",
			method: MethodCash,
			payments: func(t *testing.T) []Payment {
				return nil
			},
			want: trade.PaymentStatusUnpaid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SinglePaymentStatus(tt.method, tt.payments(t), total)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitPaymentStatus(t *testing.T) {
	total := decimal.NewFromInt(1000)

	tests := []struct {
		name     string
		payments func(t *testing.T) []Payment
		want     trade.PaymentStatus
	}{
		{
			name: "cash and card covering the total",
			payments: func(t *testing.T) []Payment {
				return []Payment{newTestPayment(t, MethodCash, 300), newTestPayment(t, MethodCard, 700)}
			},
			want: trade.PaymentStatusPaid,
		},
		{
			name: "credit in a fully covered set",
			payments: func(t *testing.T) []Payment {
				return []Payment{newTestPayment(t, MethodCash, 300), newTestPayment(t, MethodCredit, 700)}
			},
			want: trade.PaymentStatusCredit,
		},
		{
			name: "credit in a short set is partial",
			payments: func(t *testing.T) []Payment {
				return []Payment{newTestPayment(t, MethodCash, 300), newTestPayment(t, MethodCredit, 200)}
			},
			want: trade.PaymentStatusPartial,
		},
		{
			name: "no payments",
			payments: func(t *testing.T) []Payment {
				return []Payment{}
			},
			want: trade.PaymentStatusUnpaid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitPaymentStatus(tt.payments(t), total))
		})
	}
}

func TestStatusPolicies_DisagreeOnShortCredit(t *testing.T) {
	total := decimal.NewFromInt(1000)
	payments := []Payment{newTestPayment(t, MethodCredit, 400)}

	assert.Equal(t, trade.PaymentStatusCredit, SinglePaymentStatus(MethodCredit, payments, total))
	assert.Equal(t, trade.PaymentStatusPartial, SplitPaymentStatus(payments, total))
}

func TestCreditSettlementStatus(t *testing.T) {
	total := decimal.NewFromInt(1000)

	credit := []Payment{newTestPayment(t, MethodCredit, 1000)}
	assert.Equal(t, trade.PaymentStatusCredit, CreditSettlementStatus(credit, total))

	partlySettled := append(credit, newTestPayment(t, MethodCash, 400))
	assert.Equal(t, trade.PaymentStatusCredit, CreditSettlementStatus(partlySettled, total))

	settled := append(partlySettled, newTestPayment(t, MethodCash, 600))
	assert.Equal(t, trade.PaymentStatusPaid, CreditSettlementStatus(settled, total))
}
