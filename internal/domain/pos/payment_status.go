package pos

import (
	"github.com/erp/restaurant/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// Two status policies exist because the single-tender and split-tender
// checkout paths disagree on how credit affects the order status.
// Both are kept as-is until product decides on a single rule.

// SinglePaymentStatus derives an order's status after one payment was recorded.
// A credit tender in this call forces "credit" whatever the amount paid.
//   - credit if method is credit
//   - paid if total paid >= grand total
//   - partial if anything was paid
//   - unpaid otherwise
func SinglePaymentStatus(method PaymentMethod, payments []Payment, grandTotal decimal.Decimal) trade.PaymentStatus {
	if method.IsCredit() {
		return trade.PaymentStatusCredit
	}
	return amountStatus(TotalPaid(payments), grandTotal)
}

// SplitPaymentStatus derives an order's status after a split payment.
// Credit status requires the order to be fully covered and any payment
// in the whole set to be on credit.
//   - credit if a credit tender exists and total paid >= grand total
//   - paid if total paid >= grand total
//   - partial if anything was paid
//   - unpaid otherwise
func SplitPaymentStatus(payments []Payment, grandTotal decimal.Decimal) trade.PaymentStatus {
	paid := TotalPaid(payments)
	if HasCreditTender(payments) && paid.GreaterThanOrEqual(grandTotal) {
		return trade.PaymentStatusCredit
	}
	return amountStatus(paid, grandTotal)
}

// CreditSettlementStatus derives the status of a credit order after the
// customer settles part of their account against it. Credit tenders do not
// count as settlement: the order is paid once non-credit payments cover it.
func CreditSettlementStatus(payments []Payment, grandTotal decimal.Decimal) trade.PaymentStatus {
	settled := decimal.Zero
	for _, p := range payments {
		if !p.Method.IsCredit() {
			settled = settled.Add(p.Amount)
		}
	}
	if settled.GreaterThanOrEqual(grandTotal) {
		return trade.PaymentStatusPaid
	}
	return trade.PaymentStatusCredit
}

func amountStatus(paid, grandTotal decimal.Decimal) trade.PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(grandTotal):
		return trade.PaymentStatusPaid
	case paid.IsPositive():
		return trade.PaymentStatusPartial
	default:
		return trade.PaymentStatusUnpaid
	}
}
