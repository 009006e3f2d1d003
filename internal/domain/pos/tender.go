package pos

import (
	"strings"

	"github.com/erp/restaurant/internal/domain/shared"
)

// PaymentMethod is the tender a payment was made with
type PaymentMethod string

const (
	MethodCash    PaymentMethod = "cash"
	MethodCard    PaymentMethod = "card"
	MethodQR      PaymentMethod = "qr"
	MethodFonepay PaymentMethod = "fonepay" // mobile wallet
	MethodCredit  PaymentMethod = "credit"  // deferred settlement on the customer's account
)

// AllPaymentMethods returns every accepted tender in display order
func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{MethodCash, MethodCard, MethodQR, MethodFonepay, MethodCredit}
}

// IsValid reports whether m is a known tender
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodQR, MethodFonepay, MethodCredit:
		return true
	}
	return false
}

// IsCredit reports whether the tender defers settlement to the customer's account
func (m PaymentMethod) IsCredit() bool {
	return m == MethodCredit
}

// Bucket returns the session accumulator the tender is counted in.
// QR and fonepay share a bucket.
func (m PaymentMethod) Bucket() TenderBucket {
	switch m {
	case MethodCash:
		return BucketCash
	case MethodCard:
		return BucketCard
	case MethodQR, MethodFonepay:
		return BucketQR
	case MethodCredit:
		return BucketCredit
	}
	return ""
}

// ParsePaymentMethod parses a tender name, case-insensitively
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidMethod, "Unknown payment method: "+s)
	}
	return m, nil
}

// TenderBucket is one of the per-session sales accumulators
type TenderBucket string

const (
	BucketCash   TenderBucket = "cash"
	BucketCard   TenderBucket = "card"
	BucketQR     TenderBucket = "qr"
	BucketCredit TenderBucket = "credit"
)
