package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that a specialised message
// ("Order not found") still satisfies errors.Is(err, ErrNotFound).
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInvalidMethod       = "INVALID_METHOD"
	CodeInvalidSubject      = "INVALID_SUBJECT"
	CodeOpenSessionExists   = "OPEN_SESSION_EXISTS"
	CodeSessionClosed       = "SESSION_CLOSED"
	CodeCreditExceeded      = "CREDIT_EXCEEDED"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidState        = "INVALID_STATE"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidAmount       = NewDomainError(CodeInvalidAmount, "Amount must be positive")
	ErrInvalidMethod       = NewDomainError(CodeInvalidMethod, "Unknown payment method")
	ErrInvalidSubject      = NewDomainError(CodeInvalidSubject, "Invalid identity subject")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)

// NotFound builds a NOT_FOUND error naming the missing resource, e.g. NotFound("Order").
func NotFound(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}
