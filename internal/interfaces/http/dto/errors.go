package dto

import (
	"net/http"
	"strings"
)

// API error codes. Format: ERR_<DESCRIPTION>
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"

	ErrCodeInvalidAmount  = "ERR_INVALID_AMOUNT"
	ErrCodeInvalidMethod  = "ERR_INVALID_METHOD"
	ErrCodeInvalidSubject = "ERR_INVALID_SUBJECT"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeOpenSessionExists   = "ERR_OPEN_SESSION_EXISTS"
	ErrCodeSessionClosed       = "ERR_SESSION_CLOSED"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeDuplicateRequest    = "ERR_DUPLICATE_REQUEST"

	ErrCodeCreditExceeded = "ERR_CREDIT_EXCEEDED"
	ErrCodeInvalidState   = "ERR_INVALID_STATE"

	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeInvalidJSON:    http.StatusBadRequest,
	ErrCodeInvalidAmount:  http.StatusBadRequest,
	ErrCodeInvalidMethod:  http.StatusBadRequest,
	ErrCodeInvalidSubject: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeOpenSessionExists:   http.StatusConflict,
	ErrCodeSessionClosed:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	ErrCodeCreditExceeded: http.StatusUnprocessableEntity,
	ErrCodeInvalidState:   http.StatusUnprocessableEntity,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status for an API error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"INVALID_INPUT":        ErrCodeValidation,
	"INVALID_AMOUNT":       ErrCodeInvalidAmount,
	"INVALID_METHOD":       ErrCodeInvalidMethod,
	"INVALID_SUBJECT":      ErrCodeInvalidSubject,
	"OPEN_SESSION_EXISTS":  ErrCodeOpenSessionExists,
	"SESSION_CLOSED":       ErrCodeSessionClosed,
	"CREDIT_EXCEEDED":      ErrCodeCreditExceeded,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"INVALID_STATE":        ErrCodeInvalidState,
}

// NormalizeErrorCode converts a domain error code to its API code.
// Unmapped INVALID_* codes (field validation in the aggregates) become
// ERR_VALIDATION; anything else passes through unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeValidation
	}
	return code
}
