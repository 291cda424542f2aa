package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// StatusClientClosedRequest is the de-facto status for requests the caller abandoned.
const StatusClientClosedRequest = 499

const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnsupportedChain = "UNSUPPORTED_CHAIN"
	CodeUpstreamTimeout  = "UPSTREAM_TIMEOUT"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeCanceled         = "REQUEST_CANCELED"
	CodeConflict         = "CONFLICT"
)

// Sentinels for errors.Is checks.
var (
	ErrInvalidRequest = &DomainError{
		Code:    CodeInvalidRequest,
		Message: "invalid request",
		Status:  http.StatusBadRequest,
	}
	ErrUnsupportedChain = &DomainError{
		Code:    CodeUnsupportedChain,
		Message: "unsupported chain",
		Status:  http.StatusBadRequest,
	}
	ErrUpstreamTimeout = &DomainError{
		Code:    CodeUpstreamTimeout,
		Message: "aggregator request timed out",
		Status:  http.StatusRequestTimeout,
	}
	ErrUpstreamError = &DomainError{
		Code:    CodeUpstreamError,
		Message: "aggregator request failed",
		Status:  http.StatusBadGateway,
	}
	ErrInternal = &DomainError{
		Code:    CodeInternal,
		Message: "internal error",
		Status:  http.StatusInternalServerError,
	}
	ErrNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "not found",
		Status:  http.StatusNotFound,
	}
	ErrCanceled = &DomainError{
		Code:    CodeCanceled,
		Message: "request canceled",
		Status:  StatusClientClosedRequest,
	}
	ErrConflict = &DomainError{
		Code:    CodeConflict,
		Message: "conflicting update",
		Status:  http.StatusConflict,
	}
)

// InvalidRequest reports a caller error.
func InvalidRequest(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    CodeInvalidRequest,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusBadRequest,
	}
}

// UnsupportedChain reports a chain ID missing from the registry.
func UnsupportedChain(chainID int64) *DomainError {
	return &DomainError{
		Code:    CodeUnsupportedChain,
		Message: fmt.Sprintf("unsupported chain: %d", chainID),
		Status:  http.StatusBadRequest,
	}
}

// UpstreamTimeout reports that the aggregator did not answer before the deadline.
func UpstreamTimeout(err error) *DomainError {
	return &DomainError{
		Code:    CodeUpstreamTimeout,
		Message: "aggregator request timed out",
		Status:  http.StatusRequestTimeout,
		Err:     err,
	}
}

// UpstreamError carries the aggregator's status and body. Statuses outside
// 4xx/5xx (including transport failures, passed as 0) map to 502.
func UpstreamError(status int, body string) *DomainError {
	code := status
	if code < 400 || code > 599 {
		code = http.StatusBadGateway
	}
	return &DomainError{
		Code:    CodeUpstreamError,
		Message: fmt.Sprintf("aggregator returned status %d", status),
		Status:  code,
		Details: body,
	}
}

// UpstreamFailure wraps a failure that happened while talking to an upstream
// without an HTTP status, e.g. a refused connection or a bad RPC reply.
func UpstreamFailure(message string, err error) *DomainError {
	return &DomainError{
		Code:    CodeUpstreamError,
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// Internal wraps an unexpected failure. Message is safe to show callers; err is not.
func Internal(message string, err error) *DomainError {
	return &DomainError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NotFound reports a missing resource.
func NotFound(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusNotFound,
	}
}

// Conflict reports a write that lost a race with another writer.
func Conflict(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    CodeConflict,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusConflict,
	}
}

// Canceled reports that the caller abandoned the request.
func Canceled(err error) *DomainError {
	return &DomainError{
		Code:    CodeCanceled,
		Message: "request canceled",
		Status:  StatusClientClosedRequest,
		Err:     err,
	}
}

// IsRetryable reports whether the caller may retry err with backoff.
func IsRetryable(err error) bool {
	return stderrors.Is(err, ErrUpstreamTimeout)
}
