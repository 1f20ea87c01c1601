package response

import (
	"errors"
	"net/http"

	"github.com/awareness-network/semindex/pkg/registry"
	"github.com/awareness-network/semindex/pkg/storage"
)

// ErrorResponse is the envelope {"error":{...}} of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the body of the envelope. Details carries per-field
// messages for validation failures.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id"`
}

// Machine readable error codes.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"
)

// Sentinels handlers may wrap to pick a status.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrValidationFailed   = errors.New("validation failed")
	ErrConflict           = errors.New("resource conflict")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("request timeout")
	ErrInternalServer     = errors.New("internal server error")
)

var codeByStatus = map[int]string{
	http.StatusBadRequest:         ErrCodeBadRequest,
	http.StatusUnauthorized:       ErrCodeUnauthorized,
	http.StatusForbidden:          ErrCodeForbidden,
	http.StatusNotFound:           ErrCodeNotFound,
	http.StatusMethodNotAllowed:   ErrCodeMethodNotAllowed,
	http.StatusConflict:           ErrCodeConflict,
	http.StatusTooManyRequests:    ErrCodeRateLimited,
	http.StatusServiceUnavailable: ErrCodeServiceUnavailable,
	http.StatusGatewayTimeout:     ErrCodeGatewayTimeout,
}

// ErrorCodeFromStatus returns the code for status, ErrCodeInternalServer
// for statuses without one.
func ErrorCodeFromStatus(status int) string {
	if code, ok := codeByStatus[status]; ok {
		return code
	}
	return ErrCodeInternalServer
}

// statusRules are checked in order; the first match wins.
var statusRules = []struct {
	status int
	match  func(error) bool
}{
	{http.StatusNotFound, func(err error) bool {
		return errors.Is(err, ErrNotFound) || errors.Is(err, registry.ErrAgentNotFound) || isType[*storage.NotFoundError](err)
	}},
	{http.StatusBadRequest, func(err error) bool {
		return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrValidationFailed) || errors.Is(err, registry.ErrInvalidAction)
	}},
	{http.StatusConflict, func(err error) bool {
		return errors.Is(err, ErrConflict) || isType[*storage.DuplicateKeyError](err)
	}},
	{http.StatusServiceUnavailable, func(err error) bool {
		return errors.Is(err, ErrServiceUnavailable) || isType[*storage.StorageUnavailableError](err)
	}},
	{http.StatusGatewayTimeout, func(err error) bool {
		return errors.Is(err, ErrTimeout)
	}},
}

func isType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// HTTPStatusFromError classifies err. Unrecognised errors are 500.
func HTTPStatusFromError(err error) int {
	for _, rule := range statusRules {
		if rule.match(err) {
			return rule.status
		}
	}
	return http.StatusInternalServerError
}

// HandleError writes the envelope for err. The message of a 500 is
// replaced by a generic one so internals never reach the client.
func HandleError(w http.ResponseWriter, err error, requestID string) {
	status := HTTPStatusFromError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = ErrInternalServer.Error()
	}
	Error(w, status, ErrorCodeFromStatus(status), msg, requestID)
}
