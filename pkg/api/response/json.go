// Package response writes JSON bodies and the error envelope used by every
// semindex endpoint.
package response

import (
	"encoding/json"
	"net/http"
)

// encodeFailure is sent when a payload cannot be marshaled.
var encodeFailure = []byte(`{"error":{"code":"INTERNAL_SERVER_ERROR","message":"failed to encode response","request_id":""}}` + "\n")

// JSON writes data with statusCode. The body is marshaled before any header
// is written, so an unencodable payload turns into a 500 envelope instead of
// a truncated 200.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	if data == nil {
		w.WriteHeader(statusCode)
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		statusCode = http.StatusInternalServerError
		body = encodeFailure
	} else {
		body = append(body, '\n')
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// Error writes the error envelope.
func Error(w http.ResponseWriter, statusCode int, code, message string, requestID string) {
	ErrorWithDetails(w, statusCode, code, message, nil, requestID)
}

// ErrorWithDetails writes the error envelope with per-field details, such as
// validation failures keyed by JSON field name.
func ErrorWithDetails(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}, requestID string) {
	JSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}
