package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/awareness-network/semindex/pkg/api/middleware"
	"github.com/awareness-network/semindex/pkg/api/response"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// newValidator returns a validator that reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// getRequestID extracts request ID from context
func getRequestID(ctx context.Context) string {
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		return reqID
	}
	return "unknown"
}

// limitBounds describes an optional limit query parameter.
type limitBounds struct {
	def, min, max int
}

// parseLimit reads the "limit" query parameter. A missing value yields the
// default; non-numeric or out-of-range values are errors.
func parseLimit(r *http.Request, b limitBounds) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return b.def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer")
	}
	if n < b.min || n > b.max {
		return 0, fmt.Errorf("limit must be between %d and %d", b.min, b.max)
	}
	return n, nil
}

// decodeJSON decodes a size-limited JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// writeValidationError renders validator errors as VALIDATION_FAILED with a
// per-field detail map.
func writeValidationError(w http.ResponseWriter, err error, requestID string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), requestID)
		return
	}

	details := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		details[field] = msg
	}
	response.ErrorWithDetails(w, http.StatusBadRequest, response.ErrCodeValidationFailed,
		"Request validation failed", details, requestID)
}

func badRequest(w http.ResponseWriter, ctx context.Context, message string) {
	response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, message, getRequestID(ctx))
}

func validationFailed(w http.ResponseWriter, ctx context.Context, message string) {
	response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, message, getRequestID(ctx))
}

// decodeLenient returns a size-limited decoder that tolerates unknown fields.
func decodeLenient(w http.ResponseWriter, r *http.Request) *json.Decoder {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}
