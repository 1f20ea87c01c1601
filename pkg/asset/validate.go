package asset

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate checks MemoryAsset struct tags. Field names are reported by their
// JSON path so messages match the wire format.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// fieldMessages overrides the default "Missing"/"Invalid" wording for paths
// whose constraint is a range or a non-empty list.
var fieldMessages = map[string]string{
	"technical_spec.alignment_loss_epsilon": "Invalid technical_spec.alignment_loss_epsilon (must be 0-1)",
	"semantic_context.keywords":             "Missing semantic_context.keywords",
	"provenance.average_rating":             "Invalid provenance.average_rating (must be 0-5)",
}

// Validate checks that every required field is present and every numeric field
// is in range. All violations are collected in declaration order. A nil asset
// reports every required field as missing.
func Validate(a *MemoryAsset) ValidationResult {
	if a == nil {
		a = &MemoryAsset{}
	}

	result := ValidationResult{Valid: true, Errors: []string{}}
	err := validate.Struct(a)
	if err == nil {
		return result
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, formatFieldError(fe))
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// formatFieldError converts a validator.FieldError into a readable message.
func formatFieldError(fe validator.FieldError) string {
	_, path, _ := strings.Cut(fe.Namespace(), ".")
	if msg, ok := fieldMessages[path]; ok {
		return msg
	}
	if fe.Tag() == "required" {
		return "Missing " + path
	}
	return "Invalid " + path
}

// numericPresence records whether the numeric fields whose zero value is
// valid were sent at all.
type numericPresence struct {
	TechnicalSpec struct {
		AlignmentLossEpsilon *float64 `json:"alignment_loss_epsilon"`
	} `json:"technical_spec"`
	Provenance struct {
		UsageCount *int `json:"usage_count"`
	} `json:"provenance"`
}

// ValidateJSON decodes an asset document and validates it like Validate.
// Absent or null alignment_loss_epsilon and usage_count are reported as
// invalid, since their zero values would otherwise pass. Errors keep field
// declaration order. A malformed document returns the decode error.
func ValidateJSON(data []byte) (ValidationResult, error) {
	var a MemoryAsset
	if err := json.Unmarshal(data, &a); err != nil {
		return ValidationResult{}, err
	}
	var seen numericPresence
	if err := json.Unmarshal(data, &seen); err != nil {
		return ValidationResult{}, err
	}

	result := Validate(&a)
	if seen.TechnicalSpec.AlignmentLossEpsilon == nil {
		result.Errors = append(result.Errors, fieldMessages["technical_spec.alignment_loss_epsilon"])
	}
	if seen.Provenance.UsageCount == nil {
		result.Errors = append(result.Errors, "Invalid provenance.usage_count")
	}
	sort.SliceStable(result.Errors, func(i, j int) bool {
		return fieldRank(result.Errors[i]) < fieldRank(result.Errors[j])
	})
	result.Valid = len(result.Errors) == 0
	return result, nil
}

// fieldOrder maps every JSON path of MemoryAsset to its declaration index.
var fieldOrder = func() map[string]int {
	order := make(map[string]int)
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := range t.NumField() {
			f := t.Field(i)
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				continue
			}
			path := prefix + name
			order[path] = len(order)
			if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Time{}) {
				walk(f.Type, path+".")
			}
		}
	}
	walk(reflect.TypeOf(MemoryAsset{}), "")
	return order
}()

// fieldRank orders a "Missing x" or "Invalid x (...)" message by the
// position of x. Unrecognized messages sort last.
func fieldRank(msg string) int {
	words := strings.Fields(msg)
	if len(words) > 1 {
		if rank, ok := fieldOrder[words[1]]; ok {
			return rank
		}
	}
	return len(fieldOrder)
}
