package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var environments = []string{"development", "staging", "production"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	for tag, fn := range map[string]validator.Func{
		"env":         func(fl validator.FieldLevel) bool { return slices.Contains(environments, fl.Field().String()) },
		"file_exists": fileExists,
		"host":        func(fl validator.FieldLevel) bool { return !strings.ContainsFunc(fl.Field().String(), badHostRune) },
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("config: register %q: %v", tag, err))
		}
	}
	v.RegisterStructValidation(backendSettings, RegistryConfig{})
	v.RegisterStructValidation(tracingSettings, TracingConfig{})
	v.RegisterStructValidation(authSettings, AuthConfig{})
	return v
}

// ConfigError describes one rejected field.
type ConfigError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors lists every rejected field of a config.
type ValidationErrors []ConfigError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	lines := make([]string, 0, len(e)+1)
	lines = append(lines, "configuration validation failed:")
	for _, ce := range e {
		lines = append(lines, "  - "+ce.Error())
	}
	return strings.Join(lines, "\n") + "\n"
}

// ValidateWithDetails validates cfg and reports failures as ValidationErrors.
func ValidateWithDetails(cfg *Config) error {
	err := validate.Struct(cfg)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	details := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, ConfigError{
			Field:   fe.Namespace(),
			Message: formatValidationError(fe.Tag(), fe.Param()),
			Value:   fe.Value(),
		})
	}
	return details
}

// tagMessages holds a format per tag; %s is the tag parameter.
var tagMessages = map[string]string{
	"required":    "this field is required",
	"required_if": "this field is required",
	"min":         "must be at least %s",
	"max":         "must be at most %s",
	"oneof":       "must be one of [%s]",
	"gt":          "must be greater than %s",
	"gte":         "must be greater than or equal to %s",
	"lte":         "must be less than or equal to %s",
	"file_exists": "file does not exist",
	"host":        "must be a valid host name or address",
}

func formatValidationError(tag, param string) string {
	if tag == "env" {
		return "must be one of [" + strings.Join(environments, " ") + "]"
	}
	msg, ok := tagMessages[tag]
	if !ok {
		return "failed validation: " + tag
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, param)
	}
	return msg
}

// fileExists accepts an empty path or a regular file.
func fileExists(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// badHostRune rejects anything outside host names, IP literals and a port.
func badHostRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-.:_", r)
}

func backendSettings(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(RegistryConfig)
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }
	switch {
	case cfg.Backend == "badger" && blank(cfg.Badger.Path):
		sl.ReportError(cfg.Badger.Path, "Badger.Path", "Path", "required", "")
	case cfg.Backend == "redis" && blank(cfg.Redis.Address):
		sl.ReportError(cfg.Redis.Address, "Redis.Address", "Address", "required", "")
	}
}

// tracingSettings requires an endpoint and a positive timeout once tracing is on.
func tracingSettings(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(TracingConfig)
	if !cfg.Enabled {
		return
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		sl.ReportError(cfg.Endpoint, "Endpoint", "Endpoint", "required", "")
	}
	if cfg.Timeout <= 0 {
		sl.ReportError(cfg.Timeout, "Timeout", "Timeout", "gt", "0")
	}
}

// authSettings requires at least one key once auth is on.
func authSettings(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(AuthConfig)
	if cfg.Enabled && len(cfg.APIKeys) == 0 {
		sl.ReportError(cfg.APIKeys, "APIKeys", "APIKeys", "required", "")
	}
}
