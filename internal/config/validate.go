package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validateRequired(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

func validateOneOf(field, value string, allowed ...string) error {
	if !slices.Contains(allowed, value) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be one of: %v", allowed)}
	}
	return nil
}

func validateURL(field, value string) error {
	if err := validateRequired(field, value); err != nil {
		return err
	}

	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: field, Message: "must be an absolute URL"}
	}
	return nil
}
