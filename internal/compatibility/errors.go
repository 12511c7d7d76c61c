package compatibility

import (
	"errors"
	"fmt"
)

// UnsupportedCategoryError is returned when a category has no registered
// scorer set.
type UnsupportedCategoryError struct {
	Category string
}

func (e *UnsupportedCategoryError) Error() string {
	return fmt.Sprintf("unsupported category %q", e.Category)
}

// ConfigurationError reports an engine that cannot score a known category,
// typically because its weight table is missing.
type ConfigurationError struct {
	Category Category
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Category == "" {
		return "compatibility configuration: " + e.Reason
	}
	return fmt.Sprintf("compatibility configuration for %s: %s", e.Category, e.Reason)
}

// IsUnsupportedCategory reports whether err wraps an UnsupportedCategoryError.
func IsUnsupportedCategory(err error) bool {
	var target *UnsupportedCategoryError
	return errors.As(err, &target)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
