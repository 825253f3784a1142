package driving

import "github.com/custodia-labs/labinv/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Set updates a single setting by key, validating the value.
	Set(key, value string) error

	// Unset restores a setting to its default.
	Unset(key string) error

	// Keys returns the supported setting keys.
	Keys() []string

	// SetToken stores the API token.
	SetToken(token string) error

	// SearchContext returns the scoped search configuration for name, or the
	// configured default when name is empty.
	SearchContext(name string) (domain.SearchContext, error)

	// Validate checks the server settings are usable.
	Validate() error
}
