package services

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyServerURL      = "server.url"
	keyServerToken    = "server.token"
	keyHTTPTimeout    = "http.timeout_seconds"
	keyHTTPMaxRetries = "http.max_retries"
	keyHTTPRateLimit  = "http.rate_limit"
	keyHTTPBurst      = "http.burst"
	keySearchPageSize = "search.page_size"
	keySearchContext  = "search.context"
	keySearchOrderBy  = "search.order_by"
	keySearchOrder    = "search.sort_order"
)

// settingKeys lists the keys Set accepts, in display order.
var settingKeys = []string{
	keyServerURL,
	keyServerToken,
	keyHTTPTimeout,
	keyHTTPMaxRetries,
	keyHTTPRateLimit,
	keyHTTPBurst,
	keySearchPageSize,
	keySearchContext,
	keySearchOrderBy,
	keySearchOrder,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or invalid stored
// values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Server: domain.ServerSettings{
			URL:   strings.TrimRight(s.configStore.GetString(keyServerURL), "/"),
			Token: s.configStore.GetString(keyServerToken),
		},
		HTTP: domain.HTTPSettings{
			Timeout:    time.Duration(s.getInt(keyHTTPTimeout, int(defaults.HTTP.Timeout/time.Second))) * time.Second,
			MaxRetries: s.getIntInRange(keyHTTPMaxRetries, 0, domain.MaxHTTPRetries, defaults.HTTP.MaxRetries),
			RateLimit:  s.getFloat(keyHTTPRateLimit, defaults.HTTP.RateLimit),
			Burst:      s.getInt(keyHTTPBurst, defaults.HTTP.Burst),
		},
		Search: domain.SearchSettings{
			PageSize:  s.getPageSize(defaults.Search.PageSize),
			Context:   s.getSearchContext(defaults.Search.Context),
			OrderBy:   s.getOrderBy(defaults.Search.OrderBy),
		},
	}
	settings.Search.SortOrder = s.getSortOrder(domain.DefaultSortOrder(settings.Search.OrderBy))

	return settings, nil
}

// Set validates value for key and stores it in its native type.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)
	stored, err := parseSetting(key, value)
	if err != nil {
		return err
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Unset restores a setting to its default.
func (s *SettingsService) Unset(key string) error {
	if !slices.Contains(settingKeys, key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Unset(key); err != nil {
		return fmt.Errorf("unset %s: %w", key, err)
	}
	return nil
}

// Keys returns the supported setting keys.
func (s *SettingsService) Keys() []string {
	return slices.Clone(settingKeys)
}

// SetToken stores the API token.
func (s *SettingsService) SetToken(token string) error {
	return s.Set(keyServerToken, token)
}

// SearchContext returns the named preset, or the configured one when name is empty.
// The configured page size and sort seed the preset's defaults.
func (s *SettingsService) SearchContext(name string) (domain.SearchContext, error) {
	settings, err := s.Get()
	if err != nil {
		return domain.SearchContext{}, err
	}
	if name == "" {
		name = settings.Search.Context
	}
	sc, ok := domain.SearchContextByName(name)
	if !ok {
		return domain.SearchContext{}, fmt.Errorf(
			"%w: unknown search context %q (want one of %s)",
			domain.ErrInvalidInput, name, strings.Join(domain.SearchContextNames(), ", "),
		)
	}
	sc.Defaults.PageSize = settings.Search.PageSize
	sc.Defaults.OrderBy = settings.Search.OrderBy
	sc.Defaults.SortOrder = settings.Search.SortOrder
	return sc, nil
}

// Validate checks the server settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if settings.Server.URL == "" {
		return fmt.Errorf("%w: server.url is not set (labinv settings set server.url <url>)", domain.ErrNotConfigured)
	}
	if err := validateServerURL(settings.Server.URL); err != nil {
		return err
	}
	if settings.Server.Token == "" {
		return fmt.Errorf("%w: server.token is not set (labinv settings token)", domain.ErrNotConfigured)
	}
	return nil
}

// parseSetting converts value to the type stored for key.
func parseSetting(key, value string) (any, error) {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", domain.ErrInvalidInput, key, fmt.Sprintf(format, args...))
	}

	switch key {
	case keyServerURL:
		if err := validateServerURL(value); err != nil {
			return nil, err
		}
		return strings.TrimRight(value, "/"), nil
	case keyServerToken:
		if value == "" {
			return nil, invalid("token is empty")
		}
		return value, nil
	case keyHTTPTimeout, keyHTTPBurst:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, invalid("want a positive integer, got %q", value)
		}
		return n, nil
	case keyHTTPMaxRetries:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > domain.MaxHTTPRetries {
			return nil, invalid("want an integer from 0 to %d, got %q", domain.MaxHTTPRetries, value)
		}
		return n, nil
	case keyHTTPRateLimit:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return nil, invalid("want a positive number, got %q", value)
		}
		return f, nil
	case keySearchPageSize:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > domain.MaxPageSize {
			return nil, invalid("want 1 to %d, got %q", domain.MaxPageSize, value)
		}
		return n, nil
	case keySearchContext:
		if _, ok := domain.SearchContextByName(value); !ok {
			return nil, invalid("want one of %s", strings.Join(domain.SearchContextNames(), ", "))
		}
		return value, nil
	case keySearchOrderBy:
		if !domain.IsSortKey(value) {
			return nil, invalid("%q is not a sortable property", value)
		}
		return value, nil
	case keySearchOrder:
		if !domain.SortOrder(value).IsValid() {
			return nil, invalid("want asc or desc, got %q", value)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

func validateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: server.url must be an http(s) URL, got %q", domain.ErrInvalidInput, raw)
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntInRange(key string, lo, hi, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if val := s.configStore.GetInt(key); val >= lo && val <= hi {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getPageSize(defaultVal int) int {
	val := s.configStore.GetInt(keySearchPageSize)
	if val < 1 || val > domain.MaxPageSize {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSearchContext(defaultVal string) string {
	val := s.configStore.GetString(keySearchContext)
	if _, ok := domain.SearchContextByName(val); !ok {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getOrderBy(defaultVal string) string {
	val := s.configStore.GetString(keySearchOrderBy)
	if !domain.IsSortKey(val) {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSortOrder(defaultVal domain.SortOrder) domain.SortOrder {
	val := domain.SortOrder(s.configStore.GetString(keySearchOrder))
	if !val.IsValid() {
		return defaultVal
	}
	return val
}
