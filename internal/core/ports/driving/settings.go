package driving

import "github.com/rmraya/swordfish-core/internal/core/domain"

// SettingsService reads and updates persisted configuration.
type SettingsService interface {
	// Store returns the effective segment store settings.
	Store() domain.StoreSettings

	// Tasks returns the effective task pool settings.
	Tasks() domain.TaskSettings

	// Set validates and persists one configuration value given as text.
	Set(key, value string) error

	// Keys lists the configuration keys Set accepts.
	Keys() []string
}
