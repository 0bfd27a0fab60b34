package driven

import "context"

// SettingsStore is a small key-value store for user-tunable settings.
type SettingsStore interface {
	// Get returns the value for key, or "" when the key is not set.
	Get(ctx context.Context, key string) (string, error)

	// Set stores or replaces the value for key.
	Set(ctx context.Context, key, value string) error
}
