// Package config persists the user-desired EC settings (charge limit,
// keyboard backlight) so they can be re-applied at boot and after resume.
package config

import "github.com/framework-community/fwecd/internal/models"

// Store is the interface for persisting settings.
type Store interface {
	// Load loads the current settings. Returns empty Settings if no file exists.
	Load() (*models.Settings, error)

	// Save persists the settings. Implementations may debounce rapid saves.
	Save(settings *models.Settings) error

	// Path returns the file path used by this store.
	Path() string

	// Flush forces an immediate write of any pending settings.
	Flush() error
}
