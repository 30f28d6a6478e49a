package store

import (
	"context"

	"github.com/tabvault/tabvault/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/store_mock.go -package=mock

// LocalStore is the client-side persistence for the full group list,
// settings and device identity. Writes are last-write-wins at key level;
// the sync engine assumes no stronger transactional guarantees.
type LocalStore interface {
	// GetGroups returns every locally stored group, tombstones included.
	GetGroups(ctx context.Context) ([]models.TabGroup, error)

	// SetGroups replaces the stored group list wholesale.
	SetGroups(ctx context.Context, groups []models.TabGroup) error

	// GetSettings returns the stored settings, zero value if never set.
	GetSettings(ctx context.Context) (models.Settings, error)

	// SetSettings stores the settings.
	SetSettings(ctx context.Context, settings models.Settings) error

	// GetDeviceID returns the persisted device id, empty on first run.
	GetDeviceID(ctx context.Context) (string, error)

	// SetDeviceID persists the once-generated device id.
	SetDeviceID(ctx context.Context, deviceID string) error

	// Close releases the underlying database handle.
	Close() error
}
