package syncer

import (
	"context"
	"fmt"

	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/utils"
	"github.com/tabvault/tabvault/models"
)

// DeviceIdentityStore persists the once-generated opaque device id.
type DeviceIdentityStore interface {
	GetDeviceID(ctx context.Context) (string, error)
	SetDeviceID(ctx context.Context, deviceID string) error
}

// DeviceFilter decides whether an incoming change event originated from
// this device. Reacting to one's own writes echoed back through the change
// feed would create a device loop; the filter breaks it.
type DeviceFilter struct {
	deviceID string
}

// NewDeviceFilter loads the persisted device id, generating and persisting
// a fresh one on first run.
func NewDeviceFilter(ctx context.Context, store DeviceIdentityStore, log *logger.Logger) (*DeviceFilter, error) {
	id, err := store.GetDeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device id: %w", err)
	}

	if id == "" {
		id = utils.NewUUIDGenerator().Generate()
		if err = store.SetDeviceID(ctx, id); err != nil {
			return nil, fmt.Errorf("persist device id: %w", err)
		}
		log.Info().Str("device_id", id).Msg("generated new device id")
	}

	return &DeviceFilter{deviceID: id}, nil
}

// DeviceID returns the local device id, attached to every outgoing write
// as origin_device_id.
func (f *DeviceFilter) DeviceID() string {
	return f.deviceID
}

// IsLocalEvent reports whether ev was caused by this device's own write.
func (f *DeviceFilter) IsLocalEvent(ev *models.ChangeEvent) bool {
	origin := ev.OriginDeviceID()
	return origin != "" && origin == f.deviceID
}
