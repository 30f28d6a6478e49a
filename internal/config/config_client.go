package config

import (
	"fmt"
	"time"
)

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// ServerURL is the base URL of the sync server.
	ServerURL string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientLocal contains local database settings for the client.
type ClientLocal struct {
	// Path is the SQLite database file path.
	Path string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// Local holds local database settings.
	Local ClientLocal
}

// ClientSync contains sync engine tuning for the client.
type ClientSync struct {
	// Interval defines how often the periodic full sync job runs.
	Interval time.Duration
	// ConflictWindow bounds how far apart divergent edits may be and still
	// be field-merged.
	ConflictWindow time.Duration
	// DebounceDelay is the base delay before a realtime-triggered pull runs.
	DebounceDelay time.Duration
	// PollInterval enables the polling fallback when non-zero.
	PollInterval time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Sync contains sync engine settings.
	Sync ClientSync
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, and validates the resulting [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		Adapter: ClientAdapter{
			ServerURL:      cfg.Adapter.ServerURL,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			Local: ClientLocal{
				Path: cfg.Storage.Local.Path,
			},
		},
		Sync: ClientSync{
			Interval:       cfg.Sync.Interval,
			ConflictWindow: cfg.Sync.ConflictWindow,
			DebounceDelay:  cfg.Sync.DebounceDelay,
			PollInterval:   cfg.Sync.PollInterval,
		},
	}

	return clientCfg, clientCfg.validate()
}
