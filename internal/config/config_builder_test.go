package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_EmptyBuilder verifies that building with no configs returns a
// zero-value StructuredConfig.
func TestBuild_EmptyBuilder(t *testing.T) {
	cfg, err := newConfigBuilder().build()
	require.NoError(t, err)
	assert.Equal(t, &StructuredConfig{}, cfg)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_MergesMultipleConfigs verifies that fields from multiple configs
// are merged into a single result.
func TestBuild_MergesMultipleConfigs(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{App: App{TokenSignKey: "secret"}},
		&StructuredConfig{Storage: Storage{DB: DB{DSN: "postgres://localhost/tabvault"}}},
		&StructuredConfig{Sync: Sync{Interval: 5 * time.Minute}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.App.TokenSignKey)
	assert.Equal(t, "postgres://localhost/tabvault", cfg.Storage.DB.DSN)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
}

// TestBuild_EarlierSourcesWin verifies precedence: sources appended first
// keep their values, later ones only fill gaps.
func TestBuild_EarlierSourcesWin(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{Server: Server{HTTPAddress: "localhost:8080"}},
		&StructuredConfig{
			Server: Server{HTTPAddress: "localhost:9999", RequestTimeout: 30 * time.Second},
		},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.Server.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

// TestWithJSON_NoPathConfigured verifies that withJSON is a no-op when no
// earlier source named a JSON file.
func TestWithJSON_NoPathConfigured(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{})

	b.withJSON()
	assert.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

// TestWithJSON_UnreadableFileAccumulatesError verifies that a bad JSON path
// surfaces through the builder error rather than panicking.
func TestWithJSON_UnreadableFileAccumulatesError(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "/no/such/config.json"})

	b.withJSON()
	require.Error(t, b.err)

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
}

// ── validation ────────────────────────────────────────────────────────────────

func serverConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenSignKey:  "secret",
			TokenIssuer:   "tabvault",
			TokenDuration: 24 * time.Hour,
		},
		Storage: Storage{DB: DB{DSN: "postgres://localhost/tabvault"}},
		Server:  Server{HTTPAddress: "localhost:8080"},
	}
}

func TestValidateServer(t *testing.T) {
	t.Run("complete config passes", func(t *testing.T) {
		assert.NoError(t, serverConfig().ValidateServer())
	})

	t.Run("missing DSN", func(t *testing.T) {
		cfg := serverConfig()
		cfg.Storage.DB.DSN = ""
		assert.ErrorIs(t, cfg.ValidateServer(), ErrInvalidStorageConfigs)
	})

	t.Run("missing HTTP address", func(t *testing.T) {
		cfg := serverConfig()
		cfg.Server.HTTPAddress = ""
		assert.ErrorIs(t, cfg.ValidateServer(), ErrInvalidAdapterConfigs)
	})

	t.Run("missing token settings", func(t *testing.T) {
		cfg := serverConfig()
		cfg.App.TokenDuration = 0
		assert.ErrorIs(t, cfg.ValidateServer(), ErrInvalidAppConfigs)
	})
}

func clientConfig() *ClientConfig {
	return &ClientConfig{
		Adapter: ClientAdapter{
			ServerURL:      "https://sync.example.com",
			RequestTimeout: 15 * time.Second,
		},
		Storage: ClientStorage{Local: ClientLocal{Path: "/var/lib/tabvault/local.db"}},
		Sync:    ClientSync{Interval: 5 * time.Minute},
	}
}

func TestClientConfigValidate(t *testing.T) {
	t.Run("complete config passes", func(t *testing.T) {
		assert.NoError(t, clientConfig().validate())
	})

	t.Run("in-memory local path rejected", func(t *testing.T) {
		cfg := clientConfig()
		cfg.Storage.Local.Path = ":memory:"
		assert.ErrorIs(t, cfg.validate(), ErrInvalidStorageConfigs)
	})

	t.Run("missing server URL", func(t *testing.T) {
		cfg := clientConfig()
		cfg.Adapter.ServerURL = ""
		assert.ErrorIs(t, cfg.validate(), ErrInvalidAdapterConfigs)
	})

	t.Run("zero sync interval", func(t *testing.T) {
		cfg := clientConfig()
		cfg.Sync.Interval = 0
		assert.ErrorIs(t, cfg.validate(), ErrInvalidSyncConfigs)
	})
}
