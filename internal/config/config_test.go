package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "sql", cfg.Store.Backend)
	assert.Equal(t, "exclude", cfg.Catalog.UnratedPolicy)
	assert.Equal(t, 500*time.Millisecond, cfg.Metadata.DebounceWindow)
	assert.Equal(t, 400, cfg.Metadata.DescriptionLimit)
	assert.Equal(t, "https://www.omdbapi.com", cfg.Metadata.OMDBBaseURL)
	assert.Equal(t, "https://api.rawg.io/api", cfg.Metadata.RAWGBaseURL)
	assert.Equal(t, 10*time.Second, cfg.Metadata.RequestTimeout)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
metadata:
  debounce_window: 300ms
  omdb_api_key: from-file
logging:
  level: debug
`), 0o644))

	t.Setenv("OMDB_API_KEY", "from-env")
	t.Setenv("RAWG_API_KEY", "rawg-key")

	cm, err := Load(path)
	require.NoError(t, err)
	cfg := cm.GetConfig()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 300*time.Millisecond, cfg.Metadata.DebounceWindow)
	assert.Equal(t, "from-env", cfg.Metadata.OMDBAPIKey)
	assert.Equal(t, "rawg-key", cfg.Metadata.RAWGAPIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched fields keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, filepath.Join("./data", "catalog.db"), cfg.Database.Path)
}

func TestLoadConfigRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"CATALOG_PORT": "70000"}},
		{"bad db type", map[string]string{"CATALOG_DB_TYPE": "mysql"}},
		{"bad unrated policy", map[string]string{"CATALOG_UNRATED_POLICY": "average"}},
		{"bad log format", map[string]string{"CATALOG_LOG_FORMAT": "xml"}},
		{"firestore without project", map[string]string{"CATALOG_STORE_BACKEND": "firestore"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigBadEnvValue(t *testing.T) {
	t.Setenv("CATALOG_READ_TIMEOUT", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestAllowedOriginsFromEnv(t *testing.T) {
	t.Setenv("CATALOG_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	cm, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cm.GetConfig().Server.AllowedOrigins)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644))

	cm, err := Load(path)
	require.NoError(t, err)

	reloaded := make(chan string, 1)
	cm.AddWatcher(func(_, newConfig *Config) {
		select {
		case reloaded <- newConfig.Logging.Level:
		default:
		}
	})

	w, err := NewWatcher(cm, path, hclog.NewNullLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

	select {
	case level := <-reloaded:
		assert.Equal(t, "debug", level)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
	assert.Equal(t, "debug", cm.GetConfig().Logging.Level)
}
