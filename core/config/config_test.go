package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 5000, cfg.Database.BusyTimeoutMS)
	assert.True(t, cfg.Database.WAL)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.True(t, cfg.Sync.EnableImages)
	assert.True(t, cfg.Sync.EnableGalleries)
	assert.True(t, cfg.Sync.EnableScenes)
	assert.Equal(t, "ADD", cfg.Sync.TagMode)
	assert.Equal(t, 5000, cfg.Sync.BatchSize)
	assert.False(t, cfg.Sync.ExcludeOrganized)
	assert.Empty(t, cfg.Sync.ExcludeTag)
	assert.Equal(t, 5, cfg.Sync.CommitRetries)
	assert.Equal(t, "reports/tagsync", cfg.Sync.ReportPrefix)

	assert.Equal(t, "72", cfg.Integrity.SupportedSchemaVersions)
	assert.True(t, cfg.Integrity.CreateIndexes)
	assert.NoError(t, cfg.Sync.Validate())
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("SYNC_TAG_MODE", "SET")
	t.Setenv("SYNC_BATCH_SIZE", "250")
	t.Setenv("SYNC_ENABLE_GALLERIES", "false")
	t.Setenv("SYNC_EXCLUDE_TAG", "Do Not Sync")
	t.Setenv("DATABASE_PATH", "/data/stash-go.sqlite")
	t.Setenv("INTEGRITY_STRICT_SCHEMA", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "SET", cfg.Sync.TagMode)
	assert.Equal(t, 250, cfg.Sync.BatchSize)
	assert.False(t, cfg.Sync.EnableGalleries)
	assert.True(t, cfg.Sync.EnableImages)
	assert.Equal(t, "Do Not Sync", cfg.Sync.ExcludeTag)
	assert.Equal(t, "/data/stash-go.sqlite", cfg.Database.Path)
	assert.True(t, cfg.Integrity.StrictSchema)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	env := "SYNC_EXCLUDE_ORGANIZED=true\nSERVER_PORT=9090\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SYNC_EXCLUDE_ORGANIZED")
		os.Unsetenv("SERVER_PORT")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Sync.ExcludeOrganized)
	assert.Equal(t, "9090", cfg.Server.Port)
}
