package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GATEKEEPER_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, AuditBackendSQLite, cfg.AuditBackend)
	assert.Equal(t, filepath.Join(dir, "audit.db"), cfg.AuditPath)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "0 0 3 * * *", cfg.Archive.Schedule)
}

func TestLoad_FileBackendAndArchive(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GATEKEEPER_DATA_DIR", dir)
	t.Setenv("GATEKEEPER_PORT", "9191")
	t.Setenv("AUDIT_BACKEND", "FILE")
	t.Setenv("ARCHIVE_BUCKET", "audit-archive")
	t.Setenv("ARCHIVE_RETENTION", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, AuditBackendFile, cfg.AuditBackend)
	assert.Equal(t, filepath.Join(dir, "overrides.jsonl"), cfg.AuditPath)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "audit-archive", cfg.Archive.Bucket)
	assert.Equal(t, 7, cfg.Archive.RetentionCount)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("GATEKEEPER_DATA_DIR", t.TempDir())
	t.Setenv("AUDIT_BACKEND", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown audit backend")
}

func TestValidate(t *testing.T) {
	valid := Config{Port: 8080, AuditBackend: AuditBackendFile, AuditPath: "/tmp/a.jsonl"}
	require.NoError(t, valid.Validate())

	badPort := valid
	badPort.Port = 0
	assert.Error(t, badPort.Validate())

	noBucket := valid
	noBucket.Archive = ArchiveConfig{Enabled: true, Schedule: "@daily"}
	assert.Error(t, noBucket.Validate())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("GK_INT", "not-a-number")
	t.Setenv("GK_BOOL", "true")

	assert.Equal(t, 5, getEnvAsInt("GK_INT", 5))
	assert.True(t, getEnvAsBool("GK_BOOL", false))
	assert.Equal(t, "fallback", getEnv("GK_MISSING", "fallback"))
}
