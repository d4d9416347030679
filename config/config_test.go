package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/mcpcore/provider"
)

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg := New(WithName("demo"))
	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, "0.0.0", cfg.Version)
	assert.Equal(t, provider.PolicyWarn, cfg.DuplicatePolicy)
	assert.True(t, cfg.TasksEnabled)
	assert.True(t, cfg.IncludeFastMCPMeta)
	assert.False(t, cfg.MaskErrorDetails)
}

func TestNewOptionsOverrideDefaults(t *testing.T) {
	t.Parallel()
	cfg := New(
		WithName("demo"),
		WithVersion("1.2.3"),
		WithInstructions("say hello"),
		WithWebsite("https://example.com"),
		WithIcons(Icon{Src: "icon.png"}),
		WithDuplicatePolicy(provider.PolicyReplace),
		WithMaskErrorDetails(true),
		WithTasksEnabled(false),
		WithIncludeFastMCPMeta(false),
	)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "say hello", cfg.Instructions)
	assert.Equal(t, "https://example.com", cfg.Website)
	require.Len(t, cfg.Icons, 1)
	assert.Equal(t, "icon.png", cfg.Icons[0].Src)
	assert.Equal(t, provider.PolicyReplace, cfg.DuplicatePolicy)
	assert.True(t, cfg.MaskErrorDetails)
	assert.False(t, cfg.TasksEnabled)
	assert.False(t, cfg.IncludeFastMCPMeta)
}

func TestLoadParsesYAML(t *testing.T) {
	t.Parallel()
	data := []byte(`
name: demo
version: "2.0.0"
duplicate_policy: error
mask_error_details: true
tasks_enabled: false
include_fastmcp_meta: false
icons:
  - src: icon.png
    mime_type: image/png
`)
	cfg, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, "2.0.0", cfg.Version)
	assert.Equal(t, provider.PolicyError, cfg.DuplicatePolicy)
	assert.True(t, cfg.MaskErrorDetails)
	assert.False(t, cfg.TasksEnabled)
	assert.False(t, cfg.IncludeFastMCPMeta)
	require.Len(t, cfg.Icons, 1)
	assert.Equal(t, "image/png", cfg.Icons[0].MimeType)
}

func TestLoadRequiresName(t *testing.T) {
	t.Parallel()
	_, err := Load([]byte(`version: "1.0.0"`))
	assert.Error(t, err)
}

func TestLoadFileReadsFromDisk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: demo\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Name)
}

func TestLoadFileMissingFileReturnsError(t *testing.T) {
	t.Parallel()
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
