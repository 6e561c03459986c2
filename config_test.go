package btelem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.validate())
	assert.Equal(t, uint64(4096), cfg.RingCapacity)
	assert.Equal(t, 8, cfg.MaxClients)
	assert.Equal(t, 64, cfg.MaxSchemaEntries)
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	cases := []Config{
		{RingCapacity: 0, MaxClients: 1, MaxSchemaEntries: 1},
		{RingCapacity: 3, MaxClients: 1, MaxSchemaEntries: 1}, // not a power of two
		{RingCapacity: 16, MaxClients: 0, MaxSchemaEntries: 1},
		{RingCapacity: 16, MaxClients: 1, MaxSchemaEntries: 0},
	}
	for _, c := range cases {
		assert.ErrorIs(t, c.validate(), ErrInvalidArgument)
	}
}

func TestLoadConfig_OverridesDefaultsPartially(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "btelem.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ring_capacity: 1024\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), cfg.RingCapacity)
	assert.Equal(t, 8, cfg.MaxClients, "fields absent from the file keep the default value")
	assert.Equal(t, 64, cfg.MaxSchemaEntries)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
