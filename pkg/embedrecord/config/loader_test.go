package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestFromFile verifies format detection by extension.
func TestFromFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "c.yaml", "registries:\n  colors:\n    capacity: 5\n")
		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Map("registries").Map("colors").Int("capacity", 0))
	})

	t.Run("yml", func(t *testing.T) {
		path := writeFile(t, "c.YML", "a: b\n")
		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "b", cfg.Any("a", nil))
	})

	t.Run("json", func(t *testing.T) {
		path := writeFile(t, "c.json", `{"registries": {"colors": {"capacity": 5}}}`)
		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Map("registries").Map("colors").Int("capacity", 0))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "c.toml", "a = 1")
		_, err := config.FromFile(path)
		assert.ErrorContains(t, err, "unsupported config file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

// TestFromYAML_Invalid verifies parse errors are wrapped.
func TestFromYAML_Invalid(t *testing.T) {
	_, err := config.FromYAML([]byte("registries: [unclosed"))
	assert.ErrorContains(t, err, "parse yaml")

	_, err = config.FromJSON([]byte("{"))
	assert.ErrorContains(t, err, "parse json")
}
