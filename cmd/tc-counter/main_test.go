package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	configPath, envFile = "", filepath.Join(dir, "none.env")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "timemark", cfg.Counter.OutputMode)

	configPath = filepath.Join(dir, "missing.yml")
	_, err = loadConfig()
	assert.Error(t, err)

	configPath = filepath.Join(dir, "tc-counter.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("counter:\n  output_mode: count\n"), 0o644))
	envFile = filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("TC_COUNTER_OUTPUT_PORT=/dev/ttyACM9\n"), 0o644))
	t.Setenv("TC_COUNTER_OUTPUT_PORT", "")
	require.NoError(t, os.Unsetenv("TC_COUNTER_OUTPUT_PORT"))
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "count", cfg.Counter.OutputMode)
	assert.Equal(t, "/dev/ttyACM9", cfg.Output.Port)
}
