package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"ChA", "ChB"}, c.ChannelNames())
	assert.Equal(t, uint32(240*MHz), c.Clock.InternalReferenceHz)
	assert.Equal(t, uint32(200*MHz), c.Clock.ExternalReferenceHz)
	assert.Equal(t, 100*time.Millisecond, c.SupervisorInterval())
	assert.Equal(t, 10, c.Supervisor.Threshold)
}

func TestCountingHz(t *testing.T) {
	c := &Config{Clock: ClockConfig{XoscHz: 12 * MHz, PLLHz: 240 * MHz, ExternalMHz: 10}}
	assert.Equal(t, uint32(240*MHz), c.CountingHz(false))
	assert.Equal(t, uint32(200*MHz), c.CountingHz(true))

	c.Clock.ExternalReferenceHz = 199_999_000
	assert.Equal(t, uint32(199_999_000), c.CountingHz(true), "явное значение имеет приоритет")

	c = &Config{}
	assert.Zero(t, c.CountingHz(false))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tc-counter.yml")
	yml := `
counter:
  channels:
    - name: REF
    - name: DUT
    - {}
  averaging_periods: 5
  output_mode: FREQUENCY
clock:
  external_mhz: 5
supervisor:
  threshold: 4
  interval: 50ms
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"REF", "DUT", "ChC"}, c.ChannelNames())
	assert.Equal(t, uint32(5), c.Counter.AveragingPeriods)
	assert.Equal(t, "frequency", c.Counter.OutputMode)
	assert.Equal(t, uint32(240*MHz), c.Clock.InternalReferenceHz)
	assert.Equal(t, uint32(100*MHz), c.Clock.ExternalReferenceHz)
	assert.Equal(t, 50*time.Millisecond, c.SupervisorInterval())
	assert.Equal(t, 100, c.Supervisor.Presence.Samples)
	assert.Equal(t, "nmea", c.GNSS.Protocol)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("counter: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no channels", func(c *Config) { c.Counter.Channels = nil }},
		{"too many channels", func(c *Config) {
			c.Counter.Channels = []ChannelConfig{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}}
		}},
		{"duplicate name", func(c *Config) { c.Counter.Channels = []ChannelConfig{{Name: "a"}, {Name: "a"}} }},
		{"empty name", func(c *Config) { c.Counter.Channels = []ChannelConfig{{Name: ""}} }},
		{"bad mode", func(c *Config) { c.Counter.OutputMode = "debug" }},
		{"zero periods", func(c *Config) { c.Counter.AveragingPeriods = 0 }},
		{"zero threshold", func(c *Config) { c.Supervisor.Threshold = 0 }},
		{"bad interval", func(c *Config) { c.Supervisor.Interval = "often" }},
		{"bad gnss protocol", func(c *Config) { c.GNSS.Protocol = "rtcm" }},
		{"bad source", func(c *Config) { c.Source.Kind = "usb" }},
		{"no reference", func(c *Config) {
			c.Clock = ClockConfig{}
		}},
		{"counting frequency overflow", func(c *Config) {
			c.Clock.ExternalMHz = 250
			c.Clock.ExternalReferenceHz = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_CountingHzOverflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tc-counter.yml")
	// 240 МГц / 12 * 250 = 5 ГГц
	require.NoError(t, os.WriteFile(path, []byte("clock:\n  external_mhz: 250\n"), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, c.CountingHz(true))
	assert.Zero(t, c.Clock.ExternalReferenceHz)
	assert.ErrorContains(t, c.Validate(), "does not fit in 32 bits")
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(EnvOutputPort+"=/dev/ttyACM0\n"), 0o644))
	t.Setenv(EnvOutputMode, "COUNT")
	t.Cleanup(func() { os.Unsetenv(EnvOutputPort) })

	c := Default()
	require.NoError(t, c.ApplyEnv(envFile, filepath.Join(dir, "absent.env")))
	assert.Equal(t, "/dev/ttyACM0", c.Output.Port)
	assert.Equal(t, "count", c.Counter.OutputMode)
}
