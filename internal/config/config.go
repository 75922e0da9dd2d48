package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MHz — множитель для частот в конфиге.
const MHz = 1_000_000

// Config — конфигурация tc-counter. Задаётся один раз при старте, во время работы не меняется.
type Config struct {
	Counter    CounterConfig    `yaml:"counter"`
	Clock      ClockConfig      `yaml:"clock"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Output     OutputConfig     `yaml:"output"`
	GNSS       GNSSConfig       `yaml:"gnss"`
	Indicator  IndicatorConfig  `yaml:"indicator"`
	Source     SourceConfig     `yaml:"source"`
}

// CounterConfig — входы и режим вывода.
type CounterConfig struct {
	Channels         []ChannelConfig `yaml:"channels"`
	AveragingPeriods uint32          `yaml:"averaging_periods"` // >= 1, для устойчивых результатов нечётное
	OutputMode       string          `yaml:"output_mode"`       // count, frequency, timemark
}

// ChannelConfig — один физический вход.
type ChannelConfig struct {
	Name    string `yaml:"name"`
	LEDGPIO string `yaml:"led_gpio"`
}

// ClockConfig — опорные частоты. Если *_reference_hz не заданы, они выводятся
// из PLL: счётная частота = pll_hz / xosc_mhz * ref_mhz.
type ClockConfig struct {
	XoscHz              uint32 `yaml:"xosc_hz"`
	PLLHz               uint32 `yaml:"pll_hz"`
	ExternalMHz         uint32 `yaml:"external_mhz"`
	InternalReferenceHz uint32 `yaml:"internal_reference_hz"`
	ExternalReferenceHz uint32 `yaml:"external_reference_hz"`
	// Divider — частота делённого выхода опорной; 0 = читать с переключателей.
	Divider uint32 `yaml:"divider"`
	// DividerSwitches — GPIO трёх переключателей делителя (младший бит первым).
	DividerSwitches []string `yaml:"divider_switches"`
}

// SupervisorConfig — супервизор источника опорной частоты.
type SupervisorConfig struct {
	Threshold             int            `yaml:"threshold"`
	Interval              string         `yaml:"interval"`
	DeviationToleranceKHz int32          `yaml:"deviation_tolerance_khz"`
	Presence              PresenceConfig `yaml:"presence"`
	// MeterPath — файл с измеренной частотой внутреннего генератора в кГц (частотомер).
	MeterPath string `yaml:"meter_path"`
	// SwitchCommand — внешняя команда переключения тактового дерева; {kind} и {mhz} подставляются.
	SwitchCommand []string `yaml:"switch_command"`
}

// PresenceConfig — выборка линии наличия внешней опорной.
type PresenceConfig struct {
	GPIO    string `yaml:"gpio"`
	Samples int    `yaml:"samples"`
	MinHigh int    `yaml:"min_high"`
}

// OutputConfig — куда писать строки измерений. Пустой port — stdout.
type OutputConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// GNSSConfig — приёмник, от которого берётся только признак fix.
type GNSSConfig struct {
	Device   string `yaml:"device"`
	Baud     int    `yaml:"baud"`
	Protocol string `yaml:"protocol"` // nmea, ubx
	// TimepulseHz — частота выхода time pulse для configure-reference; 0 = external_mhz.
	TimepulseHz uint32 `yaml:"timepulse_hz"`
}

// IndicatorConfig — светодиоды состояния.
type IndicatorConfig struct {
	ExtClockGPIO string `yaml:"ext_clock_gpio"`
	GNSSGPIO     string `yaml:"gnss_gpio"`
	Blink        string `yaml:"blink"`
}

// SourceConfig — откуда брать сырые отсчёты сопроцессора на хосте.
type SourceConfig struct {
	Kind string `yaml:"kind"` // replay, pps
	Path string `yaml:"path"` // replay: файл слов FIFO
	// PPSIndex — индексы /dev/pps{N} по каналам (kind: pps).
	PPSIndex []int `yaml:"pps_index"`
}

// Default возвращает конфиг по умолчанию: два входа, усреднение 1, режим меток времени,
// 12 МГц кварц, PLL 240 МГц, внешняя опорная 10 МГц.
func Default() *Config {
	c := &Config{
		Counter: CounterConfig{
			Channels: []ChannelConfig{
				{Name: "ChA", LEDGPIO: "GPIO4"},
				{Name: "ChB", LEDGPIO: "GPIO7"},
			},
			AveragingPeriods: 1,
			OutputMode:       "timemark",
		},
		Clock: ClockConfig{
			XoscHz:          12 * MHz,
			PLLHz:           240 * MHz,
			ExternalMHz:     10,
			DividerSwitches: []string{"GPIO17", "GPIO18", "GPIO19"},
		},
		Supervisor: SupervisorConfig{
			Threshold:             10,
			Interval:              "100ms",
			DeviationToleranceKHz: 10,
			Presence: PresenceConfig{
				GPIO:    "GPIO11",
				Samples: 100,
				MinHigh: 10,
			},
		},
		Output: OutputConfig{Baud: 115200},
		GNSS: GNSSConfig{
			Baud:     9600,
			Protocol: "nmea",
		},
		Indicator: IndicatorConfig{
			ExtClockGPIO: "GPIO14",
			GNSSGPIO:     "GPIO15",
			Blink:        "100ms",
		},
		Source: SourceConfig{Kind: "replay"},
	}
	c.Clock.InternalReferenceHz = c.CountingHz(false)
	c.Clock.ExternalReferenceHz = c.CountingHz(true)
	return c
}

// Load читает конфиг из YAML и подставляет значения по умолчанию.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	return &c, nil
}

// Env-переменные, переопределяющие конфиг.
const (
	EnvOutputPort = "TC_COUNTER_OUTPUT_PORT"
	EnvOutputMode = "TC_COUNTER_OUTPUT_MODE"
	EnvGNSSDevice = "TC_COUNTER_GNSS_DEVICE"
	EnvSourcePath = "TC_COUNTER_SOURCE_PATH"
)

// ApplyEnv подгружает .env (если есть) и применяет переменные окружения поверх конфига.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "load env %s", f)
		}
	}
	if v := os.Getenv(EnvOutputPort); v != "" {
		c.Output.Port = v
	}
	if v := os.Getenv(EnvOutputMode); v != "" {
		c.Counter.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv(EnvGNSSDevice); v != "" {
		c.GNSS.Device = v
	}
	if v := os.Getenv(EnvSourcePath); v != "" {
		c.Source.Path = v
	}
	return nil
}

// CountingHz — частота счёта сопроцессора для внутреннего или внешнего домена.
// PLL питается от опорной, поэтому при смене опорной частота PLL масштабируется:
// pll_hz / xosc_mhz * ref_mhz. Частота, не помещающаяся в uint32, даёт 0.
func (c *Config) CountingHz(external bool) uint32 {
	hz := c.countingHz(external)
	if hz > math.MaxUint32 {
		return 0
	}
	return uint32(hz)
}

func (c *Config) countingHz(external bool) uint64 {
	if !external && c.Clock.InternalReferenceHz != 0 {
		return uint64(c.Clock.InternalReferenceHz)
	}
	if external && c.Clock.ExternalReferenceHz != 0 {
		return uint64(c.Clock.ExternalReferenceHz)
	}
	xoscMHz := uint64(c.Clock.XoscHz) / MHz
	if xoscMHz == 0 {
		return 0
	}
	refMHz := xoscMHz
	if external {
		refMHz = uint64(c.Clock.ExternalMHz)
	}
	return uint64(c.Clock.PLLHz) / xoscMHz * refMHz
}

// ChannelNames возвращает имена входов по порядку.
func (c *Config) ChannelNames() []string {
	names := make([]string, len(c.Counter.Channels))
	for i, ch := range c.Counter.Channels {
		names[i] = ch.Name
	}
	return names
}

// SupervisorInterval — период опроса супервизора (по умолчанию 100 мс).
func (c *Config) SupervisorInterval() time.Duration {
	return parseDuration(c.Supervisor.Interval, 100*time.Millisecond)
}

// BlinkInterval — период мигания индикаторов (по умолчанию 100 мс).
func (c *Config) BlinkInterval() time.Duration {
	return parseDuration(c.Indicator.Blink, 100*time.Millisecond)
}

// Validate проверяет согласованность конфига.
func (c *Config) Validate() error {
	if len(c.Counter.Channels) == 0 {
		return errors.New("counter.channels: at least one channel required")
	}
	if len(c.Counter.Channels) > 4 {
		return errors.Errorf("counter.channels: %d channels, at most 4 supported", len(c.Counter.Channels))
	}
	seen := make(map[string]bool)
	for i, ch := range c.Counter.Channels {
		if ch.Name == "" {
			return errors.Errorf("counter.channels[%d]: name required", i)
		}
		if seen[ch.Name] {
			return errors.Errorf("counter.channels[%d]: duplicate name %q", i, ch.Name)
		}
		seen[ch.Name] = true
	}
	switch c.Counter.OutputMode {
	case "count", "frequency", "freq", "timemark", "time":
	default:
		return errors.Errorf("counter.output_mode: unknown mode %q", c.Counter.OutputMode)
	}
	if c.Counter.AveragingPeriods == 0 {
		return errors.New("counter.averaging_periods: must be at least 1")
	}
	for _, external := range []bool{false, true} {
		hz := c.countingHz(external)
		if hz == 0 {
			return errors.New("clock: reference frequencies must be non-zero")
		}
		if hz > math.MaxUint32 {
			return errors.Errorf("clock: counting frequency %d Hz does not fit in 32 bits", hz)
		}
	}
	if c.Supervisor.Threshold <= 0 {
		return errors.Errorf("supervisor.threshold: must be positive, got %d", c.Supervisor.Threshold)
	}
	if _, err := time.ParseDuration(c.Supervisor.Interval); c.Supervisor.Interval != "" && err != nil {
		return errors.Wrap(err, "supervisor.interval")
	}
	switch c.GNSS.Protocol {
	case "", "nmea", "ubx":
	default:
		return errors.Errorf("gnss.protocol: unknown protocol %q", c.GNSS.Protocol)
	}
	switch c.Source.Kind {
	case "replay", "pps":
	default:
		return errors.Errorf("source.kind: unknown kind %q", c.Source.Kind)
	}
	return nil
}

func applyDefaults(c *Config) {
	d := Default()
	if len(c.Counter.Channels) == 0 {
		c.Counter.Channels = d.Counter.Channels
	}
	for i := range c.Counter.Channels {
		if c.Counter.Channels[i].Name == "" {
			c.Counter.Channels[i].Name = "Ch" + string(rune('A'+i))
		}
	}
	if c.Counter.AveragingPeriods == 0 {
		c.Counter.AveragingPeriods = d.Counter.AveragingPeriods
	}
	if c.Counter.OutputMode == "" {
		c.Counter.OutputMode = d.Counter.OutputMode
	}
	c.Counter.OutputMode = strings.ToLower(c.Counter.OutputMode)
	if c.Clock.XoscHz == 0 {
		c.Clock.XoscHz = d.Clock.XoscHz
	}
	if c.Clock.PLLHz == 0 {
		c.Clock.PLLHz = d.Clock.PLLHz
	}
	if c.Clock.ExternalMHz == 0 {
		c.Clock.ExternalMHz = d.Clock.ExternalMHz
	}
	if c.Clock.DividerSwitches == nil {
		c.Clock.DividerSwitches = d.Clock.DividerSwitches
	}
	// Частоты счёта выводятся после того, как известны xosc/pll/external.
	c.Clock.InternalReferenceHz = c.CountingHz(false)
	c.Clock.ExternalReferenceHz = c.CountingHz(true)
	if c.Supervisor.Threshold == 0 {
		c.Supervisor.Threshold = d.Supervisor.Threshold
	}
	if c.Supervisor.Interval == "" {
		c.Supervisor.Interval = d.Supervisor.Interval
	}
	if c.Supervisor.DeviationToleranceKHz == 0 {
		c.Supervisor.DeviationToleranceKHz = d.Supervisor.DeviationToleranceKHz
	}
	if c.Supervisor.Presence.Samples == 0 {
		c.Supervisor.Presence.Samples = d.Supervisor.Presence.Samples
	}
	if c.Supervisor.Presence.MinHigh == 0 {
		c.Supervisor.Presence.MinHigh = d.Supervisor.Presence.MinHigh
	}
	if c.Output.Baud == 0 {
		c.Output.Baud = d.Output.Baud
	}
	if c.GNSS.Baud == 0 {
		c.GNSS.Baud = d.GNSS.Baud
	}
	if c.GNSS.Protocol == "" {
		c.GNSS.Protocol = d.GNSS.Protocol
	}
	if c.Indicator.Blink == "" {
		c.Indicator.Blink = d.Indicator.Blink
	}
	if c.Source.Kind == "" {
		c.Source.Kind = d.Source.Kind
	}
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
