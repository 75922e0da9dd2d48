// tc-counter — хостовая часть прецизионного счётчика интервалов и частоты:
// калибровка отсчётов входов, частота или метки времени на общей шкале,
// супервизор опорной частоты (внутренний кварц / внешние 10 МГц) и индикаторы.
//
// Использование:
//
//	tc-counter run -c tc-counter.yml        — запуск счётчика
//	tc-counter configure-reference          — настроить TIMEPULSE приёмника на опорную частоту
//	tc-counter ports                        — список последовательных портов
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/shiwa/timecard-mini/tc-counter/internal/config"
	"github.com/shiwa/timecard-mini/tc-counter/internal/logger"
)

var (
	configPath = ""
	envFile    = ".env"
	logLevel   = "info"
	quiet      = false
)

func main() {
	if err := NewCommand().Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// NewCommand — корневая команда.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tc-counter",
		Short: "Precision time-interval and frequency counter",
		Long: `tc-counter calibrates raw input period counts, reports counts, frequency
or time marks on a shared timeline, and supervises the reference clock source.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger.Quiet = quiet
			return logger.SetLevel(logLevel)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", configPath, "YAML config path (default tc-counter.yml if present)")
	f.StringVar(&envFile, "env-file", envFile, "dotenv file with TC_COUNTER_* overrides")
	f.StringVarP(&logLevel, "log-level", "l", logLevel, "log level (trace, debug, info, warn, error)")
	f.BoolVarP(&quiet, "quiet", "q", quiet, "only warnings and errors")

	cmd.AddCommand(
		NewRunCommand(),
		NewConfigureReferenceCommand(),
		NewPortsCommand(),
	)
	return cmd
}

// loadConfig читает конфиг (или берёт значения по умолчанию) и применяет окружение.
func loadConfig() (*config.Config, error) {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = "tc-counter.yml"
	}
	var cfg *config.Config
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		cfg = config.Default()
	} else {
		c, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, err
	}
	return cfg, nil
}
