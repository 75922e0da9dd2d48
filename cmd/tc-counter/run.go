package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/shiwa/timecard-mini/tc-counter/internal/logger"
	"github.com/shiwa/timecard-mini/tc-counter/pkg/counterd"
)

// NewRunCommand — запуск счётчика до SIGINT/SIGTERM.
func NewRunCommand() *cobra.Command {
	var (
		port       string
		mode       string
		replay     string
		noHardware bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the counter in the foreground",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Output.Port = port
			}
			if mode != "" {
				cfg.Counter.OutputMode = mode
			}
			if replay != "" {
				cfg.Source.Kind = "replay"
				cfg.Source.Path = replay
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var stats counterd.Stats
			atexit.Register(func() {
				if logger.Quiet {
					return
				}
				logger.With("samples", stats.Samples).
					WithField("rows", stats.Rows).
					WithField("skipped", stats.Skipped).
					WithField("transitions", stats.Transitions).
					Infof("tc-counter остановлен, опорная %s %d Гц", stats.Reference.Kind, stats.Reference.FrequencyHz)
			})

			stats, err = counterd.RunDaemon(ctx, cfg, counterd.Options{Quiet: quiet, NoHardware: noHardware})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("%v", err)
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&port, "port", "p", "", "output serial port (overrides output.port)")
	f.StringVarP(&mode, "mode", "m", "", "output mode: count, frequency, timemark")
	f.StringVar(&replay, "replay", "", "replay recorded FIFO words from file")
	f.BoolVar(&noHardware, "no-hardware", false, "do not touch GPIO (no presence probe, no LEDs)")
	return cmd
}
