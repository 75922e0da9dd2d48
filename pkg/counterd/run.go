// Package counterd собирает счётчик из конфига и запускает его до отмены контекста:
// супервизор опорной, измерительный цикл, монитор GNSS и индикаторы.
package counterd

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"

	"github.com/shiwa/timecard-mini/tc-counter/internal/clockselect"
	"github.com/shiwa/timecard-mini/tc-counter/internal/config"
	"github.com/shiwa/timecard-mini/tc-counter/internal/gnss"
	"github.com/shiwa/timecard-mini/tc-counter/internal/hw"
	"github.com/shiwa/timecard-mini/tc-counter/internal/indicator"
	"github.com/shiwa/timecard-mini/tc-counter/internal/logger"
	"github.com/shiwa/timecard-mini/tc-counter/internal/output"
	"github.com/shiwa/timecard-mini/tc-counter/internal/pipeline"
	"github.com/shiwa/timecard-mini/tc-counter/internal/refclock"
	"github.com/shiwa/timecard-mini/tc-counter/internal/source"
)

// Options — то, что задаётся не конфигом, а вызывающим.
type Options struct {
	Quiet bool
	// Sink — приёмник строк; nil — output.Open по секции output.
	Sink io.Writer
	// NoHardware — не трогать GPIO (тесты, replay на рабочей станции).
	NoHardware bool
}

// Stats — итог работы для лога при остановке.
type Stats struct {
	Samples     uint64
	Skipped     uint64
	Rows        uint64
	Transitions int
	Reference   refclock.Snapshot
}

// absent — линия наличия, когда GPIO недоступен: внешней опорной нет.
type absent struct{}

func (absent) Present() bool { return false }

// RunDaemon запускает счётчик и блокируется до отмены ctx или первой фатальной ошибки
// (ошибка вывода, ошибка источника отсчётов).
func RunDaemon(ctx context.Context, cfg *config.Config, opts Options) (Stats, error) {
	var stats Stats
	if cfg == nil {
		return stats, errors.New("counterd: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return stats, err
	}
	logger.Quiet = opts.Quiet

	gpioOK := false
	if !opts.NoHardware {
		if err := hw.Init(); err != nil {
			logger.Warn("GPIO недоступен, работа без детектора опорной и индикаторов: %v", err)
		} else {
			gpioOK = true
		}
	}

	logDivider(cfg, gpioOK)

	clock := refclock.New(0)
	sup := newSupervisor(cfg, clock, gpioOK)

	set, err := source.NewFromConfig(cfg, func() uint32 { return clock.Load().FrequencyHz })
	if err != nil {
		return stats, errors.Wrap(err, "channel sources")
	}
	defer set.Close()

	mode, err := output.ParseMode(cfg.Counter.OutputMode)
	if err != nil {
		return stats, err
	}
	sink := opts.Sink
	if sink == nil {
		w, err := output.Open(cfg.Output.Port, cfg.Output.Baud)
		if err != nil {
			return stats, err
		}
		defer w.Close()
		sink = w
	}
	emit := output.NewEmitter(sink, mode)

	loop, err := pipeline.New(set.Sources, cfg.ChannelNames(), clock, emit, cfg.Counter.AveragingPeriods)
	if err != nil {
		return stats, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}
	spawn := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.With("task", name).Errorf("остановлен: %v", err)
				fail(errors.Wrap(err, name))
			}
		}()
	}

	spawn("supervisor", func(ctx context.Context) error {
		return sup.Run(ctx, cfg.SupervisorInterval())
	})
	if set.Replay != nil {
		spawn("replay", func(ctx context.Context) error {
			err := set.Replay.Run(ctx)
			if err == nil {
				logger.Info("replay: файл прочитан до конца")
			}
			return err
		})
	}

	var fixMon *gnss.Monitor
	if cfg.GNSS.Device != "" {
		port, err := gnss.Open(cfg.GNSS.Device, cfg.GNSS.Baud)
		if err != nil {
			logger.Warn("gnss: %v", err)
		} else {
			defer port.Close()
			fixMon = gnss.NewMonitor()
			spawn("gnss", func(ctx context.Context) error {
				err := fixMon.Run(ctx, cfg.GNSS.Protocol, port)
				if err != nil && !errors.Is(err, context.Canceled) {
					// индикатор GNSS не повод останавливать счёт
					logger.Warn("gnss: %v", err)
				}
				return nil
			})
		}
	}

	if gpioOK {
		panel := newPanel(cfg, sup, fixMon, loop)
		spawn("indicator", func(ctx context.Context) error {
			return panel.Run(ctx, cfg.BlinkInterval())
		})
	}

	logger.Info("tc-counter: каналы %v, режим %s, усреднение %d, опорная %d Гц",
		cfg.ChannelNames(), mode, cfg.Counter.AveragingPeriods, clock.Load().FrequencyHz)

	fail(loop.Run(ctx))
	cancel()
	wg.Wait()

	stats = Stats{
		Samples:     loop.Samples(),
		Skipped:     loop.Skipped(),
		Rows:        emit.Rows(),
		Transitions: sup.Transitions(),
		Reference:   clock.Load(),
	}
	if firstErr != nil {
		return stats, firstErr
	}
	return stats, ctx.Err()
}

func newSupervisor(cfg *config.Config, clock *refclock.Clock, gpioOK bool) *clockselect.Supervisor {
	var presence clockselect.PresenceProbe = absent{}
	if gpioOK && cfg.Supervisor.Presence.GPIO != "" {
		pin, err := hw.OpenInput(cfg.Supervisor.Presence.GPIO, gpio.PullDown)
		if err != nil {
			logger.Warn("детектор опорной: %v", err)
		} else {
			presence = hw.NewPresenceProbe(pin, cfg.Supervisor.Presence.Samples, cfg.Supervisor.Presence.MinHigh)
		}
	}

	var deviation clockselect.DeviationProbe
	if cfg.Supervisor.MeterPath != "" {
		deviation = clockselect.MeterDeviation{
			Meter:       clockselect.FileMeter{Path: cfg.Supervisor.MeterPath},
			ExpectedKHz: int32(cfg.Clock.XoscHz / 1000),
		}
	}

	var tree clockselect.ClockTree = clockselect.NopTree{}
	if len(cfg.Supervisor.SwitchCommand) > 0 {
		ct, err := clockselect.NewCommandTree(cfg.Supervisor.SwitchCommand, logger.Quiet)
		if err != nil {
			logger.Warn("switch_command: %v", err)
		} else {
			tree = ct
		}
	}

	return clockselect.NewSupervisor(clockselect.Options{
		Threshold:    cfg.Supervisor.Threshold,
		ToleranceKHz: cfg.Supervisor.DeviationToleranceKHz,
		InternalHz:   cfg.CountingHz(false),
		ExternalHz:   cfg.CountingHz(true),
		InternalMHz:  cfg.Clock.XoscHz / config.MHz,
		ExternalMHz:  cfg.Clock.ExternalMHz,
	}, clock, presence, deviation, tree)
}

func newPanel(cfg *config.Config, sup *clockselect.Supervisor, fixMon *gnss.Monitor, loop *pipeline.Loop) *indicator.Panel {
	led := func(name string) indicator.Light {
		l, err := hw.NewLED(name)
		if err != nil {
			logger.Warn("индикатор %s: %v", name, err)
			return nil
		}
		return l
	}
	p := &indicator.Panel{
		ExtClock:  led(cfg.Indicator.ExtClockGPIO),
		GNSS:      led(cfg.Indicator.GNSSGPIO),
		ExtStatus: sup.Status,
	}
	if fixMon != nil {
		p.GNSSFix = fixMon.Fix
	}
	for i, ch := range cfg.Counter.Channels {
		id := i
		p.Inputs = append(p.Inputs, indicator.Input{
			Light: led(ch.LEDGPIO),
			Count: func() uint64 { return loop.Activity(id) },
		})
	}
	return p
}

// logDivider сообщает частоту делённого выхода опорной (переключатели или конфиг).
func logDivider(cfg *config.Config, gpioOK bool) {
	xoscMHz := cfg.Clock.XoscHz / config.MHz
	div := cfg.Clock.Divider
	if div == 0 {
		if !gpioOK || len(cfg.Clock.DividerSwitches) == 0 {
			return
		}
		s, err := hw.ReadDividerSetting(cfg.Clock.DividerSwitches)
		if err != nil {
			logger.Warn("переключатели делителя: %v", err)
			return
		}
		div = hw.DividerFrequency(s, xoscMHz)
		logger.Info("переключатели делителя: %03b", s)
	}
	logger.Info("делённый выход опорной: %d Гц (делитель %d)", div, hw.Divisor(xoscMHz, div))
}
