// Package pipeline — измерительный цикл: опрос очередей всех входов, калибровка,
// обработка по режиму вывода и вывод строки. Цикл никогда не спит и не блокируется.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/shiwa/timecard-mini/tc-counter/internal/counter"
	"github.com/shiwa/timecard-mini/tc-counter/internal/logger"
	"github.com/shiwa/timecard-mini/tc-counter/internal/output"
	"github.com/shiwa/timecard-mini/tc-counter/internal/refclock"
	"github.com/shiwa/timecard-mini/tc-counter/internal/source"
)

// Loop — состояние измерительного цикла. Каналы принадлежат только ему.
type Loop struct {
	sources []source.ChannelSource
	names   []string
	tb      *counter.Timebase
	clock   *refclock.Clock
	emit    *output.Emitter
	periods uint32
	process processor

	samples  uint64
	skipped  uint64
	activity []atomic.Uint64
}

// processor — обработка одного скорректированного отсчёта в выбранном режиме.
type processor func(l *Loop, id int, corrected uint64, ref refclock.Snapshot) error

// New собирает цикл. names — имена каналов в порядке sources (они же в выводе).
// Режим берётся из эмиттера и выбирается один раз здесь.
func New(sources []source.ChannelSource, names []string, clock *refclock.Clock, emit *output.Emitter, periods uint32) (*Loop, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("pipeline: no channel sources")
	}
	if len(names) != len(sources) {
		return nil, fmt.Errorf("pipeline: %d names for %d sources", len(names), len(sources))
	}
	if periods == 0 {
		periods = 1
	}
	l := &Loop{
		sources:  sources,
		names:    names,
		tb:       counter.NewTimebase(names),
		clock:    clock,
		emit:     emit,
		periods:  periods,
		activity: make([]atomic.Uint64, len(sources)),
	}
	switch emit.Mode() {
	case output.ModeCount:
		l.process = processCount
	case output.ModeFrequency:
		l.process = processFrequency
	case output.ModeTimemark:
		l.process = processTimemark
	default:
		return nil, fmt.Errorf("pipeline: unsupported mode %s", emit.Mode())
	}
	return l, nil
}

func processCount(l *Loop, id int, corrected uint64, _ refclock.Snapshot) error {
	return l.emit.Count(l.names[id], corrected)
}

func processFrequency(l *Loop, id int, corrected uint64, ref refclock.Snapshot) error {
	hz, err := counter.EstimateHz(ref.FrequencyHz, l.periods, corrected)
	if err != nil {
		return err
	}
	return l.emit.Frequency(l.names[id], hz)
}

func processTimemark(l *Loop, id int, corrected uint64, ref refclock.Snapshot) error {
	ts, err := l.tb.Mark(id, corrected, ref.FrequencyHz)
	if err != nil {
		return err
	}
	return l.emit.Timemark(l.names[id], ts)
}

// Poll — один проход по всем входам, не более одного отсчёта с каждого.
// Возвращает число выведенных строк. Ошибка — только ошибка записи вывода.
func (l *Loop) Poll() (int, error) {
	emitted := 0
	for id, src := range l.sources {
		raw, ok := src.PollRawCount()
		if !ok {
			continue
		}
		l.samples++
		l.activity[id].Add(1)
		// один снимок опорной на отсчёт
		ref := l.clock.Load()
		if !ref.Valid() {
			l.skip(id, "опорная частота не задана")
			continue
		}
		corrected := counter.Calibrate(raw, l.periods)
		if err := l.process(l, id, corrected, ref); err != nil {
			if err == counter.ErrNoReference || err == counter.ErrDivisionByZero {
				l.skip(id, err.Error())
				continue
			}
			return emitted, err
		}
		emitted++
	}
	return emitted, nil
}

func (l *Loop) skip(id int, reason string) {
	l.skipped++
	// не чаще одной записи на тысячу пропусков
	if l.skipped%1000 == 1 {
		logger.With("channel", l.names[id]).Warnf("отсчёт пропущен: %s (всего %d)", reason, l.skipped)
	}
}

// Run опрашивает входы до отмены ctx. Не спит: при пустых очередях уступает процессор.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := l.Poll()
		if err != nil {
			return err
		}
		if n == 0 {
			runtime.Gosched()
		}
	}
}

// Timebase возвращает общую шкалу каналов (для статистики при остановке).
func (l *Loop) Timebase() *counter.Timebase {
	return l.tb
}

// Activity — число отсчётов канала id; безопасно из другой горутины (индикатор входа).
func (l *Loop) Activity(id int) uint64 {
	return l.activity[id].Load()
}

// Samples — число полученных отсчётов. Читать после остановки Run.
func (l *Loop) Samples() uint64 { return l.samples }

// Skipped возвращает число отброшенных отсчётов.
func (l *Loop) Skipped() uint64 { return l.skipped }
