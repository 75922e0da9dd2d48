// Package indicator — светодиоды состояния: внешняя опорная и GNSS fix.
// Горит — используется (есть fix), мигает — обнаружена, но не используется (нет fix),
// погашен — отсутствует (состояние неизвестно).
package indicator

import (
	"context"
	"time"

	"github.com/shiwa/timecard-mini/tc-counter/internal/clockselect"
	"github.com/shiwa/timecard-mini/tc-counter/internal/gnss"
	"github.com/shiwa/timecard-mini/tc-counter/internal/logger"
)

// DefaultBlink — полупериод мигания.
const DefaultBlink = 100 * time.Millisecond

// Light — выход светодиода.
type Light interface {
	Set(on bool) error
}

// Level — трёхуровневое состояние индикатора.
type Level int

const (
	Off Level = iota
	Blink
	On
)

// Lit — уровень светодиода в фазе мигания phase.
func (l Level) Lit(phase bool) bool {
	switch l {
	case On:
		return true
	case Blink:
		return phase
	}
	return false
}

// ExtClockLevel — уровень индикатора внешней опорной.
func ExtClockLevel(s clockselect.Status) Level {
	switch s {
	case clockselect.StatusInUse:
		return On
	case clockselect.StatusDetected:
		return Blink
	}
	return Off
}

// GNSSLevel — уровень индикатора GNSS.
func GNSSLevel(f gnss.Fix) Level {
	switch f {
	case gnss.FixOK:
		return On
	case gnss.FixNone:
		return Blink
	}
	return Off
}

// Input — индикатор активности входа: вспыхивает на шаге, если пришли новые отсчёты.
type Input struct {
	Light Light
	Count func() uint64
	last  uint64
}

// Panel — индикаторы платы. Источник состояния может быть nil (индикатор погашен).
type Panel struct {
	ExtClock     Light
	GNSS         Light
	ExtStatus    func() clockselect.Status
	GNSSFix      func() gnss.Fix
	Inputs       []Input
	phase        bool
	errorsLogged bool
}

// Step переключает фазу мигания и выставляет оба светодиода.
func (p *Panel) Step() {
	p.phase = !p.phase
	ext, fix := Off, Off
	if p.ExtStatus != nil {
		ext = ExtClockLevel(p.ExtStatus())
	}
	if p.GNSSFix != nil {
		fix = GNSSLevel(p.GNSSFix())
	}
	p.set(p.ExtClock, ext.Lit(p.phase))
	p.set(p.GNSS, fix.Lit(p.phase))
	for i := range p.Inputs {
		in := &p.Inputs[i]
		if in.Count == nil {
			continue
		}
		c := in.Count()
		p.set(in.Light, c != in.last)
		in.last = c
	}
}

func (p *Panel) set(l Light, on bool) {
	if l == nil {
		return
	}
	if err := l.Set(on); err != nil && !p.errorsLogged {
		// только первая ошибка
		logger.Warn("indicator: %v", err)
		p.errorsLogged = true
	}
}

// Run вызывает Step каждые blink до отмены ctx, затем гасит светодиоды.
func (p *Panel) Run(ctx context.Context, blink time.Duration) error {
	if blink <= 0 {
		blink = DefaultBlink
	}
	ticker := time.NewTicker(blink)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.set(p.ExtClock, false)
			p.set(p.GNSS, false)
			for _, in := range p.Inputs {
				p.set(in.Light, false)
			}
			return ctx.Err()
		case <-ticker.C:
		}
		p.Step()
	}
}
