// Package clockselect — супервизор источника опорной частоты: следит за наличием
// внешней опорной с гистерезисом, сверяет частоту внутреннего генератора
// и переключает домен счёта (internal ↔ external), публикуя новую частоту в refclock.
package clockselect

import (
	"context"
	"sync"
	"time"

	"github.com/shiwa/timecard-mini/tc-counter/internal/logger"
	"github.com/shiwa/timecard-mini/tc-counter/internal/refclock"
)

// DefaultThreshold — число подтверждающих тиков подряд до смены состояния опорной.
const DefaultThreshold = 10

// PresenceProbe — линия детектора внешней опорной.
type PresenceProbe interface {
	Present() bool
}

// DeviationProbe — частотомер внутреннего генератора: измеренная минус ожидаемая частота, кГц.
type DeviationProbe interface {
	DeviationKHz() (int32, error)
}

// ClockTree — физическое тактовое дерево (PLL, clk_ref, clk_sys, делённый выход).
//
//go:generate mockgen -destination=mock_clocktree_test.go -package=clockselect . ClockTree
type ClockTree interface {
	// Switch перестраивает дерево на опорную kind частотой referenceMHz.
	Switch(kind refclock.Kind, referenceMHz uint32) error
}

// Status — состояние внешней опорной для индикатора.
type Status int

const (
	StatusAbsent   Status = iota - 1 // подтверждено отсутствие
	StatusDetected                   // есть (или ещё не опровергнута), не используется
	StatusInUse                      // используется для счёта
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusDetected:
		return "detected"
	case StatusInUse:
		return "in_use"
	default:
		return "unknown"
	}
}

// Options — параметры супервизора.
type Options struct {
	Threshold    int
	ToleranceKHz int32
	// Частоты счёта (публикуются в refclock) и частоты самой опорной (для дерева).
	InternalHz  uint32
	ExternalHz  uint32
	InternalMHz uint32
	ExternalMHz uint32
}

// Supervisor — управляющий цикл. Единственный писатель refclock.Clock после старта.
type Supervisor struct {
	opts      Options
	clock     *refclock.Clock
	presence  PresenceProbe
	deviation DeviationProbe
	tree      ClockTree

	// tickMu упорядочивает Tick; mu защищает поля ниже.
	tickMu      sync.Mutex
	mu          sync.Mutex
	confidence  int
	kind        refclock.Kind
	target      refclock.Kind
	status      Status
	transitions int
}

// NewSupervisor создаёт супервизор. deviation может быть nil (сверка частоты отключена).
// Домен на старте — internal с частотой InternalHz.
func NewSupervisor(opts Options, clock *refclock.Clock, presence PresenceProbe, deviation DeviationProbe, tree ClockTree) *Supervisor {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if tree == nil {
		tree = NopTree{}
	}
	clock.Publish(refclock.Snapshot{FrequencyHz: opts.InternalHz, Kind: refclock.Internal})
	return &Supervisor{
		opts:      opts,
		clock:     clock,
		presence:  presence,
		deviation: deviation,
		tree:      tree,
		kind:      refclock.Internal,
		target:    refclock.Internal,
		status:    StatusDetected,
	}
}

// ClassifyDeviation сводит отклонение к сигналу: 0 — в допуске, 1 — нужна внешняя
// (внутренний домен считает неверно), -1 — нужна внутренняя.
func ClassifyDeviation(devKHz, toleranceKHz int32) int {
	if devKHz > -toleranceKHz && devKHz < toleranceKHz {
		return 0
	}
	if devKHz > 0 {
		return 1
	}
	return -1
}

// Tick — один шаг: выборка линии наличия, гистерезис, сверка частоты, переключение.
// Возвращает true, если в этом шаге произошло переключение домена.
// Пробы и дерево вызываются без s.mu: Status и Kind не ждут внешнюю команду.
func (s *Supervisor) Tick() bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	present := s.presence.Present()
	devSignal := 0
	if s.deviation != nil {
		if dev, err := s.deviation.DeviationKHz(); err != nil {
			logger.Debug("clockselect: частотомер: %v", err)
		} else {
			devSignal = ClassifyDeviation(dev, s.opts.ToleranceKHz)
		}
	}

	s.mu.Lock()
	t := s.opts.Threshold
	prev := s.confidence
	if present {
		if s.confidence < t {
			s.confidence++
		}
	} else if s.confidence > -t {
		s.confidence--
	}

	// Гистерезис срабатывает только на входе в насыщение, а не пока счётчик в нём стоит:
	// иначе он спорил бы со сверкой частоты каждый тик.
	switch {
	case s.confidence == t && prev < t:
		if s.status == StatusAbsent {
			s.status = StatusDetected
		}
		s.target = refclock.External
	case s.confidence == -t && prev > -t:
		s.status = StatusAbsent
		s.target = refclock.Internal
		if s.kind == refclock.Internal {
			s.markStable()
		}
	}

	switch devSignal {
	case 1:
		if s.status != StatusAbsent {
			s.target = refclock.External
		}
	case -1:
		s.target = refclock.Internal
	}
	from, target := s.kind, s.target
	s.mu.Unlock()

	if target == from {
		return false
	}
	return s.switchTo(from, target)
}

// switchTo перестраивает дерево и только потом публикует новую частоту.
// При ошибке дерева состояние не меняется; попытка повторится на следующем тике.
func (s *Supervisor) switchTo(from, kind refclock.Kind) bool {
	hz, mhz := s.opts.InternalHz, s.opts.InternalMHz
	if kind == refclock.External {
		hz, mhz = s.opts.ExternalHz, s.opts.ExternalMHz
	}
	logger.Info("clockselect: переключение опорной %s → %s (%d МГц)", from, kind, mhz)
	if err := s.tree.Switch(kind, mhz); err != nil {
		logger.Error("clockselect: переключение на %s: %v", kind, err)
		return false
	}
	if !s.clock.Publish(refclock.Snapshot{FrequencyHz: hz, Kind: kind, Stable: true}) {
		logger.Error("clockselect: нулевая частота счёта для %s, переключение отменено", kind)
		return false
	}

	s.mu.Lock()
	s.kind = kind
	s.transitions++
	if kind == refclock.External {
		s.status = StatusInUse
	} else if s.status == StatusInUse {
		s.status = StatusDetected
	}
	s.mu.Unlock()
	logger.Info("clockselect: опорная %s, частота счёта %d Гц", kind, hz)
	return true
}

func (s *Supervisor) markStable() {
	snap := s.clock.Load()
	if !snap.Stable {
		snap.Stable = true
		s.clock.Publish(snap)
	}
}

// Status возвращает состояние внешней опорной (для индикатора).
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Kind возвращает текущий домен счёта.
func (s *Supervisor) Kind() refclock.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// Confidence возвращает счётчик гистерезиса.
func (s *Supervisor) Confidence() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confidence
}

// Transitions возвращает число выполненных переключений домена.
func (s *Supervisor) Transitions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitions
}

// Run вызывает Tick с периодом interval до отмены ctx.
func (s *Supervisor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		s.Tick()
	}
}
