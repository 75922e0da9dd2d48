package source

import (
	"fmt"
	"math/bits"

	"github.com/shiwa/timecard-mini/tc-counter/internal/counter"
)

// ppsEvent — последний assert с /dev/pps{N}.
type ppsEvent struct {
	seq  uint32
	sec  int64
	nsec int32
}

// ppsDevice — устройство PPS; fetch не ждёт события (нулевой таймаут).
type ppsDevice interface {
	fetch() (ppsEvent, error)
	Close() error
}

// openPPSDevice если задана, открывает /dev/pps{N} (только Linux).
var openPPSDevice func(index int) (ppsDevice, error)

// PPS — вход по фронтам ядра Linux PPS. Отсчёт выдаётся на каждые periods фронтов:
// интервал переводится в такты по текущей опорной частоте и обратно в сырой отсчёт,
// совместимый с counter.Calibrate, так что дальше конвейер работает как с сопроцессором.
type PPS struct {
	index   int
	dev     ppsDevice
	refHz   func() uint32
	periods uint32

	primed    bool
	anchorSeq uint32
	anchorNs  int64

	// backlog — ещё не выданные отсчёты после догоняющего опроса, каждый равен backlogRaw.
	backlog    uint32
	backlogRaw uint32
}

// NewPPS открывает /dev/pps{index}. refHz — текущая опорная частота (снимок refclock).
func NewPPS(index int, refHz func() uint32, periods uint32) (*PPS, error) {
	if openPPSDevice == nil {
		return nil, fmt.Errorf("pps%d: PPS API is not available on this platform", index)
	}
	dev, err := openPPSDevice(index)
	if err != nil {
		return nil, fmt.Errorf("pps%d: %w", index, err)
	}
	return newPPS(index, dev, refHz, periods), nil
}

func newPPS(index int, dev ppsDevice, refHz func() uint32, periods uint32) *PPS {
	if periods == 0 {
		periods = 1
	}
	return &PPS{index: index, dev: dev, refHz: refHz, periods: periods}
}

// Name возвращает имя источника
func (p *PPS) Name() string {
	return fmt.Sprintf("pps:/dev/pps%d", p.index)
}

// PollRawCount возвращает отсчёт, когда с прошлой опорной точки прошло periods фронтов.
// Первый фронт только запоминается: интервал до него неизвестен.
// Если между опросами пропущено больше фронтов, интервал делится поровну на фронты
// и выдаётся по отсчёту на каждые periods из них; остаток фронтов переходит
// в следующий отсчёт, так что накопленное время не теряется.
func (p *PPS) PollRawCount() (uint32, bool) {
	if p.backlog > 0 {
		p.backlog--
		return p.backlogRaw, true
	}
	ev, err := p.dev.fetch()
	if err != nil || ev.seq == 0 {
		return 0, false
	}
	ns := ev.sec*1e9 + int64(ev.nsec)
	if !p.primed {
		p.anchorSeq, p.anchorNs = ev.seq, ns
		p.primed = true
		return 0, false
	}
	edges := ev.seq - p.anchorSeq
	if edges < p.periods {
		return 0, false
	}
	intervalNs := ns - p.anchorNs
	if intervalNs <= 0 {
		// часы ядра шагнули назад: начинаем отсчёт заново
		p.anchorSeq, p.anchorNs = ev.seq, ns
		return 0, false
	}
	hz := p.refHz()
	if hz == 0 {
		return 0, false
	}
	n := edges / p.periods
	perEdge := float64(intervalNs) / float64(edges)
	sampleNs := int64(perEdge * float64(p.periods))
	p.anchorSeq += n * p.periods
	p.anchorNs += sampleNs * int64(n)
	raw := counter.Uncalibrate(cyclesIn(uint64(sampleNs), hz), p.periods)
	p.backlog, p.backlogRaw = n-1, raw
	return raw, true
}

// cyclesIn — число тактов hz за ns наносекунд без переполнения uint64.
func cyclesIn(ns uint64, hz uint32) uint64 {
	hi, lo := bits.Mul64(ns, uint64(hz))
	if hi >= 1e9 {
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, 1e9)
	return q
}

// Close закрывает устройство
func (p *PPS) Close() error {
	if p.dev == nil {
		return nil
	}
	return p.dev.Close()
}
