// Package refclock — текущая опорная частота счёта, общая для измерительного цикла
// (много читателей) и супервизора источника (единственный писатель).
//
// Частота, вид источника и признак стабильности упакованы в одно atomic.Uint64,
// поэтому читатель всегда видит согласованную тройку и никогда — частоту
// одного домена с видом другого.
package refclock

import "sync/atomic"

// Kind — вид источника опорной частоты.
type Kind uint8

const (
	Internal Kind = iota // внутренний кварц (XOSC → PLL)
	External             // внешняя опорная (GNSS-disciplined 10 МГц и т.п.)
)

func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

const (
	externalBit = uint64(1) << 32
	stableBit   = uint64(1) << 33
)

// Snapshot — согласованный снимок опорной частоты.
type Snapshot struct {
	FrequencyHz uint32
	Kind        Kind
	Stable      bool
}

// Valid возвращает true, если по снимку можно считать (частота ненулевая).
func (s Snapshot) Valid() bool {
	return s.FrequencyHz != 0
}

func (s Snapshot) pack() uint64 {
	v := uint64(s.FrequencyHz)
	if s.Kind == External {
		v |= externalBit
	}
	if s.Stable {
		v |= stableBit
	}
	return v
}

func unpack(v uint64) Snapshot {
	s := Snapshot{FrequencyHz: uint32(v)}
	if v&externalBit != 0 {
		s.Kind = External
	}
	s.Stable = v&stableBit != 0
	return s
}

// Clock — ячейка single-writer / many-readers.
type Clock struct {
	v atomic.Uint64
}

// New создаёт ячейку с начальным (внутренним) источником.
func New(hz uint32) *Clock {
	c := &Clock{}
	c.Publish(Snapshot{FrequencyHz: hz, Kind: Internal})
	return c
}

// Load читает снимок одним атомарным чтением.
func (c *Clock) Load() Snapshot {
	return unpack(c.v.Load())
}

// Publish записывает снимок целиком. Вызывается только супервизором
// (и один раз при старте). Нулевая частота игнорируется.
func (c *Clock) Publish(s Snapshot) bool {
	if s.FrequencyHz == 0 {
		return false
	}
	c.v.Store(s.pack())
	return true
}
