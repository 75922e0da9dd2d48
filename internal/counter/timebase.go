package counter

import (
	"fmt"
	"math"
)

// Timestamp — метка времени, разложенная на целые секунды и дробную часть [0, 1).
type Timestamp struct {
	Seconds  uint64
	Fraction float64
}

// Decompose раскладывает накопленные такты на секунды и долю секунды.
// Делится целочисленно; в float64 переводится только остаток < refHz,
// поэтому относительная ошибка не хуже 1/refHz даже через годы работы.
func Decompose(cycles uint64, refHz uint32) (Timestamp, error) {
	if refHz == 0 {
		return Timestamp{}, ErrNoReference
	}
	hz := uint64(refHz)
	return Timestamp{
		Seconds:  cycles / hz,
		Fraction: float64(cycles%hz) / float64(hz),
	}, nil
}

// Cycles восстанавливает число тактов по метке (с точностью до одного такта).
func (t Timestamp) Cycles(refHz uint32) uint64 {
	return t.Seconds*uint64(refHz) + uint64(math.Round(t.Fraction*float64(refHz)))
}

// add складывает две метки с переносом дроби в секунды.
func (t Timestamp) add(u Timestamp) Timestamp {
	r := Timestamp{Seconds: t.Seconds + u.Seconds, Fraction: t.Fraction + u.Fraction}
	if r.Fraction >= 1 {
		r.Seconds++
		r.Fraction--
	}
	return r
}

// String форматирует метку с 9 знаками после запятой без потери точности
// целой части; округление дроби до 1.0 переносится в секунды.
func (t Timestamp) String() string {
	sec := t.Seconds
	ns := uint64(math.Round(t.Fraction * 1e9))
	if ns >= 1e9 {
		sec++
		ns -= 1e9
	}
	return fmt.Sprintf("%d.%09d", sec, ns)
}

// Channel — состояние одного физического входа.
type Channel struct {
	ID   int
	Name string
	// Cycles — накопленные такты; только растёт, меняется только Accumulate и Align.
	Cycles uint64
	// Last — последняя выданная метка.
	Last Timestamp
	// Samples — число обработанных отсчётов.
	Samples uint64

	// Эпоха: метка и аккумулятор на момент последней смены опорной частоты.
	// Такты после эпохи раскладываются по частоте, на которой они насчитаны.
	epoch       Timestamp
	epochCycles uint64
	hz          uint32
}

// NewChannels создаёт каналы с нулевым состоянием по списку имён.
func NewChannels(names []string) []Channel {
	chs := make([]Channel, len(names))
	for i, n := range names {
		chs[i] = Channel{ID: i, Name: n}
	}
	return chs
}

// Accumulate прибавляет скорректированные такты и раскладывает сумму по refHz.
// refHz — один снимок опорной частоты на весь вызов. При refHz == 0 аккумулятор
// не меняется и возвращается ErrNoReference.
//
// При смене частоты такты, насчитанные до неё, фиксируются в эпохе по старой
// частоте, поэтому шкала не прыгает; Cycles по-прежнему только растёт.
func (c *Channel) Accumulate(corrected uint64, refHz uint32) (Timestamp, error) {
	if refHz == 0 {
		return Timestamp{}, ErrNoReference
	}
	if c.hz != 0 && c.hz != refHz {
		span, err := Decompose(c.Cycles-c.epochCycles, c.hz)
		if err != nil {
			return Timestamp{}, err
		}
		c.epoch = c.epoch.add(span)
		c.epochCycles = c.Cycles
	}
	c.hz = refHz
	c.Cycles += corrected
	c.Samples++
	ts, err := Decompose(c.Cycles-c.epochCycles, refHz)
	if err != nil {
		return Timestamp{}, err
	}
	ts = c.epoch.add(ts)
	c.Last = ts
	return ts, nil
}
