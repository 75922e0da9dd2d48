package hw

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Положения переключателей делителя.
const (
	DivXosc = iota
	Div1Hz
	Div10Hz
	Div100Hz
	Div500Hz
	Div1kHz
	Div2kHz
	Div1MHz
)

// DividerUnknown — частота выхода при неизвестном положении (видна на осциллографе).
const DividerUnknown = 12345

// DividerFrequency переводит положение переключателей в частоту делённого выхода, Гц.
func DividerFrequency(setting uint8, xoscMHz uint32) uint32 {
	switch setting {
	case DivXosc:
		return xoscMHz
	case Div1Hz:
		return 1
	case Div10Hz:
		return 10
	case Div100Hz:
		return 100
	case Div500Hz:
		return 500
	case Div1kHz:
		return 1000
	case Div2kHz:
		return 2000
	case Div1MHz:
		return 1_000_000
	default:
		return DividerUnknown
	}
}

// ReadDividerSetting читает переключатели (младший бит первым) с подтяжкой вверх.
func ReadDividerSetting(names []string) (uint8, error) {
	if len(names) == 0 || len(names) > 8 {
		return 0, fmt.Errorf("divider switches: need 1..8 pins, got %d", len(names))
	}
	var s uint8
	for i, n := range names {
		p, err := OpenInput(n, gpio.PullUp)
		if err != nil {
			return 0, err
		}
		if p.Read() == gpio.High {
			s |= 1 << i
		}
	}
	return s, nil
}

// Divisor — делитель тактового выхода для частоты divHz при опорной refMHz.
func Divisor(refMHz, divHz uint32) uint32 {
	if divHz == 0 {
		return 0
	}
	return uint32(uint64(refMHz) * 1_000_000 / uint64(divHz))
}
