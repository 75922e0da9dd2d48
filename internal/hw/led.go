package hw

import "periph.io/x/conn/v3/gpio"

// LED — светодиод на выходном пине. Без пина (nil) все вызовы ничего не делают.
type LED struct {
	pin gpio.PinOut
	on  bool
}

// NewLED открывает светодиод на пине name; пустое имя — светодиода нет.
func NewLED(name string) (*LED, error) {
	if name == "" {
		return &LED{}, nil
	}
	p, err := OpenOutput(name)
	if err != nil {
		return nil, err
	}
	return &LED{pin: p}, nil
}

// Set зажигает или гасит светодиод.
func (l *LED) Set(on bool) error {
	l.on = on
	if l.pin == nil {
		return nil
	}
	return l.pin.Out(gpio.Level(on))
}

// On возвращает последнее заданное состояние.
func (l *LED) On() bool {
	return l.on
}
