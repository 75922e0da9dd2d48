// Package hw — GPIO платы счётчика через periph: линия наличия внешней опорной,
// переключатели делителя и светодиоды состояния.
package hw

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/shiwa/timecard-mini/tc-counter/internal/logger"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init регистрирует драйверы хоста (sysfs, gpiochip и т.д.). Повторные вызовы ничего не делают.
func Init() error {
	initOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			initErr = fmt.Errorf("periph host init: %w", err)
			return
		}
		for _, d := range state.Failed {
			logger.Debug("hw: драйвер %s: %v", d.D, d.Err)
		}
	})
	return initErr
}

// lookup — поиск пина по имени; подменяется в тестах.
var lookup = func(name string) gpio.PinIO {
	return gpioreg.ByName(name)
}

// OpenInput открывает пин на вход с подтяжкой pull.
func OpenInput(name string, pull gpio.Pull) (gpio.PinIn, error) {
	p := lookup(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	if err := p.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio %s input: %w", name, err)
	}
	return p, nil
}

// OpenOutput открывает пин на выход в низком уровне.
func OpenOutput(name string) (gpio.PinOut, error) {
	p := lookup(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio %s output: %w", name, err)
	}
	return p, nil
}

// PresenceProbe — детектор внешней опорной: пачка чтений линии, опорная есть,
// если высоких уровней больше MinHigh.
type PresenceProbe struct {
	pin     gpio.PinIn
	samples int
	minHigh int
}

// NewPresenceProbe создаёт детектор на пине pin.
func NewPresenceProbe(pin gpio.PinIn, samples, minHigh int) *PresenceProbe {
	if samples <= 0 {
		samples = 100
	}
	if minHigh < 0 {
		minHigh = 0
	}
	return &PresenceProbe{pin: pin, samples: samples, minHigh: minHigh}
}

// Present выполняет одну пачку чтений.
func (p *PresenceProbe) Present() bool {
	high := 0
	for i := 0; i < p.samples; i++ {
		if p.pin.Read() == gpio.High {
			high++
		}
	}
	return high > p.minHigh
}
