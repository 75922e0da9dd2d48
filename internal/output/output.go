// Package output — строки измерений: заголовок один раз, затем по строке на отсчёт,
// поля через табуляцию. Приёмник — stdout или последовательный порт.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/tarm/serial"

	"github.com/shiwa/timecard-mini/tc-counter/internal/counter"
)

// Mode — что выводится на каждый отсчёт.
type Mode int

const (
	ModeCount     Mode = iota // скорректированные такты
	ModeFrequency             // оценка частоты, Гц
	ModeTimemark              // метка времени на общей шкале, с
)

// ParseMode разбирает режим из конфига.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "count":
		return ModeCount, nil
	case "frequency", "freq":
		return ModeFrequency, nil
	case "timemark", "time":
		return ModeTimemark, nil
	}
	return 0, fmt.Errorf("unknown output mode %q", s)
}

func (m Mode) String() string {
	switch m {
	case ModeCount:
		return "count"
	case ModeFrequency:
		return "frequency"
	case ModeTimemark:
		return "timemark"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Header — строка заголовка режима (без перевода строки).
func (m Mode) Header() string {
	switch m {
	case ModeFrequency:
		return "FREQ\t CHANNEL"
	case ModeTimemark:
		return "TIMEMARK\t CHANNEL"
	default:
		return "COUNT\t CHANNEL"
	}
}

// Emitter пишет строки одного режима. Заголовок выводится перед первой строкой.
type Emitter struct {
	mu     sync.Mutex
	w      io.Writer
	mode   Mode
	header bool
	rows   uint64
}

// NewEmitter создаёт эмиттер поверх w.
func NewEmitter(w io.Writer, mode Mode) *Emitter {
	return &Emitter{w: w, mode: mode}
}

// Mode возвращает режим эмиттера.
func (e *Emitter) Mode() Mode {
	return e.mode
}

// Rows возвращает число выведенных строк (без заголовка).
func (e *Emitter) Rows() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows
}

// Count выводит скорректированные такты.
func (e *Emitter) Count(channel string, corrected uint64) error {
	return e.row(ModeCount, fmt.Sprintf("%d\t %s\n", corrected, channel))
}

// Frequency выводит оценку частоты.
func (e *Emitter) Frequency(channel string, hz float64) error {
	return e.row(ModeFrequency, fmt.Sprintf("%.9f\t %s\n", hz, channel))
}

// Timemark выводит метку времени: целые секунды и 9 знаков дроби.
func (e *Emitter) Timemark(channel string, ts counter.Timestamp) error {
	return e.row(ModeTimemark, ts.String()+"\t "+channel+"\n")
}

func (e *Emitter) row(m Mode, line string) error {
	if m != e.mode {
		return fmt.Errorf("output: %s row on %s emitter", m, e.mode)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.header {
		if _, err := io.WriteString(e.w, e.mode.Header()+"\n"); err != nil {
			return fmt.Errorf("output header: %w", err)
		}
		e.header = true
	}
	if _, err := io.WriteString(e.w, line); err != nil {
		return fmt.Errorf("output row: %w", err)
	}
	e.rows++
	return nil
}

type stdout struct{ io.Writer }

func (stdout) Close() error { return nil }

// Open открывает приёмник строк: пустой port — stdout, иначе последовательный порт.
func Open(port string, baud int) (io.WriteCloser, error) {
	if port == "" || port == "-" {
		return stdout{os.Stdout}, nil
	}
	if baud <= 0 {
		baud = 115200
	}
	p, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("output serial open %s: %w", port, err)
	}
	return p, nil
}
