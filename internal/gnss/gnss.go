// Package gnss — монитор fix приёмника GNSS для индикатора: NMEA GGA или UBX NAV-PVT
// с последовательного порта. Время приёмника счётчик не использует.
package gnss

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"github.com/shiwa/timecard-mini/tc-counter/internal/logger"
	"github.com/shiwa/timecard-mini/tc-counter/internal/ubx"
)

// Fix — состояние решения приёмника.
type Fix int32

const (
	FixUnknown Fix = iota - 1 // данных нет
	FixNone                   // приёмник отвечает, fix нет
	FixOK                     // есть fix
)

func (f Fix) String() string {
	switch f {
	case FixNone:
		return "no_fix"
	case FixOK:
		return "fix"
	default:
		return "unknown"
	}
}

// DefaultStaleAfter — без сообщений дольше этого состояние снова unknown.
const DefaultStaleAfter = 5 * time.Second

// Monitor хранит последнее состояние fix. Fix безопасен из любой горутины.
type Monitor struct {
	state      atomic.Int32
	updated    atomic.Int64 // unix nano
	StaleAfter time.Duration
	now        func() time.Time
}

// NewMonitor создаёт монитор в состоянии FixUnknown.
func NewMonitor() *Monitor {
	m := &Monitor{StaleAfter: DefaultStaleAfter, now: time.Now}
	m.state.Store(int32(FixUnknown))
	return m
}

// Fix возвращает текущее состояние с учётом устаревания.
func (m *Monitor) Fix() Fix {
	f := Fix(m.state.Load())
	if f == FixUnknown {
		return f
	}
	if m.StaleAfter > 0 && m.now().Sub(time.Unix(0, m.updated.Load())) > m.StaleAfter {
		return FixUnknown
	}
	return f
}

func (m *Monitor) set(f Fix) {
	m.updated.Store(m.now().UnixNano())
	if prev := Fix(m.state.Swap(int32(f))); prev != f {
		logger.Info("gnss: %s → %s", prev, f)
	}
}

// ParseGGA разбирает $GPGGA/$GNGGA: поле 6 — качество решения (0 — нет fix).
func ParseGGA(line string) (Fix, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 7 || line[0] != '$' || line[3:6] != "GGA" {
		return FixUnknown, false
	}
	if i := strings.IndexByte(line, '*'); i >= 0 {
		line = line[:i]
	}
	parts := strings.Split(line, ",")
	if len(parts) < 7 || len(parts[6]) == 0 {
		return FixUnknown, false
	}
	q := parts[6][0]
	switch {
	case q == '0':
		return FixNone, true
	case q >= '1' && q <= '9':
		return FixOK, true
	}
	return FixUnknown, false
}

// RunNMEA читает строки NMEA из r до отмены ctx или ошибки чтения.
func (m *Monitor) RunNMEA(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(ctxReader{ctx: ctx, r: r})
	for sc.Scan() {
		if f, ok := ParseGGA(sc.Text()); ok {
			m.set(f)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return ctx.Err()
}

// RunUBX читает кадры UBX из r и берёт fix из NAV-PVT.
func (m *Monitor) RunUBX(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(ctxReader{ctx: ctx, r: r})
	for {
		pkt, err := ubx.ReadPacket(br)
		if err != nil {
			if err == io.EOF {
				return ctx.Err()
			}
			return err
		}
		if !pkt.Is(ubx.ClassNAV, ubx.IDNAVPVT) {
			continue
		}
		pvt, ok := ubx.ParseNAVPVTFix(pkt.Payload)
		if !ok {
			continue
		}
		if pvt.Usable() {
			m.set(FixOK)
		} else {
			m.set(FixNone)
		}
	}
}

// Run выбирает разбор по протоколу (nmea, ubx).
func (m *Monitor) Run(ctx context.Context, protocol string, r io.Reader) error {
	switch protocol {
	case "", "nmea":
		return m.RunNMEA(ctx, r)
	case "ubx":
		return m.RunUBX(ctx, r)
	}
	return fmt.Errorf("gnss: unknown protocol %q", protocol)
}

// ctxReader повторяет пустые чтения (таймаут порта), пока не отменён ctx.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	for {
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := c.r.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// Open открывает порт приёмника с таймаутом чтения, чтобы Run замечал отмену ctx.
func Open(device string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = 9600
	}
	p, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("gnss open %s: %w", device, err)
	}
	if err := p.SetReadTimeout(250 * time.Millisecond); err != nil {
		p.Close()
		return nil, fmt.Errorf("gnss %s read timeout: %w", device, err)
	}
	return p, nil
}

// ListPorts — последовательные порты системы.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
