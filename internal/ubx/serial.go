package ubx

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// ErrNAK — приёмник отверг конфигурацию.
var ErrNAK = errors.New("ubx: NAK")

// Port — последовательный порт приёмника в режиме UBX.
type Port struct {
	rw io.ReadWriteCloser
	r  *bufio.Reader
}

// Open открывает последовательный порт. Таймаут чтения ограничивает ожидание ACK.
func Open(device string, baud int) (*Port, error) {
	p, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud, ReadTimeout: 500 * time.Millisecond})
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", device, err)
	}
	return NewPort(p), nil
}

// NewPort оборачивает готовый поток (tarm/serial, go.bug.st/serial или буфер в тестах).
func NewPort(rw io.ReadWriteCloser) *Port {
	return &Port{rw: rw, r: bufio.NewReaderSize(rw, 1024)}
}

// WritePacket отправляет готовый UBX пакет
func (p *Port) WritePacket(packet []byte) error {
	_, err := p.rw.Write(packet)
	return err
}

// ReadPacket читает следующий корректный UBX кадр, пропуская NMEA и мусор.
func (p *Port) ReadPacket() (Packet, error) {
	return ReadPacket(p.r)
}

// ReadPacket читает кадр из r: ждёт sync, затем заголовок, payload и checksum.
// Кадры с неверной суммой пропускаются.
func ReadPacket(r io.ByteReader) (Packet, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return Packet{}, err
		}
		if b != Sync1 {
			continue
		}
		if b, err = r.ReadByte(); err != nil {
			return Packet{}, err
		}
		if b != Sync2 {
			continue
		}
		hdr := make([]byte, 4)
		if err := readFull(r, hdr); err != nil {
			return Packet{}, err
		}
		n := int(hdr[2]) | int(hdr[3])<<8
		buf := make([]byte, 0, 8+n)
		buf = append(buf, Sync1, Sync2)
		buf = append(buf, hdr...)
		buf = buf[:6+n+2]
		if err := readFull(r, buf[6:]); err != nil {
			return Packet{}, err
		}
		if pkt, ok := DecodePacket(buf); ok {
			return pkt, nil
		}
	}
}

func readFull(r io.ByteReader, dst []byte) error {
	for i := range dst {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		dst[i] = b
	}
	return nil
}

// WaitAck ждёт ACK/NAK на сообщение class/id не дольше maxPackets кадров.
func (p *Port) WaitAck(class, id uint8, maxPackets int) error {
	for i := 0; i < maxPackets; i++ {
		pkt, err := p.ReadPacket()
		if err != nil {
			return fmt.Errorf("ubx wait ack: %w", err)
		}
		if pkt.Class != ClassACK || len(pkt.Payload) < 2 || pkt.Payload[0] != class || pkt.Payload[1] != id {
			continue
		}
		if pkt.ID == IDAckAck {
			return nil
		}
		return ErrNAK
	}
	return fmt.Errorf("ubx: no ack for %#02x/%#02x in %d packets", class, id, maxPackets)
}

// ConfigureTimePulse отправляет CFG-TP5 и ждёт подтверждения.
func (p *Port) ConfigureTimePulse(c TP5Config) error {
	if err := p.WritePacket(BuildCFGTP5(c)); err != nil {
		return fmt.Errorf("ubx write CFG-TP5: %w", err)
	}
	return p.WaitAck(ClassCFG, IDTP5, 32)
}

// Close закрывает порт
func (p *Port) Close() error {
	if p.rw == nil {
		return nil
	}
	return p.rw.Close()
}
