// Package ubx — минимальный UBX: кадрирование, CFG-TP5 (выход time pulse как опорная
// частота) и NAV-PVT (признак fix для индикатора).
package ubx

import "encoding/binary"

// Sync bytes для UBX протокола
const (
	Sync1 = 0xB5
	Sync2 = 0x62
)

// Классы и ID сообщений
const (
	ClassNAV = 0x01
	ClassACK = 0x05
	ClassCFG = 0x06

	IDAckNak = 0x00
	IDAckAck = 0x01
	IDTP5    = 0x31 // CFG-TP5 Time Pulse
	IDNAVPVT = 0x07 // NAV-PVT
)

// Packet — разобранный UBX кадр.
type Packet struct {
	Class   uint8
	ID      uint8
	Payload []byte
}

// Is возвращает true для кадра class/id.
func (p Packet) Is(class, id uint8) bool {
	return p.Class == class && p.ID == id
}

// Checksum вычисляет UBX контрольную сумму (без sync bytes)
func Checksum(data []byte) (ckA, ckB uint8) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// EncodePacket собирает полный UBX пакет: header + payload + checksum
func EncodePacket(class, id uint8, payload []byte) []byte {
	buf := make([]byte, 0, 8+len(payload))
	buf = append(buf, Sync1, Sync2, class, id)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	ckA, ckB := Checksum(buf[2:])
	return append(buf, ckA, ckB)
}

// DecodePacket разбирает полный кадр с проверкой длины и контрольной суммы.
func DecodePacket(buf []byte) (Packet, bool) {
	if len(buf) < 8 || buf[0] != Sync1 || buf[1] != Sync2 {
		return Packet{}, false
	}
	n := int(binary.LittleEndian.Uint16(buf[4:6]))
	if len(buf) != 8+n || !VerifyChecksum(buf) {
		return Packet{}, false
	}
	return Packet{Class: buf[2], ID: buf[3], Payload: buf[6 : 6+n]}, true
}

// VerifyChecksum проверяет контрольную сумму пакета (header + payload + 2 байта checksum)
func VerifyChecksum(packet []byte) bool {
	if len(packet) < 8 {
		return false
	}
	ckA, ckB := Checksum(packet[2 : len(packet)-2])
	return packet[len(packet)-2] == ckA && packet[len(packet)-1] == ckB
}
