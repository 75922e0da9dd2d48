package ubx

import "encoding/binary"

// CFG-TP5 payload (32 байта):
// 0 tpIdx, 1 version, 4 antCableDelay, 6 rfGroupDelay, 8 freqPeriod, 12 freqPeriodLock,
// 16 pulseLenRatio, 20 pulseLenRatioLock, 24 userConfigDelay, 28 flags
const TP5PayloadSize = 32

// Биты флагов CFG-TP5
const (
	TP5Active         = 0x01
	TP5LockGnssFreq   = 0x02
	TP5LockedOtherSet = 0x04
	TP5IsFreq         = 0x08 // freqPeriod — частота в Гц, а не период
	TP5IsLength       = 0x10 // pulseLenRatio — длительность в нс, а не скважность
	TP5AlignToTow     = 0x20
	TP5Polarity       = 0x40
)

// HalfDuty — скважность 50% в единицах 2^-32.
const HalfDuty = 1 << 31

// TP5Config — параметры выхода time pulse.
type TP5Config struct {
	TPIdx             uint8
	AntCableDelayNs   int16
	RfGroupDelayNs    int16
	FreqPeriod        uint32 // Гц при IsFreq, иначе период в мкс
	FreqPeriodLock    uint32
	PulseLenRatio     uint32 // нс при IsLength, иначе доля 2^-32
	PulseLenRatioLock uint32
	UserConfigDelayNs int32
	Active            bool
	LockGnssFreq      bool
	LockedOtherSet    bool
	IsFreq            bool
	IsLength          bool
	AlignToTow        bool
	Polarity          bool
}

// FrequencyTP5 — выход time pulse как меандр частотой hz. Без fix скважность нулевая
// и выход молчит.
func FrequencyTP5(tpIdx uint8, hz uint32, cableDelayNs int16) TP5Config {
	return TP5Config{
		TPIdx:             tpIdx,
		AntCableDelayNs:   cableDelayNs,
		FreqPeriod:        0,
		FreqPeriodLock:    hz,
		PulseLenRatio:     0,
		PulseLenRatioLock: HalfDuty,
		Active:            true,
		LockGnssFreq:      true,
		LockedOtherSet:    true,
		IsFreq:            true,
		AlignToTow:        true,
	}
}

func (c TP5Config) flags() uint32 {
	var f uint32
	set := func(on bool, bit uint32) {
		if on {
			f |= bit
		}
	}
	set(c.Active, TP5Active)
	set(c.LockGnssFreq, TP5LockGnssFreq)
	set(c.LockedOtherSet, TP5LockedOtherSet)
	set(c.IsFreq, TP5IsFreq)
	set(c.IsLength, TP5IsLength)
	set(c.AlignToTow, TP5AlignToTow)
	set(c.Polarity, TP5Polarity)
	return f
}

// Marshal сериализует TP5Config в 32-байтный payload
func (c TP5Config) Marshal() []byte {
	p := make([]byte, TP5PayloadSize)
	p[0] = c.TPIdx
	binary.LittleEndian.PutUint16(p[4:6], uint16(c.AntCableDelayNs))
	binary.LittleEndian.PutUint16(p[6:8], uint16(c.RfGroupDelayNs))
	binary.LittleEndian.PutUint32(p[8:12], c.FreqPeriod)
	binary.LittleEndian.PutUint32(p[12:16], c.FreqPeriodLock)
	binary.LittleEndian.PutUint32(p[16:20], c.PulseLenRatio)
	binary.LittleEndian.PutUint32(p[20:24], c.PulseLenRatioLock)
	binary.LittleEndian.PutUint32(p[24:28], uint32(c.UserConfigDelayNs))
	binary.LittleEndian.PutUint32(p[28:32], c.flags())
	return p
}

// BuildCFGTP5 собирает полный UBX CFG-TP5 пакет
func BuildCFGTP5(c TP5Config) []byte {
	return EncodePacket(ClassCFG, IDTP5, c.Marshal())
}

// DefaultFrequencyTP5 — 10 МГц на TIMEPULSE без поправки на кабель.
func DefaultFrequencyTP5() TP5Config {
	return FrequencyTP5(0, 10_000_000, 0)
}
