package ubx

// NAV-PVT: минимальный размер payload и нужные смещения
const (
	NAVPVTSize = 92

	navPvtFixType = 20
	navPvtFlags   = 21
	navPvtNumSV   = 23
)

// Типы fix в NAV-PVT
const (
	FixNone      = 0
	FixDeadReck  = 1
	Fix2D        = 2
	Fix3D        = 3
	FixGNSSDeadR = 4
	FixTimeOnly  = 5
)

// navPvtGnssFixOK — бит flags: fix в пределах масок DOP/точности
const navPvtGnssFixOK = 0x01

// PVTFix — состояние решения из NAV-PVT.
type PVTFix struct {
	FixType   uint8
	GNSSFixOK bool
	NumSV     uint8
}

// Usable — решение пригодно как источник времени: gnssFixOK и 3D или time-only.
func (f PVTFix) Usable() bool {
	return f.GNSSFixOK && (f.FixType == Fix3D || f.FixType == FixGNSSDeadR || f.FixType == FixTimeOnly)
}

// ParseNAVPVTFix разбирает тип fix из payload NAV-PVT.
func ParseNAVPVTFix(payload []byte) (PVTFix, bool) {
	if len(payload) < NAVPVTSize {
		return PVTFix{}, false
	}
	return PVTFix{
		FixType:   payload[navPvtFixType],
		GNSSFixOK: payload[navPvtFlags]&navPvtGnssFixOK != 0,
		NumSV:     payload[navPvtNumSV],
	}, true
}
