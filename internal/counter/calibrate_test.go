package counter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrate(t *testing.T) {
	tests := []struct {
		name    string
		raw     uint32
		periods uint32
		want    uint64
	}{
		{"single period zero", 0, 1, 4},
		{"single period", 1000, 1, 2004},
		{"single period max raw", math.MaxUint32, 1, (uint64(math.MaxUint32) + 2) * 2},
		{"zero periods as one", 1000, 0, 2004},
		{"three periods", 1000, 3, 2*1000 + 9 + 3},
		{"five periods", 0, 5, 18},
		{"many periods max raw", math.MaxUint32, 101, 2*uint64(math.MaxUint32) + 306},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calibrate(tt.raw, tt.periods))
		})
	}
}

func TestCalibrate_MatchesFloatFormula(t *testing.T) {
	for _, periods := range []uint32{3, 5, 7, 9, 99} {
		for _, raw := range []uint32{0, 1, 12345, 1 << 20, 1<<31 - 1} {
			want := uint64(2 * (float64(raw) + 1.5*float64(periods) + 1.5))
			assert.Equal(t, want, Calibrate(raw, periods), "raw=%d periods=%d", raw, periods)
		}
	}
}

func TestCalibrate_SinglePeriodNoOverflow(t *testing.T) {
	for _, raw := range []uint32{0, 1, 1 << 31, math.MaxUint32 - 2, math.MaxUint32 - 1, math.MaxUint32} {
		got := Calibrate(raw, 1)
		assert.Equal(t, (uint64(raw)+2)*2, got)
		assert.Greater(t, got, uint64(raw), "результат не должен переполниться")
	}
}

func TestUncalibrate(t *testing.T) {
	for _, periods := range []uint32{1, 3, 5} {
		for _, raw := range []uint32{0, 7, 1_000_000, math.MaxUint32} {
			assert.Equal(t, raw, Uncalibrate(Calibrate(raw, periods), periods))
		}
	}
	assert.Equal(t, uint32(0), Uncalibrate(2, 1))
	assert.Equal(t, uint32(math.MaxUint32), Uncalibrate(math.MaxUint64, 1))
}
