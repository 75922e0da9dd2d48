package counter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompose(t *testing.T) {
	ts, err := Decompose(25_000_000, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ts.Seconds)
	assert.InDelta(t, 0.5, ts.Fraction, 1e-15)

	_, err = Decompose(1, 0)
	assert.ErrorIs(t, err, ErrNoReference)
}

func TestDecompose_MultiYear(t *testing.T) {
	// ~3 года на 240 МГц: float64 от всего аккумулятора уже теряет наносекунды
	const hz = 240_000_000
	cycles := uint64(3*365*86400)*hz + 240
	ts, err := Decompose(cycles, hz)
	require.NoError(t, err)
	assert.Equal(t, uint64(3*365*86400), ts.Seconds)
	assert.InDelta(t, 1e-6, ts.Fraction, 1e-18)
	assert.Equal(t, cycles, ts.Cycles(hz))
	assert.Equal(t, "94608000.000001000", ts.String())
}

func TestAccumulate_Associative(t *testing.T) {
	deltas := []uint64{4, 2004, 19_999_998, 240_000_000, 1 << 33, 7}
	for _, hz := range []uint32{12_000_000, 200_000_000, 240_000_000} {
		var stepwise Channel
		var sum uint64
		var last Timestamp
		for _, d := range deltas {
			var err error
			last, err = stepwise.Accumulate(d, hz)
			require.NoError(t, err)
			sum += d
		}
		var once Channel
		got, err := once.Accumulate(sum, hz)
		require.NoError(t, err)
		assert.Equal(t, got, last)
		assert.Equal(t, once.Cycles, stepwise.Cycles)
		assert.Equal(t, uint64(len(deltas)), stepwise.Samples)
	}
}

func TestAccumulate_RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 239_999_999, 240_000_000, 1<<40 + 17, 1<<62 + 12345}
	for _, hz := range []uint32{1_000, 10_000_000, 240_000_000, math.MaxUint32} {
		for _, v := range values {
			ts, err := Decompose(v, hz)
			require.NoError(t, err)
			assert.Less(t, ts.Fraction, 1.0)
			assert.GreaterOrEqual(t, ts.Fraction, 0.0)
			got := ts.Cycles(hz)
			diff := int64(got - v)
			assert.LessOrEqual(t, math.Abs(float64(diff)), 1.0, "hz=%d v=%d", hz, v)
		}
	}
}

func TestAccumulate_ZeroReference(t *testing.T) {
	c := Channel{Cycles: 100}
	_, err := c.Accumulate(50, 0)
	assert.ErrorIs(t, err, ErrNoReference)
	assert.Equal(t, uint64(100), c.Cycles, "аккумулятор не должен меняться")
}

func TestTimestamp_String(t *testing.T) {
	tests := []struct {
		ts   Timestamp
		want string
	}{
		{Timestamp{0, 0}, "0.000000000"},
		{Timestamp{1, 0.5}, "1.500000000"},
		{Timestamp{12, 0.0000000004}, "12.000000000"},
		{Timestamp{12, 0.9999999996}, "13.000000000"},
		{Timestamp{3, 0.123456789}, "3.123456789"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ts.String())
	}
}

func TestAccumulate_ReferenceSwitchKeepsTimeline(t *testing.T) {
	var c Channel
	ts, err := c.Accumulate(1000*240_000_000, 240_000_000)
	require.NoError(t, err)
	assert.Equal(t, "1000.000000000", ts.String())

	// секунда на внешней опорной
	ts, err = c.Accumulate(200_000_000, 200_000_000)
	require.NoError(t, err)
	assert.Equal(t, "1001.000000000", ts.String())
	assert.Equal(t, uint64(1000*240_000_000+200_000_000), c.Cycles)

	// полсекунды обратно на внутренней
	before := c.Cycles
	ts, err = c.Accumulate(120_000_000, 240_000_000)
	require.NoError(t, err)
	assert.Equal(t, "1001.500000000", ts.String())
	assert.Greater(t, c.Cycles, before)
}

func TestTimebase_AlignAfterReferenceSwitch(t *testing.T) {
	tb := NewTimebase([]string{"ChA", "ChB"})
	_, err := tb.Mark(0, 10*240, 240)
	require.NoError(t, err)
	_, err = tb.Mark(0, 200, 200)
	require.NoError(t, err)

	// B впервые отмечается через полсекунды после A на той же опорной
	ts, err := tb.Mark(1, 100, 200)
	require.NoError(t, err)
	assert.Equal(t, "11.500000000", ts.String())
}
