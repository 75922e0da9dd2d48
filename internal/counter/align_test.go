package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	t.Run("first channel becomes origin", func(t *testing.T) {
		chs := NewChannels([]string{"ChA", "ChB"})
		var m FirstSensed
		Align(1, &m, chs)
		id, ok := m.Get()
		require.True(t, ok)
		assert.Equal(t, 1, id)
		assert.Zero(t, chs[1].Cycles)
	})

	t.Run("late channel takes origin value once", func(t *testing.T) {
		chs := NewChannels([]string{"ChA", "ChB"})
		var m FirstSensed
		Align(0, &m, chs)
		chs[0].Cycles = 5000
		Align(1, &m, chs)
		assert.Equal(t, uint64(5000), chs[1].Cycles)

		chs[0].Cycles = 9000
		chs[1].Cycles = 5100
		Align(1, &m, chs)
		assert.Equal(t, uint64(5100), chs[1].Cycles, "повторное выравнивание не допускается")
	})

	t.Run("origin is never realigned", func(t *testing.T) {
		chs := NewChannels([]string{"ChA", "ChB"})
		var m FirstSensed
		Align(0, &m, chs)
		chs[1].Cycles = 77
		Align(0, &m, chs)
		assert.Zero(t, chs[0].Cycles)
	})
}

func TestTimebase_SharedTimeline(t *testing.T) {
	// A начинает на глобальном такте 100, B — на такте 400, когда у A накоплено X.
	const hz = 1000
	tb := NewTimebase([]string{"ChA", "ChB"})

	_, err := tb.Mark(0, 100, hz)
	require.NoError(t, err)
	_, err = tb.Mark(0, 300, hz)
	require.NoError(t, err)
	x := tb.Channels[0].Cycles
	assert.Equal(t, uint64(400), x)

	ts, err := tb.Mark(1, 250, hz)
	require.NoError(t, err)
	assert.Equal(t, x+250, tb.Channels[1].Cycles)
	assert.Equal(t, Timestamp{Seconds: 0, Fraction: 0.65}, ts)

	origin, ok := tb.Origin()
	require.True(t, ok)
	assert.Equal(t, 0, origin)

	ts, err = tb.Mark(1, 1000, hz)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ts.Seconds)
	assert.InDelta(t, 0.65, ts.Fraction, 1e-12)
}

func TestTimebase_ZeroReferenceKeepsMarker(t *testing.T) {
	tb := NewTimebase([]string{"ChA", "ChB"})
	_, err := tb.Mark(1, 100, 0)
	assert.ErrorIs(t, err, ErrNoReference)
	_, ok := tb.Origin()
	assert.False(t, ok)
}
