package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateHz(t *testing.T) {
	// 10 МГц опорная, вход 1 Гц: 10e6 тактов на период
	hz, err := EstimateHz(10_000_000, 1, 10_000_000)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hz, 1e-12)

	// усреднение по 5 периодам
	hz, err = EstimateHz(200_000_000, 5, 1_000_000)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, hz, 1e-9)

	// periods == 0 трактуется как 1
	hz, err = EstimateHz(1000, 0, 10)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, hz, 1e-12)
}

func TestEstimateHz_Errors(t *testing.T) {
	_, err := EstimateHz(10_000_000, 1, 0)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = EstimateHz(0, 1, 100)
	assert.ErrorIs(t, err, ErrNoReference)
}

func TestEstimateHz_Monotonic(t *testing.T) {
	refs := []uint32{1_000, 12_000_000, 240_000_000}
	counts := []uint64{4, 5, 100, 12_345, 1 << 32, 1 << 40}
	for _, periods := range []uint32{1, 3} {
		for _, ref := range refs {
			prev := 0.0
			for i, c := range counts {
				hz, err := EstimateHz(ref, periods, c)
				require.NoError(t, err)
				assert.Greater(t, hz, 0.0)
				if i > 0 {
					assert.Less(t, hz, prev, "частота должна убывать с ростом отсчёта")
				}
				prev = hz
			}
		}
		for _, c := range counts {
			prev := 0.0
			for _, ref := range refs {
				hz, err := EstimateHz(ref, periods, c)
				require.NoError(t, err)
				assert.Greater(t, hz, prev, "частота должна расти с опорной")
				prev = hz
			}
		}
	}
}
