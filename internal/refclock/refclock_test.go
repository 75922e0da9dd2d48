package refclock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_PublishLoad(t *testing.T) {
	c := New(240_000_000)
	s := c.Load()
	assert.Equal(t, Snapshot{FrequencyHz: 240_000_000, Kind: Internal}, s)
	assert.True(t, s.Valid())

	ok := c.Publish(Snapshot{FrequencyHz: 200_000_000, Kind: External, Stable: true})
	assert.True(t, ok)
	assert.Equal(t, Snapshot{FrequencyHz: 200_000_000, Kind: External, Stable: true}, c.Load())

	assert.False(t, c.Publish(Snapshot{FrequencyHz: 0, Kind: Internal}), "нулевая частота не публикуется")
	assert.Equal(t, uint32(200_000_000), c.Load().FrequencyHz)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "internal", Internal.String())
	assert.Equal(t, "external", External.String())
	assert.Equal(t, "unknown", Kind(7).String())
}

func TestClock_ConcurrentReadersSeeConsistentPairs(t *testing.T) {
	const (
		intHz = 240_000_000
		extHz = 200_000_000
	)
	c := New(intHz)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20000; i++ {
			if i%2 == 0 {
				c.Publish(Snapshot{FrequencyHz: extHz, Kind: External, Stable: true})
			} else {
				c.Publish(Snapshot{FrequencyHz: intHz, Kind: Internal, Stable: true})
			}
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := c.Load()
				if !s.Valid() {
					t.Error("читатель увидел нулевую частоту")
					return
				}
				if (s.Kind == External) != (s.FrequencyHz == extHz) {
					t.Errorf("разорванный снимок: %+v", s)
					return
				}
			}
		}()
	}
	wg.Wait()
}
