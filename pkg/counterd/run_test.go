package counterd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiwa/timecard-mini/tc-counter/internal/config"
	"github.com/shiwa/timecard-mini/tc-counter/internal/refclock"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func replayConfig(t *testing.T, lines ...string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fifo.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	cfg := config.Default()
	cfg.Source.Kind = "replay"
	cfg.Source.Path = path
	cfg.Supervisor.Interval = "1ms"
	return cfg
}

func TestRunDaemon_ReplayCount(t *testing.T) {
	cfg := replayConfig(t,
		"# ChA и ChB по одному периоду в 2000 тактов",
		"0\t0xFFFFFC19",
		"1\t0xFFFFFC19",
		"0\t0xFFFFFC19",
	)
	cfg.Counter.OutputMode = "count"

	sink := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	type result struct {
		stats Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		st, err := RunDaemon(ctx, cfg, Options{Quiet: true, Sink: sink, NoHardware: true})
		done <- result{st, err}
	}()

	require.Eventually(t, func() bool { return strings.Count(sink.String(), "\n") == 4 }, 5*time.Second, time.Millisecond)
	cancel()
	res := <-done
	assert.ErrorIs(t, res.err, context.Canceled)

	out := sink.String()
	assert.True(t, strings.HasPrefix(out, "COUNT\t CHANNEL\n"), out)
	assert.Equal(t, 2, strings.Count(out, "2000\t ChA\n"))
	assert.Equal(t, 1, strings.Count(out, "2000\t ChB\n"))
	assert.Equal(t, uint64(3), res.stats.Samples)
	assert.Equal(t, uint64(3), res.stats.Rows)
	assert.Equal(t, uint64(0), res.stats.Skipped)
	assert.Equal(t, 0, res.stats.Transitions)
	assert.Equal(t, refclock.Internal, res.stats.Reference.Kind)
	assert.Equal(t, uint32(240_000_000), res.stats.Reference.FrequencyHz)
}

func TestRunDaemon_ReplayErrorStops(t *testing.T) {
	cfg := replayConfig(t, "7\t0x1")
	_, err := RunDaemon(context.Background(), cfg, Options{Quiet: true, Sink: &syncBuffer{}, NoHardware: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestRunDaemon_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Kind = "usb"
	_, err := RunDaemon(context.Background(), cfg, Options{Quiet: true, NoHardware: true})
	assert.Error(t, err)

	_, err = RunDaemon(context.Background(), nil, Options{})
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Source.Path = ""
	_, err = RunDaemon(context.Background(), cfg, Options{Quiet: true, NoHardware: true})
	assert.Error(t, err)
}
