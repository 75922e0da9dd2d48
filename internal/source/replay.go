package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Replay — воспроизведение записанных слов FIFO из файла.
// Формат строки: "<канал>\t<слово>", слово десятичное или 0x-шестнадцатеричное;
// пустые строки и строки с '#' пропускаются. Слова раскладываются по очередям каналов.
type Replay struct {
	path   string
	queues []*Queue
	rc     io.ReadCloser
}

// NewReplay открывает файл записи для n каналов.
func NewReplay(path string, names []string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay open %s: %w", path, err)
	}
	return newReplay(path, f, names), nil
}

func newReplay(path string, rc io.ReadCloser, names []string) *Replay {
	r := &Replay{path: path, rc: rc}
	for _, n := range names {
		r.queues = append(r.queues, NewQueue(n, 0))
	}
	return r
}

// Sources возвращает источники каналов в порядке имён.
func (r *Replay) Sources() []ChannelSource {
	out := make([]ChannelSource, len(r.queues))
	for i, q := range r.queues {
		out[i] = q
	}
	return out
}

// Run читает файл и раскладывает слова по очередям, пока файл не кончится или ctx не отменён.
// Блокируется на полной очереди, поэтому порядок слов внутри канала сохраняется.
func (r *Replay) Run(ctx context.Context) error {
	sc := bufio.NewScanner(r.rc)
	line := 0
	for sc.Scan() {
		line++
		ch, word, ok, err := parseReplayLine(sc.Text())
		if err != nil {
			return fmt.Errorf("replay %s:%d: %w", r.path, line, err)
		}
		if !ok {
			continue
		}
		if ch < 0 || ch >= len(r.queues) {
			return fmt.Errorf("replay %s:%d: channel %d out of range", r.path, line, ch)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r.queues[ch].ch <- word:
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("replay %s: %w", r.path, err)
	}
	return nil
}

// Close закрывает файл
func (r *Replay) Close() error {
	if r.rc == nil {
		return nil
	}
	return r.rc.Close()
}

func parseReplayLine(s string) (ch int, word uint32, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return 0, 0, false, nil
	}
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, false, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	ch, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, false, fmt.Errorf("channel: %w", err)
	}
	w, err := strconv.ParseUint(fields[1], 0, 32)
	if err != nil {
		return 0, 0, false, fmt.Errorf("word: %w", err)
	}
	return ch, uint32(w), true, nil
}
