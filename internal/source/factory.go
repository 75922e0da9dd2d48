package source

import (
	"fmt"

	"github.com/shiwa/timecard-mini/tc-counter/internal/config"
)

// Set — источники всех каналов и то, что нужно запустить/закрыть вместе с ними.
type Set struct {
	Sources []ChannelSource
	// Replay не nil для kind: replay; его Run нужно запустить в отдельной горутине.
	Replay *Replay
}

// Close закрывает все источники
func (s *Set) Close() error {
	var first error
	for _, src := range s.Sources {
		if err := src.Close(); err != nil && first == nil {
			first = err
		}
	}
	if s.Replay != nil {
		if err := s.Replay.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewFromConfig создаёт источники каналов по секции source конфига.
func NewFromConfig(c *config.Config, refHz func() uint32) (*Set, error) {
	names := c.ChannelNames()
	switch c.Source.Kind {
	case "replay":
		if c.Source.Path == "" {
			return nil, fmt.Errorf("replay: path required")
		}
		r, err := NewReplay(c.Source.Path, names)
		if err != nil {
			return nil, err
		}
		return &Set{Sources: r.Sources(), Replay: r}, nil
	case "pps":
		if len(c.Source.PPSIndex) != len(names) {
			return nil, fmt.Errorf("pps: %d pps_index entries for %d channels", len(c.Source.PPSIndex), len(names))
		}
		set := &Set{}
		for _, idx := range c.Source.PPSIndex {
			p, err := NewPPS(idx, refHz, c.Counter.AveragingPeriods)
			if err != nil {
				_ = set.Close()
				return nil, err
			}
			set.Sources = append(set.Sources, p)
		}
		return set, nil
	default:
		return nil, fmt.Errorf("unknown source kind: %s", c.Source.Kind)
	}
}
