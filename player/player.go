// Package player schedules the notes of a decoded sequence against a clock
// and drives an external tone generator with them.
package player

import (
	"cmp"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"

	"github.com/pshvedko/pianola/midi"
)

// ToneGenerator makes sound for a single note. Duration and offset are in
// wall-clock seconds. The scheduler calls Start on the returned voice when
// the note is due and Stop once it has sounded for duration plus a release
// tail.
type ToneGenerator interface {
	Trigger(pitch, velocity uint8, duration, offset float64) (Voice, error)
}

type Voice interface {
	Start()
	Stop()
}

// Observer is told about every note the scheduler starts and ends.
type Observer interface {
	NoteOn(pitch, velocity uint8)
	NoteOff(pitch uint8)
}

// ScheduledNote is a paired note with its boundaries converted to song seconds.
type ScheduledNote struct {
	Track    int
	Channel  uint8
	Pitch    uint8
	Velocity uint8
	Start    float64
	Duration float64
}

func (n ScheduledNote) End() float64 {
	return n.Start + n.Duration
}

func (n ScheduledNote) String() string {
	return fmt.Sprintf("%s ch%d vel %d at %.3fs for %.3fs", midi.NoteName(n.Pitch), n.Channel+1, n.Velocity, n.Start, n.Duration)
}

// Timeline pairs the notes of every track of s and returns them ordered by
// start time, together with the duration of the sequence in seconds.
func Timeline(s *midi.Sequence) ([]ScheduledNote, float64) {
	c := s.Converter()
	var notes []ScheduledNote
	for i, t := range s.Tracks {
		k := c.Cursor()
		for _, p := range midi.Pair(t) {
			start := k.Seconds(p.Start)
			notes = append(notes, ScheduledNote{
				Track:    i,
				Channel:  p.Channel,
				Pitch:    p.Note,
				Velocity: p.Velocity,
				Start:    start,
				Duration: c.Seconds(p.End) - start,
			})
		}
	}
	slices.SortStableFunc(notes, byStart)
	return notes, s.Duration()
}

func byStart(a, b ScheduledNote) int {
	return cmp.Compare(a.Start, b.Start)
}

type Status int

const (
	Stopped Status = iota
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func clamp[T constraints.Float](v, lo, hi T) T {
	switch {
	case math.IsNaN(float64(v)) || v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
