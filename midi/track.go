package midi

import (
	"fmt"

	"github.com/pshvedko/pianola/tempo"
)

type Format uint16

const (
	SingleTrack Format = iota
	MultiTrack
	MultiSong
)

func (f Format) String() string {
	switch f {
	case SingleTrack:
		return "single-track"
	case MultiTrack:
		return "multi-track"
	case MultiSong:
		return "multi-song"
	}
	return fmt.Sprintf("Format%d", uint16(f))
}

// Division is the raw time division word of the header. With the high bit
// clear it holds ticks per beat; with it set the high byte is a negative
// frame rate and the low byte ticks per frame.
type Division uint16

// Metrical returns a ticks-per-beat division.
func Metrical(ticksPerBeat uint16) Division {
	return Division(ticksPerBeat & 0x7FFF)
}

// Timecode returns a SMPTE division; fps is one of 24, 25, 29 (29.97) or 30.
func Timecode(fps int8, ticksPerFrame uint8) Division {
	return Division(uint16(uint8(-fps))<<8 | uint16(ticksPerFrame))
}

func (d Division) IsSMPTE() bool {
	return d&0x8000 != 0
}

// TicksPerBeat is zero for SMPTE divisions.
func (d Division) TicksPerBeat() uint16 {
	if d.IsSMPTE() {
		return 0
	}
	return uint16(d)
}

// FramesPerSecond is zero for metrical divisions. The 29 rate is drop-frame 29.97.
func (d Division) FramesPerSecond() float64 {
	if !d.IsSMPTE() {
		return 0
	}
	fps := -int8(uint8(d >> 8))
	if fps == 29 {
		return 29.97
	}
	return float64(fps)
}

func (d Division) TicksPerFrame() uint8 {
	if !d.IsSMPTE() {
		return 0
	}
	return uint8(d)
}

// TicksPerSecond is the constant tick rate of a SMPTE division, zero otherwise.
func (d Division) TicksPerSecond() float64 {
	return d.FramesPerSecond() * float64(d.TicksPerFrame())
}

// Base returns the time base the tempo package converts ticks with.
func (d Division) Base() tempo.Base {
	if d.IsSMPTE() {
		return tempo.Base{TicksPerSecond: d.TicksPerSecond()}
	}
	return tempo.Base{TicksPerBeat: d.TicksPerBeat()}
}

func (d Division) String() string {
	if d.IsSMPTE() {
		return fmt.Sprintf("%g fps x %d ticks", d.FramesPerSecond(), d.TicksPerFrame())
	}
	return fmt.Sprintf("%d ticks/beat", d.TicksPerBeat())
}

// Track holds events ordered by tick, equal ticks in file order.
type Track struct {
	Events []Event
}

// End returns the tick of the last event.
func (t Track) End() uint32 {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].Tick()
}

// Sequence is a decoded file. It is not modified after decoding.
type Sequence struct {
	Format     Format
	TrackCount uint16
	Division   Division
	Tracks     []Track
	Tempo      tempo.Map
}

// End returns the tick of the last event over all tracks.
func (s *Sequence) End() uint32 {
	var end uint32
	for _, t := range s.Tracks {
		if e := t.End(); e > end {
			end = e
		}
	}
	return end
}

// Converter returns the tick to seconds converter of the sequence.
func (s *Sequence) Converter() *tempo.Converter {
	return tempo.NewConverter(s.Division.Base(), s.Tempo)
}

// Duration returns the time of the last event in seconds.
func (s *Sequence) Duration() float64 {
	return s.Converter().Seconds(s.End())
}
