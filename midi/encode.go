package midi

import (
	"cmp"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

const (
	// EncodeDivision is the ticks per beat of every encoded file.
	EncodeDivision = 480
	// DefaultVelocity replaces a zero velocity, which would read back as a note-off.
	DefaultVelocity = 100

	maxTick = 0x0FFFFFFF
)

// Note is one entry of a note list. Time and Duration are in beats of
// EncodeDivision ticks.
type Note struct {
	Pitch    uint8
	Velocity uint8
	Channel  uint8
	Time     float64
	Duration float64
}

func (n Note) validate() error {
	switch {
	case n.Pitch > maxDataByte:
		return errors.Wrapf(ErrInvalidNote, "pitch %d", n.Pitch)
	case n.Velocity > maxDataByte:
		return errors.Wrapf(ErrInvalidNote, "velocity %d", n.Velocity)
	case n.Channel > 0x0F:
		return errors.Wrapf(ErrInvalidNote, "channel %d", n.Channel)
	case math.IsNaN(n.Time) || math.IsInf(n.Time, 0) || n.Time < 0:
		return errors.Wrapf(ErrInvalidNote, "time %v", n.Time)
	case math.IsNaN(n.Duration) || math.IsInf(n.Duration, 0) || n.Duration < 0:
		return errors.Wrapf(ErrInvalidNote, "duration %v", n.Duration)
	case math.Round((n.Time+n.Duration)*EncodeDivision) >= maxTick:
		return errors.Wrapf(ErrInvalidNote, "end %v out of range", n.Time+n.Duration)
	}
	return nil
}

type encodeOptions struct {
	tempo uint32
}

type EncodeOption func(*encodeOptions)

// WithTempo writes one tempo event at the start of the first track.
// Without it the file plays at the default 120 beats per minute.
func WithTempo(microsecondsPerBeat uint32) EncodeOption {
	return func(o *encodeOptions) {
		o.tempo = microsecondsPerBeat
	}
}

// Encode writes a multi-track file with one track chunk per note list.
func Encode(tracks [][]Note, opts ...EncodeOption) ([]byte, error) {
	var o encodeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(tracks) > math.MaxUint16 {
		return nil, errors.Errorf("midi: %d tracks do not fit the header", len(tracks))
	}
	var w Writer
	_, _ = w.Write(headerTag[:])
	w.WriteUint32(headerSize)
	w.WriteUint16(uint16(MultiTrack))
	w.WriteUint16(uint16(len(tracks)))
	w.WriteUint16(EncodeDivision)
	for i, notes := range tracks {
		var us uint32
		if i == 0 {
			us = o.tempo
		}
		body, err := encodeTrack(notes, us)
		if err != nil {
			return nil, errors.Wrapf(err, "midi: track %d", i)
		}
		w.WriteChunk(trackTag, body)
	}
	return w.Bytes(), nil
}

type noteEvent struct {
	tick     uint32
	on       bool
	channel  uint8
	note     uint8
	velocity uint8
}

func ticks(t float64) uint32 {
	return uint32(math.Round(t * EncodeDivision))
}

// encodeTrack expands notes into note-on/note-off pairs ordered by tick.
// At equal ticks note-offs go first so a repeated pitch is not cut short.
func encodeTrack(notes []Note, tempo uint32) ([]byte, error) {
	events := make([]noteEvent, 0, 2*len(notes))
	for _, n := range notes {
		if err := n.validate(); err != nil {
			return nil, err
		}
		start, end := ticks(n.Time), ticks(n.Time+n.Duration)
		if end <= start {
			end = start + 1
		}
		velocity := n.Velocity
		if velocity == 0 {
			velocity = DefaultVelocity
		}
		events = append(events,
			noteEvent{tick: start, on: true, channel: n.Channel, note: n.Pitch, velocity: velocity},
			noteEvent{tick: end, channel: n.Channel, note: n.Pitch})
	}
	slices.SortStableFunc(events, func(a, b noteEvent) int {
		switch {
		case a.tick != b.tick:
			return cmp.Compare(a.tick, b.tick)
		case a.on == b.on:
			return 0
		case b.on:
			return -1
		}
		return 1
	})
	var w Writer
	if tempo > 0 {
		w.WriteVarUint32(0)
		_, _ = w.Write([]byte{metaStatus, metaTempo, tempoLength})
		w.WriteUint24(tempo)
	}
	var at uint32
	for _, e := range events {
		w.WriteVarUint32(e.tick - at)
		if e.on {
			_, _ = w.Write([]byte{byte(KindNoteOn)<<4 | e.channel, e.note, e.velocity})
		} else {
			_, _ = w.Write([]byte{byte(KindNoteOff)<<4 | e.channel, e.note, 0})
		}
		at = e.tick
	}
	w.WriteVarUint32(0)
	_, _ = w.Write([]byte{metaStatus, metaEndTrack, 0})
	return w.Bytes(), nil
}
