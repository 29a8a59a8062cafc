// Package notes is the JSON note-list form of a sequence:
//
//	{"tracks": [{"notes": [{"note": 60, "time": 0, "duration": 1, "velocity": 100}]}]}
package notes

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/pshvedko/pianola/midi"
	"github.com/pshvedko/pianola/tempo"
)

type Note struct {
	Note     uint8   `json:"note"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Velocity uint8   `json:"velocity"`
	Channel  uint8   `json:"channel,omitempty"`
}

type Track struct {
	Notes []Note `json:"notes"`
}

type Document struct {
	Tracks []Track `json:"tracks"`
}

// Unit is the unit of note times and durations in a document.
type Unit int

const (
	// UnitBeats counts beats; a document in beats encodes back to the same ticks.
	UnitBeats Unit = iota
	// UnitSeconds applies the tempo map.
	UnitSeconds
)

func (u Unit) String() string {
	if u == UnitSeconds {
		return "seconds"
	}
	return "beats"
}

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(s) {
	case "beats", "beat", "":
		return UnitBeats, nil
	case "seconds", "second", "s":
		return UnitSeconds, nil
	}
	return 0, errors.Errorf("unknown unit %q", s)
}

// FromSequence pairs the notes of every track of s. Timecode files have no
// beats, so in UnitBeats their times count beats of the default tempo.
func FromSequence(s *midi.Sequence, u Unit) Document {
	convert := func(tick uint32) float64 {
		return float64(tick) / float64(s.Division.TicksPerBeat())
	}
	if u == UnitSeconds || s.Division.IsSMPTE() {
		c := s.Converter()
		convert = c.Seconds
		if u == UnitBeats {
			convert = func(tick uint32) float64 {
				return c.Seconds(tick) * 1e6 / tempo.DefaultMicrosecondsPerBeat
			}
		}
	}
	d := Document{Tracks: make([]Track, len(s.Tracks))}
	for i, t := range s.Tracks {
		spans := midi.Pair(t)
		notes := make([]Note, 0, len(spans))
		for _, p := range spans {
			start := convert(p.Start)
			notes = append(notes, Note{
				Note:     p.Note,
				Time:     start,
				Duration: convert(p.End) - start,
				Velocity: p.Velocity,
				Channel:  p.Channel,
			})
		}
		d.Tracks[i].Notes = notes
	}
	return d
}

// MIDI encodes the document, its times taken as beats.
func (d Document) MIDI(opts ...midi.EncodeOption) ([]byte, error) {
	tracks := make([][]midi.Note, len(d.Tracks))
	for i, t := range d.Tracks {
		tracks[i] = make([]midi.Note, len(t.Notes))
		for j, n := range t.Notes {
			tracks[i][j] = midi.Note{
				Pitch:    n.Note,
				Velocity: n.Velocity,
				Channel:  n.Channel,
				Time:     n.Time,
				Duration: n.Duration,
			}
		}
	}
	return midi.Encode(tracks, opts...)
}

// Count returns the number of notes over all tracks.
func (d Document) Count() (n int) {
	for _, t := range d.Tracks {
		n += len(t.Notes)
	}
	return
}

func Read(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, errors.Wrap(err, "notes: decode")
	}
	return d, nil
}

func Write(w io.Writer, d Document) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return errors.Wrap(e.Encode(d), "notes: encode")
}
