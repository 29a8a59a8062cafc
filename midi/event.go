package midi

import (
	"fmt"
)

// Kind is the status nibble for channel events and the meta type for meta events.
type Kind byte

const (
	KindNoteOff Kind = 0x8 | iota
	KindNoteOn
	KindPolyPressure
	KindControlChange
	KindProgramChange
	KindChannelPressure
	KindPitchBend
)

const (
	KindTempo Kind = 0x51
)

const (
	metaStatus    = 0xFF
	sysExStatus   = 0xF0
	escapeStatus  = 0xF7
	metaTempo     = 0x51
	metaEndTrack  = 0x2F
	tempoLength   = 3
	maxDataByte   = 0x7F
	maxPitchBend  = 0x3FFF
	pitchBendZero = 0x2000
)

// Event is one of NoteOn, NoteOff, ControlChange, ProgramChange, PitchBend,
// ChannelPressure, PolyPressure or Tempo. The set is closed.
type Event interface {
	Tick() uint32
	Kind() Kind
	String() string
	event()
}

type NoteOn struct {
	Time     uint32
	Channel  uint8
	Note     uint8
	Velocity uint8
}

type NoteOff struct {
	Time     uint32
	Channel  uint8
	Note     uint8
	Velocity uint8
}

type ControlChange struct {
	Time       uint32
	Channel    uint8
	Controller uint8
	Value      uint8
}

type ProgramChange struct {
	Time    uint32
	Channel uint8
	Program uint8
}

// PitchBend carries the 14-bit bend value; 0x2000 is centered.
type PitchBend struct {
	Time    uint32
	Channel uint8
	Value   uint16
}

type ChannelPressure struct {
	Time     uint32
	Channel  uint8
	Pressure uint8
}

type PolyPressure struct {
	Time     uint32
	Channel  uint8
	Note     uint8
	Pressure uint8
}

type Tempo struct {
	Time                uint32
	MicrosecondsPerBeat uint32
}

func (e NoteOn) Tick() uint32          { return e.Time }
func (e NoteOff) Tick() uint32         { return e.Time }
func (e ControlChange) Tick() uint32   { return e.Time }
func (e ProgramChange) Tick() uint32   { return e.Time }
func (e PitchBend) Tick() uint32       { return e.Time }
func (e ChannelPressure) Tick() uint32 { return e.Time }
func (e PolyPressure) Tick() uint32    { return e.Time }
func (e Tempo) Tick() uint32           { return e.Time }

func (NoteOn) Kind() Kind          { return KindNoteOn }
func (NoteOff) Kind() Kind         { return KindNoteOff }
func (ControlChange) Kind() Kind   { return KindControlChange }
func (ProgramChange) Kind() Kind   { return KindProgramChange }
func (PitchBend) Kind() Kind       { return KindPitchBend }
func (ChannelPressure) Kind() Kind { return KindChannelPressure }
func (PolyPressure) Kind() Kind    { return KindPolyPressure }
func (Tempo) Kind() Kind           { return KindTempo }

func (NoteOn) event()          {}
func (NoteOff) event()         {}
func (ControlChange) event()   {}
func (ProgramChange) event()   {}
func (PitchBend) event()       {}
func (ChannelPressure) event() {}
func (PolyPressure) event()    {}
func (Tempo) event()           {}

// BPM returns the tempo in quarter notes per minute.
func (e Tempo) BPM() float64 {
	if e.MicrosecondsPerBeat == 0 {
		return 0
	}
	return 60000000 / float64(e.MicrosecondsPerBeat)
}

func (e NoteOn) String() string {
	return fmt.Sprintf("{%d %02d NoteOn %s:%d}", e.Time, e.Channel, NoteName(e.Note), e.Velocity)
}

func (e NoteOff) String() string {
	return fmt.Sprintf("{%d %02d NoteOff %s}", e.Time, e.Channel, NoteName(e.Note))
}

func (e ControlChange) String() string {
	return fmt.Sprintf("{%d %02d Control %s %d}", e.Time, e.Channel, ControlName(e.Controller), e.Value)
}

func (e ProgramChange) String() string {
	return fmt.Sprintf("{%d %02d Program %d}", e.Time, e.Channel, e.Program)
}

func (e PitchBend) String() string {
	return fmt.Sprintf("{%d %02d PitchBend %+d}", e.Time, e.Channel, int(e.Value)-pitchBendZero)
}

func (e ChannelPressure) String() string {
	return fmt.Sprintf("{%d %02d Channel %d}", e.Time, e.Channel, e.Pressure)
}

func (e PolyPressure) String() string {
	return fmt.Sprintf("{%d %02d Polyphonic %s %d}", e.Time, e.Channel, NoteName(e.Note), e.Pressure)
}

func (e Tempo) String() string {
	return fmt.Sprintf("{%d # Tempo %.2f}", e.Time, e.BPM())
}

var (
	controlName = map[uint8]string{
		0:   "Bank Select",
		1:   "Modulation Wheel",
		2:   "Breath Controller",
		4:   "Foot Controller",
		5:   "Portamento Time",
		6:   "Data Entry",
		7:   "Channel Volume",
		8:   "Balance",
		10:  "Pan",
		11:  "Expression Controller",
		64:  "Sustain On/Off",
		65:  "Portamento On/Off",
		66:  "Sostenuto On/Off",
		67:  "Soft Pedal On/Off",
		91:  "Effects 1 Depth",
		93:  "Effects 3 Depth",
		120: "All Sound Off",
		121: "Reset All Controllers",
		123: "All Notes Off",
	}
	noteName = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
)

func ControlName(c uint8) string {
	if v, ok := controlName[c]; ok {
		return v
	}
	return fmt.Sprintf("Control0x%x", c)
}

// NoteName returns the scientific pitch name of a note number; 60 is C4.
func NoteName(n uint8) string {
	return fmt.Sprintf("%s%d", noteName[n%12], int(n)/12-1)
}
