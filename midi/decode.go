package midi

import (
	"io"

	"github.com/pkg/errors"

	"github.com/pshvedko/pianola/tempo"
)

var (
	headerTag = [4]byte{'M', 'T', 'h', 'd'}
	trackTag  = [4]byte{'M', 'T', 'r', 'k'}
)

const headerSize = 6

// Read decodes a whole file from r.
func Read(r io.Reader) (*Sequence, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "midi: read")
	}
	return Decode(b)
}

// Decode parses the header and every track chunk of b. On a *FormatError
// no sequence is returned.
func Decode(b []byte) (*Sequence, error) {
	r := NewReader(b)
	s, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}
	var changes []tempo.Change
	for i := 0; i < int(s.TrackCount); i++ {
		start := r.Pos()
		tag, err := r.ReadTag()
		if err != nil {
			return nil, &FormatError{Offset: start, Track: i, Err: err}
		}
		if tag != trackTag {
			return nil, &FormatError{Offset: start, Track: i, Err: errors.Wrapf(ErrBadMagic, "%q", tag[:])}
		}
		n, err := r.ReadUint32()
		if err != nil {
			return nil, &FormatError{Offset: r.Pos(), Track: i, Err: err}
		}
		if uint64(n) > uint64(r.Len()) {
			return nil, &FormatError{Offset: r.Pos(), Track: i, Err: errors.Wrapf(ErrTruncated, "chunk of %d bytes", n)}
		}
		base := r.Pos()
		body, _ := r.ReadBytes(int(n))
		t, c, err := decodeTrack(body, base, i)
		if err != nil {
			return nil, err
		}
		s.Tracks = append(s.Tracks, t)
		changes = append(changes, c...)
	}
	s.Tempo = tempo.NewMap(changes)
	return s, nil
}

func decodeHeader(r *Reader) (*Sequence, error) {
	fail := func(err error) (*Sequence, error) {
		return nil, &FormatError{Offset: r.Pos(), Track: -1, Err: err}
	}
	tag, err := r.ReadTag()
	if err != nil {
		return fail(err)
	}
	if tag != headerTag {
		return nil, &FormatError{Offset: 0, Track: -1, Err: errors.Wrapf(ErrBadMagic, "%q", tag[:])}
	}
	n, err := r.ReadUint32()
	if err != nil {
		return fail(err)
	}
	if n != headerSize {
		return fail(errors.Wrapf(ErrBadHeaderLength, "expected %d, was %d", headerSize, n))
	}
	s := &Sequence{}
	var u uint16
	if u, err = r.ReadUint16(); err != nil {
		return fail(err)
	}
	s.Format = Format(u)
	if s.TrackCount, err = r.ReadUint16(); err != nil {
		return fail(err)
	}
	if u, err = r.ReadUint16(); err != nil {
		return fail(err)
	}
	s.Division = Division(u)
	if s.Division.TicksPerBeat() == 0 && s.Division.TicksPerSecond() == 0 {
		return fail(ErrBadDivision)
	}
	return s, nil
}

// decodeTrack parses one chunk body. base is the file offset of body.
func decodeTrack(body []byte, base, track int) (Track, []tempo.Change, error) {
	r := NewReader(body)
	var t Track
	var changes []tempo.Change
	var at uint32
	var running byte
	fail := func(err error) (Track, []tempo.Change, error) {
		return Track{}, nil, &FormatError{Offset: base + r.Pos(), Track: track, Err: err}
	}
	for r.Len() > 0 {
		delta, err := r.ReadVarUint32()
		if err != nil {
			return fail(err)
		}
		at += delta
		status, err := r.PeekByte()
		if err != nil {
			return fail(err)
		}
		if status < 0x80 {
			if running == 0 {
				return fail(ErrRunningStatus)
			}
			status = running
		} else {
			_ = r.Skip(1)
			if status < sysExStatus {
				running = status
			}
		}
		switch {
		case status < sysExStatus:
			e, err := decodeChannel(r, status, at)
			if err != nil {
				return fail(err)
			}
			t.Events = append(t.Events, e)
		case status == metaStatus:
			typ, err := r.ReadByte()
			if err != nil {
				return fail(err)
			}
			n, err := r.ReadVarUint32()
			if err != nil {
				return fail(err)
			}
			switch {
			case typ == metaTempo && n == tempoLength:
				us, err := r.ReadUint24()
				if err != nil {
					return fail(err)
				}
				changes = append(changes, tempo.Change{Tick: at, MicrosecondsPerBeat: us})
				t.Events = append(t.Events, Tempo{Time: at, MicrosecondsPerBeat: us})
				continue
			}
			if err = r.Skip(int(n)); err != nil {
				return fail(err)
			}
			if typ == metaEndTrack {
				return t, changes, nil
			}
		case status == sysExStatus, status == escapeStatus:
			n, err := r.ReadVarUint32()
			if err != nil {
				return fail(err)
			}
			if err = r.Skip(int(n)); err != nil {
				return fail(err)
			}
		default:
			return fail(errors.Wrapf(ErrUnsupportedStatus, "0x%X", status))
		}
	}
	return t, changes, nil
}

func readData(r *Reader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b > maxDataByte {
		return 0, ErrDataByte
	}
	return b, nil
}

func decodeChannel(r *Reader, status byte, at uint32) (Event, error) {
	kind := Kind(status >> 4)
	ch := status & 0x0F
	a, err := readData(r)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindProgramChange:
		return ProgramChange{Time: at, Channel: ch, Program: a}, nil
	case KindChannelPressure:
		return ChannelPressure{Time: at, Channel: ch, Pressure: a}, nil
	}
	b, err := readData(r)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindNoteOn:
		if b == 0 {
			return NoteOff{Time: at, Channel: ch, Note: a}, nil
		}
		return NoteOn{Time: at, Channel: ch, Note: a, Velocity: b}, nil
	case KindNoteOff:
		return NoteOff{Time: at, Channel: ch, Note: a, Velocity: b}, nil
	case KindPolyPressure:
		return PolyPressure{Time: at, Channel: ch, Note: a, Pressure: b}, nil
	case KindControlChange:
		return ControlChange{Time: at, Channel: ch, Controller: a, Value: b}, nil
	case KindPitchBend:
		return PitchBend{Time: at, Channel: ch, Value: uint16(b)<<7 | uint16(a)}, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedStatus, "0x%X", status)
}
