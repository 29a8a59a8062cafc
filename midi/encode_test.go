package midi

import (
	"bytes"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/pshvedko/pianola/tempo"
)

func quantize(t float64) float64 {
	return math.Round(t*EncodeDivision) / EncodeDivision
}

func TestEncodeRoundTrip(t *testing.T) {
	in := [][]Note{
		{
			{Pitch: 60, Velocity: 100, Time: 0, Duration: 0.5},
			{Pitch: 64, Velocity: 90, Time: 0.5, Duration: 0.25},
			{Pitch: 67, Velocity: 80, Time: 1.3337, Duration: 1.0001},
		},
		{
			{Pitch: 36, Velocity: 127, Channel: 9, Time: 0.1, Duration: 2},
			{Pitch: 38, Velocity: 1, Channel: 9, Time: 2.0, Duration: 0.333},
		},
	}
	b, err := Encode(in)
	require.NoError(t, err)

	s, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, MultiTrack, s.Format)
	assert.Equal(t, uint16(2), s.TrackCount)
	assert.Equal(t, Metrical(EncodeDivision), s.Division)
	assert.Empty(t, s.Tempo)
	require.Len(t, s.Tracks, 2)

	for i, notes := range in {
		spans := Pair(s.Tracks[i])
		require.Len(t, spans, len(notes))
		for j, n := range notes {
			got := spans[j]
			assert.Equal(t, n.Pitch, got.Note)
			assert.Equal(t, n.Velocity, got.Velocity)
			assert.Equal(t, n.Channel, got.Channel)
			start := float64(got.Start) / EncodeDivision
			end := float64(got.End) / EncodeDivision
			assert.InDelta(t, quantize(n.Time), start, 1.0/EncodeDivision)
			assert.InDelta(t, quantize(n.Duration), end-start, 1.0/EncodeDivision)
		}
	}
}

func TestEncodeNoteOffFirstAtEqualTick(t *testing.T) {
	b, err := Encode([][]Note{{
		{Pitch: 60, Velocity: 100, Time: 0, Duration: 1},
		{Pitch: 60, Velocity: 100, Time: 1, Duration: 1},
	}})
	require.NoError(t, err)
	s, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, []Event{
		NoteOn{Time: 0, Note: 60, Velocity: 100},
		NoteOff{Time: 480, Note: 60},
		NoteOn{Time: 480, Note: 60, Velocity: 100},
		NoteOff{Time: 960, Note: 60},
	}, s.Tracks[0].Events)
}

func TestEncodeZeroDurationAndVelocity(t *testing.T) {
	b, err := Encode([][]Note{{{Pitch: 70, Time: 0.25}}})
	require.NoError(t, err)
	s, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, []Span{
		{Note: 70, Velocity: DefaultVelocity, Start: 120, End: 121},
	}, Pair(s.Tracks[0]))
}

func TestEncodeBytes(t *testing.T) {
	b, err := Encode([][]Note{{{Pitch: 0x3C, Velocity: 0x40, Time: 0, Duration: 1}}})
	require.NoError(t, err)
	want := []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 1, 0, 1, 0x01, 0xE0,
		'M', 'T', 'r', 'k', 0, 0, 0, 13,
		0x00, 0x90, 0x3C, 0x40,
		0x83, 0x60, 0x80, 0x3C, 0x00,
		0x00, 0xFF, 0x2F, 0x00,
	}
	assert.Equal(t, want, b)
}

func TestEncodeWithTempo(t *testing.T) {
	b, err := Encode([][]Note{
		{{Pitch: 60, Velocity: 100, Time: 1, Duration: 1}},
		{{Pitch: 48, Velocity: 100, Time: 0, Duration: 2}},
	}, WithTempo(1000000))
	require.NoError(t, err)
	s, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, tempo.Map{{Tick: 0, MicrosecondsPerBeat: 1000000}}, s.Tempo)
	assert.InDelta(t, 2.0, s.Duration(), 1e-9)
}

func TestEncodeInvalid(t *testing.T) {
	cases := []Note{
		{Pitch: 128, Velocity: 1},
		{Pitch: 1, Velocity: 200},
		{Pitch: 1, Channel: 16},
		{Pitch: 1, Time: -1},
		{Pitch: 1, Duration: math.NaN()},
		{Pitch: 1, Time: math.Inf(1)},
		{Pitch: 1, Time: 1e6},
	}
	for _, n := range cases {
		_, err := Encode([][]Note{{n}})
		assert.True(t, errors.Is(err, ErrInvalidNote), "%+v: %v", n, err)
	}
}

func TestEncodeReadableByGomidi(t *testing.T) {
	b, err := Encode([][]Note{
		{
			{Pitch: 60, Velocity: 100, Time: 0, Duration: 0.5},
			{Pitch: 62, Velocity: 100, Time: 0.5, Duration: 0.5},
		},
		{
			{Pitch: 48, Velocity: 70, Channel: 2, Time: 0, Duration: 1},
		},
	}, WithTempo(600000))
	require.NoError(t, err)

	f, err := smf.ReadFrom(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, smf.MetricTicks(EncodeDivision), f.TimeFormat)
	require.Len(t, f.Tracks, 2)

	var ons, offs int
	var ch, key, vel uint8
	for _, tr := range f.Tracks {
		for _, e := range tr {
			switch {
			case e.Message.GetNoteOn(&ch, &key, &vel):
				ons++
			case e.Message.GetNoteOff(&ch, &key, &vel):
				offs++
			}
		}
	}
	assert.Equal(t, 3, ons)
	assert.Equal(t, 3, offs)
}
