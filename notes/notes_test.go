package notes

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pshvedko/pianola/midi"
)

var song = Document{Tracks: []Track{
	{Notes: []Note{
		{Note: 60, Time: 0, Duration: 1, Velocity: 100},
		{Note: 64, Time: 1, Duration: 0.5, Velocity: 90},
		{Note: 67, Time: 1.5, Duration: 2.25, Velocity: 80},
	}},
	{Notes: []Note{
		{Note: 36, Time: 0, Duration: 4, Velocity: 70, Channel: 9},
	}},
}}

func decode(t *testing.T, d Document, opts ...midi.EncodeOption) *midi.Sequence {
	b, err := d.MIDI(opts...)
	require.NoError(t, err)
	s, err := midi.Decode(b)
	require.NoError(t, err)
	return s
}

func TestBeatsRoundTrip(t *testing.T) {
	s := decode(t, song)
	assert.Equal(t, song, FromSequence(s, UnitBeats))
	assert.Equal(t, 4, song.Count())
}

func TestSecondsApplyTempo(t *testing.T) {
	s := decode(t, song, midi.WithTempo(1000000))
	d := FromSequence(s, UnitSeconds)
	require.Len(t, d.Tracks, 2)
	assert.Equal(t, Note{Note: 67, Time: 1.5, Duration: 2.25, Velocity: 80}, d.Tracks[0].Notes[2])

	d = FromSequence(decode(t, song), UnitSeconds)
	assert.Equal(t, Note{Note: 67, Time: 0.75, Duration: 1.125, Velocity: 80}, d.Tracks[0].Notes[2])
}

func TestEmptyTracksKeepTheirPlace(t *testing.T) {
	s := decode(t, Document{Tracks: []Track{{}, song.Tracks[0]}})
	d := FromSequence(s, UnitBeats)
	require.Len(t, d.Tracks, 2)
	assert.NotNil(t, d.Tracks[0].Notes)
	assert.Empty(t, d.Tracks[0].Notes)
	assert.Equal(t, song.Tracks[0], d.Tracks[1])
}

func TestJSONKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Document{Tracks: []Track{{Notes: []Note{
		{Note: 60, Time: 0.5, Duration: 1, Velocity: 100},
		{Note: 38, Time: 1, Duration: 0.25, Velocity: 90, Channel: 9},
	}}}}))

	var raw map[string][]map[string][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	n := raw["tracks"][0]["notes"]
	assert.Equal(t, map[string]any{"note": 60.0, "time": 0.5, "duration": 1.0, "velocity": 100.0}, n[0])
	assert.Equal(t, 9.0, n[1]["channel"])

	d, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), d.Tracks[0].Notes[1].Channel)
}

func TestReadRejectsBadInput(t *testing.T) {
	for _, in := range []string{`{"tracks": [`, `{"tracks": [{"notes": [{"note": 300}]}]}`, `[]`} {
		_, err := Read(strings.NewReader(in))
		assert.Error(t, err, in)
	}
	d, err := Read(strings.NewReader(`{"tracks": [{"notes": [{"note": 200, "velocity": 1}]}]}`))
	require.NoError(t, err)
	_, err = d.MIDI()
	assert.True(t, errors.Is(err, midi.ErrInvalidNote))
}

func TestParseUnit(t *testing.T) {
	for in, want := range map[string]Unit{"beats": UnitBeats, "": UnitBeats, "Seconds": UnitSeconds, "s": UnitSeconds} {
		u, err := ParseUnit(in)
		require.NoError(t, err)
		assert.Equal(t, want, u)
	}
	_, err := ParseUnit("bars")
	assert.Error(t, err)
	assert.Equal(t, "seconds", UnitSeconds.String())
}
