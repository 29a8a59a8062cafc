package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairRetriggerEndsOpenNote(t *testing.T) {
	tr := Track{Events: []Event{
		NoteOn{Time: 0, Note: 60, Velocity: 90},
		NoteOn{Time: 100, Note: 60, Velocity: 50},
		NoteOff{Time: 300, Note: 60},
	}}
	assert.Equal(t, []Span{
		{Note: 60, Velocity: 90, Start: 0, End: 100},
		{Note: 60, Velocity: 50, Start: 100, End: 300},
	}, Pair(tr))
}

func TestPairKeepsChannelsApart(t *testing.T) {
	tr := Track{Events: []Event{
		NoteOn{Time: 0, Channel: 0, Note: 60, Velocity: 90},
		NoteOn{Time: 10, Channel: 1, Note: 60, Velocity: 80},
		NoteOff{Time: 20, Channel: 1, Note: 60},
		ControlChange{Time: 25, Controller: 64, Value: 127},
		NoteOff{Time: 40, Channel: 0, Note: 60},
	}}
	assert.Equal(t, []Span{
		{Channel: 0, Note: 60, Velocity: 90, Start: 0, End: 40},
		{Channel: 1, Note: 60, Velocity: 80, Start: 10, End: 20},
	}, Pair(tr))
}

func TestPairDropsUnmatched(t *testing.T) {
	tr := Track{Events: []Event{
		NoteOff{Time: 0, Note: 62},
		NoteOn{Time: 5, Note: 64, Velocity: 70},
		NoteOn{Time: 10, Note: 67, Velocity: 70},
		NoteOff{Time: 20, Note: 67},
	}}
	assert.Equal(t, []Span{
		{Note: 67, Velocity: 70, Start: 10, End: 20},
	}, Pair(tr))
	assert.Empty(t, Pair(Track{}))
}
