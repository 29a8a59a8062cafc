package piano

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pshvedko/pianola/player"
)

type transport struct {
	status   player.Status
	position float64
}

func (t *transport) Play(from float64) error {
	t.status, t.position = player.Playing, from
	return nil
}

func (t *transport) Resume() error {
	t.status = player.Playing
	return nil
}

func (t *transport) Pause() error {
	t.status = player.Paused
	return nil
}

func (t *transport) Seek(at float64) error {
	t.position = at
	return nil
}

func (t *transport) Status() player.Status { return t.status }
func (t *transport) Position() float64     { return t.position }
func (t *transport) Duration() float64     { return 10 }
func (t *transport) Scale() float64        { return 1 }

func TestWindowFinishReleasesKeys(t *testing.T) {
	k := NewKeyboard(800, 600)
	w := NewWindow(800, 600, "test", k, &transport{}, func(float64) {})
	k.NoteOn(60, 100)
	assert.False(t, w.over(0))

	w.Finish()
	w.Finish()
	assert.False(t, k.Pressed(60))
	assert.False(t, w.over(1), "bubbles still rising")
	assert.True(t, w.over(0))
}

func TestWindowWaitsForSynthToFade(t *testing.T) {
	w := NewWindow(800, 600, "test", NewKeyboard(800, 600), &transport{}, func(float64) {})
	w.synth = NewSynth(8000, 50)
	v, err := w.synth.Trigger(60, 100, 1, 0)
	require.NoError(t, err)
	v.Start()
	w.Finish()
	assert.False(t, w.over(0))

	v.Stop()
	out := make([]float64, int(2*Release*8000))
	w.synth.Render(out)
	assert.True(t, w.over(0))
}
