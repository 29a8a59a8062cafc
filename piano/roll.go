package piano

import (
	"image"
	"io"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/pshvedko/pianola/player"
)

// palette colors notes by track.
var palette = [...][3]float64{
	{.20, .40, .80},
	{.85, .35, .20},
	{.25, .65, .30},
	{.60, .30, .70},
	{.90, .65, .10},
	{.15, .60, .65},
}

// Roll draws notes as a piano roll, time left to right and A0 to C8 bottom
// to top, with black-key rows shaded.
func Roll(notes []player.ScheduledNote, duration float64, width, height int) image.Image {
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	row := float64(height) / Keys
	for i := 0; i < Keys; i++ {
		if !IsWhite(uint8(Lowest + i)) {
			dc.DrawRectangle(0, float64(height)-float64(i+1)*row, float64(width), row)
			dc.SetRGB(.93, .93, .93)
			dc.Fill()
		}
	}
	if duration <= 0 {
		return dc.Image()
	}
	scale := float64(width) / duration
	for _, n := range notes {
		i := int(n.Pitch) - Lowest
		if i < 0 || i >= Keys {
			continue
		}
		c := palette[n.Track%len(palette)]
		dc.SetRGBA(c[0], c[1], c[2], .35+.65*float64(n.Velocity)/127)
		dc.DrawRectangle(n.Start*scale, float64(height)-float64(i+1)*row, n.Duration*scale+1, row)
		dc.Fill()
	}
	return dc.Image()
}

// WritePNG encodes the roll of notes to w.
func WritePNG(w io.Writer, notes []player.ScheduledNote, duration float64, width, height int) error {
	dc := gg.NewContextForImage(Roll(notes, duration, width, height))
	return errors.Wrap(dc.EncodePNG(w), "roll")
}
