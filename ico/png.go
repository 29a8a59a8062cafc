// Package ico draws the window icon.
package ico

import (
	"image"
	"sync"

	"github.com/fogleman/gg"
)

const Size = 32

var (
	once sync.Once
	icon image.Image
)

// Icon returns an octave of piano keys on a rounded square.
func Icon() image.Image {
	once.Do(func() {
		icon = paint(Size)
	})
	return icon
}

func paint(size int) image.Image {
	s := float64(size)
	dc := gg.NewContext(size, size)
	dc.DrawRoundedRectangle(0, 0, s, s, s/8)
	dc.SetRGB(.1, .1, .1)
	dc.Fill()
	w := s / 8
	top, h := s/8, s*3/4
	for i := 0; i < 7; i++ {
		dc.DrawRectangle(w/2+float64(i)*w, top, w-1, h)
		dc.SetRGB(1, 1, 1)
		dc.Fill()
	}
	for _, i := range []int{1, 2, 4, 5, 6} {
		dc.DrawRectangle(w/2+float64(i)*w-w/3, top, w*2/3, h*3/5)
		dc.SetRGB(0, 0, 0)
		dc.Fill()
	}
	return dc.Image()
}
