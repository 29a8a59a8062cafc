package piano

import (
	"image"
	"sync"

	"github.com/fogleman/gg"
)

const (
	// Lowest is the pitch of the leftmost key, A0.
	Lowest = 21
	// Keys is the number of keys from A0 to C8.
	Keys = 88
	// Whites is the number of white keys.
	Whites = 52
)

type mode byte

const (
	Off mode = iota
	On
)

// white tells for every pitch class from C whether its key is white.
var white = [12]bool{true, false, true, false, true, true, false, true, false, true, false, true}

// IsWhite reports whether pitch sits on a white key.
func IsWhite(pitch uint8) bool {
	return white[pitch%12]
}

type bubble struct {
	y    int
	r    byte
	done bool
}

type key struct {
	mode
	black     bool
	velocity  byte
	pinch     float64
	rectangle image.Rectangle
	trace     []bubble
}

func (k *key) X() float64 {
	return float64(k.rectangle.Min.X)
}

func (k *key) Y() float64 {
	return float64(k.rectangle.Min.Y) + k.pinch*k.H()/3
}

func (k *key) W() float64 {
	return float64(k.rectangle.Dx())
}

func (k *key) H() float64 {
	return float64(k.rectangle.Dy())
}

func (k *key) On(velocity byte) {
	if k.mode == On {
		k.trace[len(k.trace)-1].done = true
	}
	k.mode = On
	k.velocity = velocity
	k.pinch = 0
	k.trace = append(k.trace, bubble{r: velocity})
}

func (k *key) Off() {
	if k.mode == Off {
		return
	}
	k.mode = Off
	k.trace[len(k.trace)-1].done = true
}

// Pinch animates the key and the bubbles its notes leave above the keyboard.
// It returns the number of bubbles still on screen.
func (k *key) Pinch(dc *gg.Context) int {
	switch k.mode {
	case On:
		if k.pinch < 1 {
			k.pinch += .25
		}
	case Off:
		k.pinch /= 4
	}
	dc.SetRGBA(0, 0, 0, 1)
	trace := k.trace[:0]
	for _, b := range k.trace {
		r := int(b.r>>4) + 1
		y := b.y + k.rectangle.Min.Y - r
		if b.done && y < -r {
			continue
		}
		dc.DrawCircle(k.X()+k.W()/2, float64(y), float64(r))
		dc.Stroke()
		if b.done {
			b.y -= 2 * r
		}
		trace = append(trace, b)
	}
	k.trace = trace
	return len(k.trace)
}

func (k *key) Draw(dc *gg.Context) int {
	n := k.Pinch(dc)
	dc.SetRGBA(0, 0, 0, 1)
	dc.SetLineWidth(1)
	dc.DrawRectangle(k.X(), k.Y(), k.W(), k.H())
	if k.black {
		dc.Fill()
	} else {
		dc.Stroke()
	}
	return n
}

// Keyboard is an 88-key picture that follows note-on and note-off
// notifications. Notes outside the keyboard are ignored.
type Keyboard struct {
	sync.Mutex
	key [Keys]key
}

// NewKeyboard lays the keys out along the bottom of a width by height canvas.
func NewKeyboard(width, height int) *Keyboard {
	k := &Keyboard{}
	hook := image.Point{X: width % Whites / 2, Y: height / 20 * 18}
	size := image.Point{X: width / Whites, Y: height / 20}
	for i := range k.key {
		if IsWhite(uint8(Lowest + i)) {
			k.key[i].rectangle = image.Rectangle{Min: hook, Max: hook.Add(size)}
			hook.X += size.X
			continue
		}
		s := size.Div(5).Mul(4)
		s.X = s.X / 4 * 4
		s.Y = s.Y / 8 * 8
		min := hook.Sub(s.Div(2))
		k.key[i].black = true
		k.key[i].rectangle = image.Rectangle{Min: min, Max: min.Add(s)}
	}
	return k
}

func (k *Keyboard) index(pitch uint8) (int, bool) {
	i := int(pitch) - Lowest
	return i, i >= 0 && i < Keys
}

func (k *Keyboard) NoteOn(pitch, velocity uint8) {
	k.Lock()
	defer k.Unlock()
	if i, ok := k.index(pitch); ok {
		k.key[i].On(velocity)
	}
}

func (k *Keyboard) NoteOff(pitch uint8) {
	k.Lock()
	defer k.Unlock()
	if i, ok := k.index(pitch); ok {
		k.key[i].Off()
	}
}

// Pressed reports whether the key of pitch is down.
func (k *Keyboard) Pressed(pitch uint8) bool {
	k.Lock()
	defer k.Unlock()
	i, ok := k.index(pitch)
	return ok && k.key[i].mode == On
}

// Release lifts every key.
func (k *Keyboard) Release() {
	k.Lock()
	defer k.Unlock()
	for i := range k.key {
		k.key[i].Off()
	}
}

// Draw paints white keys under black ones and returns how many note
// bubbles are still moving.
func (k *Keyboard) Draw(dc *gg.Context) int {
	k.Lock()
	defer k.Unlock()
	n := 0
	for _, black := range []bool{false, true} {
		for i := range k.key {
			if k.key[i].black == black {
				n += k.key[i].Draw(dc)
			}
		}
	}
	return n
}
