package piano

import (
	"image"
	"io"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/hajimehoshi/ebiten"
	"github.com/hajimehoshi/ebiten/audio"
	"github.com/pkg/errors"

	"github.com/pshvedko/pianola/ico"
	"github.com/pshvedko/pianola/player"
)

const (
	seekStep  = 5.0
	tempoStep = 1.1
)

type draw struct {
	*gg.Context
}

type progress struct {
	x, y, w float64
}

type button struct {
	state bool
	click int
	time  time.Time
}

// Transport is what the window controls: the playback scheduler.
type Transport interface {
	Play(float64) error
	Resume() error
	Pause() error
	Seek(float64) error
	Status() player.Status
	Position() float64
	Duration() float64
	Scale() float64
}

// Window shows the keyboard and a progress bar and plays the synth stream.
// Space pauses and resumes, arrows seek, plus and minus change the tempo,
// F or a double click toggles fullscreen.
type Window struct {
	draw
	rgba      *image.RGBA
	title     string
	keys      *Keyboard
	transport Transport
	tempo     func(float64)
	synth     *Synth
	bar       progress
	button    map[ebiten.Key]bool
	mouse     map[ebiten.MouseButton]button
	done      chan struct{}
	once      sync.Once
}

// NewWindow draws k on a width by height canvas. tempo receives tempo scale
// changes, it may be debounced.
func NewWindow(width, height int, title string, k *Keyboard, t Transport, tempo func(float64)) *Window {
	p := &Window{
		rgba:      image.NewRGBA(image.Rectangle{Max: image.Point{X: width, Y: height}}),
		title:     title,
		keys:      k,
		transport: t,
		tempo:     tempo,
		button:    map[ebiten.Key]bool{},
		mouse:     map[ebiten.MouseButton]button{},
		done:      make(chan struct{}),
	}
	p.Context = gg.NewContextForRGBA(p.rgba)
	hook := width % Whites / 2
	p.bar.x = float64(hook)
	p.bar.y = float64(height - hook - 4)
	p.bar.w = float64(width - hook*2)
	return p
}

// Finish lifts every key and ends the window once the bubbles left on
// screen are gone and the synth has faded out.
func (p *Window) Finish() {
	p.once.Do(func() {
		close(p.done)
		p.keys.Release()
	})
}

func (p *Window) finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// over reports whether a finished window may close with bubbles still
// moving on screen.
func (p *Window) over(bubbles int) bool {
	if !p.finished() || bubbles > 0 {
		return false
	}
	return p.synth == nil || p.synth.Sounding() == 0
}

func (p *Window) KeyPressed(k ebiten.Key) bool {
	b := p.button[k]
	p.button[k] = ebiten.IsKeyPressed(k)
	return b && !p.button[k]
}

func (p *Window) MouseClicked(m ebiten.MouseButton, t time.Time) int {
	o := p.mouse[m]
	b := o.state
	o.state = ebiten.IsMouseButtonPressed(m)
	if b && !o.state {
		o.click++
		o.time = t
	} else if t.Sub(o.time) > 250*time.Millisecond {
		o.click = 0
		o.time = t
	}
	p.mouse[m] = o
	return o.click
}

func (p *Window) control() error {
	switch ebiten.IsFullscreen() {
	case true:
		if p.KeyPressed(ebiten.KeyEscape) || p.KeyPressed(ebiten.KeyF) {
			ebiten.SetFullscreen(false)
		}
	case false:
		if p.MouseClicked(ebiten.MouseButtonLeft, time.Now()) == 2 || p.KeyPressed(ebiten.KeyF) {
			ebiten.SetFullscreen(true)
		}
	}
	if p.finished() {
		return nil
	}
	var err error
	switch {
	case p.KeyPressed(ebiten.KeySpace):
		if p.transport.Status() == player.Playing {
			err = p.transport.Pause()
		} else {
			err = p.transport.Resume()
		}
	case p.KeyPressed(ebiten.KeyRight):
		err = p.seek(seekStep)
	case p.KeyPressed(ebiten.KeyLeft):
		err = p.seek(-seekStep)
	case p.KeyPressed(ebiten.KeyEqual), p.KeyPressed(ebiten.KeyKPAdd):
		p.tempo(p.transport.Scale() * tempoStep)
	case p.KeyPressed(ebiten.KeyMinus), p.KeyPressed(ebiten.KeyKPSubtract):
		p.tempo(p.transport.Scale() / tempoStep)
	}
	return err
}

func (p *Window) seek(step float64) error {
	err := p.transport.Seek(p.transport.Position() + step)
	var pe *player.PreconditionError
	if errors.As(err, &pe) {
		return nil
	}
	return err
}

func (p *Window) Update(e *ebiten.Image) error {
	if err := p.control(); err != nil {
		return err
	}
	p.SetRGBA(1, 1, 1, 1)
	p.Clear()
	n := p.keys.Draw(p.Context)
	if p.over(n) {
		return io.EOF
	}
	if d := p.transport.Duration(); d > 0 {
		p.SetRGBA(0, 0, 0, 1)
		p.DrawPoint(p.bar.x+p.transport.Position()/d*p.bar.w, p.bar.y, 3)
		p.Fill()
	}
	return e.ReplacePixels(p.rgba.Pix)
}

func (p *Window) Layout(int, int) (int, int) {
	return p.Width(), p.Height()
}

// Run opens the window, streams synth to the audio device and starts playing
// from the beginning. It returns when the window is closed or playback ends.
func (p *Window) Run(synth *Synth) (err error) {
	p.synth = synth
	defer func() {
		_ = synth.Close()
	}()
	a, err := audio.NewContext(synth.SampleRate())
	if err != nil {
		return errors.Wrap(err, "audio")
	}
	play, err := audio.NewPlayer(a, synth)
	if err != nil {
		return errors.Wrap(err, "audio")
	}
	defer func() {
		_ = play.Close()
	}()
	if err = play.Play(); err != nil {
		return errors.Wrap(err, "audio")
	}
	if err = p.transport.Play(0); err != nil {
		return err
	}
	ebiten.SetWindowIcon([]image.Image{ico.Icon()})
	ebiten.SetWindowTitle(p.title)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetWindowSize(p.Width(), p.Height())
	err = ebiten.RunGame(p)
	if err == io.EOF {
		err = nil
	}
	return
}
