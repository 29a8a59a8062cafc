package player

import (
	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
)

// DefaultReleaseTail is how long a voice keeps sounding after its note ends.
const DefaultReleaseTail = 0.1

type options struct {
	clock    clock.Clock
	logger   *log.Logger
	observer Observer
	tail     float64
	scale    float64
	onFinish func()
}

type Option func(*options)

// WithClock sets the clock timers are registered with.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver adds a receiver of note-on and note-off notifications.
func WithObserver(v Observer) Option {
	return func(o *options) {
		o.observer = v
	}
}

// WithReleaseTail sets the seconds a voice is held after its note ends.
func WithReleaseTail(seconds float64) Option {
	return func(o *options) {
		o.tail = seconds
	}
}

// WithTempoScale sets the initial tempo scale. Values that SetTempo would
// reject are ignored.
func WithTempoScale(scale float64) Option {
	return func(o *options) {
		if validScale(scale) {
			o.scale = scale
		}
	}
}

// WithOnFinish sets a function called when playback reaches the end of the
// sequence. It runs without the scheduler lock held.
func WithOnFinish(f func()) Option {
	return func(o *options) {
		o.onFinish = f
	}
}

type nopObserver struct{}

func (nopObserver) NoteOn(uint8, uint8) {}

func (nopObserver) NoteOff(uint8) {}
