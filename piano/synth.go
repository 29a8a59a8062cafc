package piano

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"

	"github.com/pshvedko/pianola/player"
)

const (
	// MaxVoices is the polyphony of a Synth; a new voice past it steals the oldest.
	MaxVoices = 64
	// Release is the seconds a stopped voice takes to fade out.
	Release = 0.08
	silence = 1e-3
)

var harmonics = [...]struct {
	n, gain, decay float64
}{
	{1, 1, 1.1},
	{2, .3, 1.7},
	{3, .15, 2.3},
	{4, .08, 2.9},
}

// Frequency returns the equal-tempered frequency of a note, A4 = 69 = 440 Hz.
func Frequency(pitch uint8) float64 {
	return 440 * math.Exp2((float64(pitch)-69)/12)
}

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Synth is an additive piano tone generator. It mixes its voices into a
// 16-bit stereo stream with Read, or into mono floats with Render.
type Synth struct {
	sync.Mutex
	rate   float64
	volume float64
	fade   float64
	voices []*voice
	mix    []float64
}

// NewSynth returns a synth for sampleRate at volume percent.
func NewSynth(sampleRate, volume int) *Synth {
	s := &Synth{rate: float64(sampleRate)}
	s.SetVolume(volume)
	s.fade = math.Pow(silence, 1/(Release*s.rate))
	return s
}

func (s *Synth) SetVolume(volume int) {
	s.Lock()
	defer s.Unlock()
	s.volume = float64(clamp(volume, 0, 100)) / 100
}

func (s *Synth) SampleRate() int {
	return int(s.rate)
}

// Trigger prepares a voice; it sounds from Start, offset seconds later, until
// Stop fades it out.
func (s *Synth) Trigger(pitch, velocity uint8, _, offset float64) (player.Voice, error) {
	if pitch > 127 || velocity > 127 {
		return nil, errors.Errorf("piano: note %d velocity %d out of range", pitch, velocity)
	}
	return &voice{
		synth:     s,
		pitch:     pitch,
		frequency: Frequency(pitch),
		gain:      float64(velocity) / 127,
		amplitude: 1,
		delay:     int(math.Max(offset, 0) * s.rate),
	}, nil
}

// Sounding returns the number of voices still audible.
func (s *Synth) Sounding() int {
	s.Lock()
	defer s.Unlock()
	return len(s.voices)
}

// Render mixes the next len(out) mono samples into out, in [-1, 1].
func (s *Synth) Render(out []float64) {
	s.Lock()
	defer s.Unlock()
	s.render(out)
}

func (s *Synth) render(out []float64) {
	for i := range out {
		out[i] = 0
	}
	live := s.voices[:0]
	for _, v := range s.voices {
		for i := range out {
			out[i] += v.sample(s.rate, s.fade)
		}
		if !v.done() {
			live = append(live, v)
		}
	}
	for i := len(live); i < len(s.voices); i++ {
		s.voices[i] = nil
	}
	s.voices = live
	for i := range out {
		out[i] = math.Tanh(out[i] * s.volume)
	}
}

// Read fills b with 16-bit little-endian stereo frames for an audio player.
func (s *Synth) Read(b []byte) (int, error) {
	n := len(b) / 4
	s.Lock()
	defer s.Unlock()
	if cap(s.mix) < n {
		s.mix = make([]float64, n)
	}
	s.mix = s.mix[:n]
	s.render(s.mix)
	for i, f := range s.mix {
		z := uint16(int16(f * math.MaxInt16))
		binary.LittleEndian.PutUint16(b[4*i:], z)
		binary.LittleEndian.PutUint16(b[4*i+2:], z)
	}
	return 4 * n, nil
}

// Close silences every voice.
func (s *Synth) Close() error {
	s.Lock()
	defer s.Unlock()
	s.voices = nil
	return nil
}

func (s *Synth) start(v *voice) {
	s.Lock()
	defer s.Unlock()
	if len(s.voices) >= MaxVoices {
		copy(s.voices, s.voices[1:])
		s.voices = s.voices[:len(s.voices)-1]
	}
	s.voices = append(s.voices, v)
}

func (s *Synth) stop(v *voice) {
	s.Lock()
	defer s.Unlock()
	v.released = true
}

type voice struct {
	synth     *Synth
	pitch     uint8
	frequency float64
	gain      float64
	amplitude float64
	delay     int
	wave      float64
	released  bool
}

func (v *voice) Start() {
	v.synth.start(v)
}

func (v *voice) Stop() {
	v.synth.stop(v)
}

func (v *voice) sample(rate, fade float64) float64 {
	if v.delay > 0 {
		v.delay--
		return 0
	}
	t := v.wave / rate
	w := 2 * math.Pi * v.frequency * t
	var f float64
	for _, h := range harmonics {
		f += h.gain * math.Sin(h.n*w) * math.Exp(-h.decay*t)
	}
	f *= v.gain * v.amplitude / 2
	if v.released {
		v.amplitude *= fade
	}
	v.wave++
	return f
}

func (v *voice) done() bool {
	return v.released && v.amplitude < silence
}
