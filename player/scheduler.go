package player

import (
	"cmp"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/pshvedko/pianola/midi"
)

// Session describes one run of the scheduler, from a Play to the next state
// change. From is in song seconds.
type Session struct {
	ID         uuid.UUID
	Generation uint64
	From       float64
	Scale      float64
	Started    time.Time
}

type session struct {
	Session
	timers []*clock.Timer
	voices map[*voice]struct{}
}

type voice struct {
	Voice
	pitch uint8
	off   bool
	timer *clock.Timer
}

// Scheduler is the playback state machine. Positions are song seconds, so a
// position does not change meaning when the tempo scale does; a note that
// starts at song time t is triggered (t-from)/scale wall seconds after Play.
//
// All methods are safe for concurrent use. The tone generator and observer
// are called with the scheduler lock held and must not call back into it.
type Scheduler struct {
	mu       sync.Mutex
	clock    clock.Clock
	log      *log.Logger
	tone     ToneGenerator
	observer Observer
	tail     float64
	onFinish func()

	loaded     bool
	notes      []ScheduledNote
	duration   float64
	status     Status
	position   float64
	scale      float64
	generation uint64
	session    *session
}

func New(tone ToneGenerator, opts ...Option) *Scheduler {
	o := options{
		clock:    clock.New(),
		logger:   log.Default(),
		observer: nopObserver{},
		tail:     DefaultReleaseTail,
		scale:    1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Scheduler{
		clock:    o.clock,
		log:      o.logger,
		tone:     tone,
		observer: o.observer,
		tail:     math.Max(o.tail, 0),
		onFinish: o.onFinish,
		scale:    o.scale,
	}
}

// Load stops any playback and replaces the sequence.
func (s *Scheduler) Load(seq *midi.Sequence) error {
	if seq == nil {
		return precondition("load", ErrNoSequence)
	}
	notes, duration := Timeline(seq)
	s.LoadTimeline(notes, duration)
	return nil
}

// LoadTimeline is Load for notes that are already paired and timed.
func (s *Scheduler) LoadTimeline(notes []ScheduledNote, duration float64) {
	notes = slices.Clone(notes)
	slices.SortStableFunc(notes, byStart)
	for _, n := range notes {
		duration = math.Max(duration, n.End())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halt()
	s.notes, s.duration, s.loaded = notes, duration, true
	s.status, s.position = Stopped, 0
	s.log.Info("loaded", "notes", len(notes), "duration", duration)
}

// Play starts a new session at from, clamped to the sequence. A running
// session is cancelled first.
func (s *Scheduler) Play(from float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return precondition("play", ErrNoSequence)
	}
	s.halt()
	s.start(clamp(from, 0, s.duration))
	return nil
}

// Resume plays from the current position: where a pause left it, or the
// beginning when stopped.
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return precondition("resume", ErrNoSequence)
	}
	if s.status == Playing {
		return nil
	}
	s.start(s.position)
	return nil
}

// Pause cancels every pending trigger and keeps the position.
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return precondition("pause", ErrNoSequence)
	}
	if s.status != Playing {
		return nil
	}
	at := s.at()
	s.halt()
	s.status, s.position = Paused, at
	return nil
}

// Stop cancels every pending trigger and rewinds to the beginning.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halt()
	s.status, s.position = Stopped, 0
}

// Seek moves a playing or paused session to t and keeps its state.
func (s *Scheduler) Seek(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.loaded:
		return precondition("seek", ErrNoSequence)
	case s.status == Stopped:
		return precondition("seek", ErrNotSeekable)
	}
	t = clamp(t, 0, s.duration)
	if s.status == Playing {
		s.halt()
		s.start(t)
		return nil
	}
	s.position = t
	return nil
}

func validScale(scale float64) bool {
	return scale > 0 && !math.IsInf(scale, 0) && !math.IsNaN(scale)
}

// SetTempo changes the tempo scale, 2 plays twice as fast. A playing session
// is restarted at its current position under the new scale.
func (s *Scheduler) SetTempo(scale float64) error {
	if !validScale(scale) {
		return precondition("tempo", errors.Wrapf(ErrInvalidTempoScale, "%v", scale))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Playing {
		s.scale = scale
		return nil
	}
	at := s.at()
	s.halt()
	s.scale = scale
	s.start(at)
	return nil
}

// TempoControl returns a tempo setter for slider input: of a burst of calls
// less than wait apart only the last one is applied.
func (s *Scheduler) TempoControl(wait time.Duration) func(scale float64) {
	debounced := debounce.New(wait)
	return func(scale float64) {
		debounced(func() {
			if err := s.SetTempo(scale); err != nil {
				s.log.Warn("tempo not changed", "scale", scale, "err", err)
			}
		})
	}
}

// Position returns the song position in seconds. While playing it advances
// with the clock times the tempo scale, whether or not anything sounds.
func (s *Scheduler) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.at()
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// Duration returns the length of the loaded sequence in song seconds.
func (s *Scheduler) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Session returns the running session, if any.
func (s *Scheduler) Session() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return Session{}, false
	}
	return s.session.Session, true
}

func (s *Scheduler) at() float64 {
	if s.status != Playing || s.session == nil {
		return s.position
	}
	elapsed := s.clock.Since(s.session.Started).Seconds()
	return clamp(s.session.From+elapsed*s.session.Scale, 0, s.duration)
}

func wall(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// start registers a timer for every note at or after from. Callers hold mu.
func (s *Scheduler) start(from float64) {
	s.generation++
	gen := s.generation
	ss := &session{
		Session: Session{
			ID:         uuid.New(),
			Generation: gen,
			From:       from,
			Scale:      s.scale,
			Started:    s.clock.Now(),
		},
		voices: make(map[*voice]struct{}),
	}
	i, _ := slices.BinarySearchFunc(s.notes, from, func(n ScheduledNote, from float64) int {
		return cmp.Compare(n.Start, from)
	})
	for _, n := range s.notes[i:] {
		n := n
		ss.timers = append(ss.timers, s.clock.AfterFunc(wall((n.Start-from)/ss.Scale), func() {
			s.fire(gen, n)
		}))
	}
	ss.timers = append(ss.timers, s.clock.AfterFunc(wall((s.duration-from)/ss.Scale+s.tail), func() {
		s.finish(gen)
	}))
	s.session, s.status, s.position = ss, Playing, from
	s.log.Info("play", "session", ss.ID, "from", from, "scale", ss.Scale, "notes", len(s.notes)-i)
}

// halt invalidates the session so that no timer of it acts, even one that
// is already running and waits for mu, and releases its voices. Callers hold mu.
func (s *Scheduler) halt() {
	ss := s.session
	if ss == nil {
		return
	}
	s.generation++
	s.session = nil
	for _, t := range ss.timers {
		t.Stop()
	}
	s.log.Info("halt", "session", ss.ID, "released", len(ss.voices))
	for w := range ss.voices {
		s.release(ss, w)
	}
}

func (s *Scheduler) current(gen uint64) *session {
	if s.session == nil || s.generation != gen {
		return nil
	}
	return s.session
}

func (s *Scheduler) fire(gen uint64, n ScheduledNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss := s.current(gen)
	if ss == nil {
		return
	}
	duration := n.Duration / ss.Scale
	v, err := s.trigger(n, duration)
	if err != nil {
		s.log.Error("note dropped", "session", ss.ID, "pitch", n.Pitch, "err", err)
		return
	}
	s.log.Debug("note on", "session", ss.ID, "note", midi.NoteName(n.Pitch), "velocity", n.Velocity, "duration", duration)
	s.notify(func() {
		s.observer.NoteOn(n.Pitch, n.Velocity)
	})
	w := &voice{Voice: v, pitch: n.Pitch}
	ss.voices[w] = struct{}{}
	w.timer = s.clock.AfterFunc(wall(duration), func() {
		s.noteOff(gen, w)
	})
}

func (s *Scheduler) trigger(n ScheduledNote, duration float64) (v Voice, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, errors.Errorf("tone generator panic: %v", r)
		}
	}()
	v, err = s.tone.Trigger(n.Pitch, n.Velocity, duration, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "trigger %s", midi.NoteName(n.Pitch))
	}
	if v == nil {
		return nil, errors.Errorf("trigger %s: no voice", midi.NoteName(n.Pitch))
	}
	v.Start()
	return v, nil
}

func (s *Scheduler) noteOff(gen uint64, w *voice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current(gen) == nil {
		return
	}
	w.off = true
	s.notify(func() {
		s.observer.NoteOff(w.pitch)
	})
	w.timer = s.clock.AfterFunc(wall(s.tail), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if ss := s.current(gen); ss != nil {
			s.release(ss, w)
		}
	})
}

// release stops w now and ends its note if the observer has not seen it end.
func (s *Scheduler) release(ss *session, w *voice) {
	if w.timer != nil {
		w.timer.Stop()
	}
	if !w.off {
		w.off = true
		s.notify(func() {
			s.observer.NoteOff(w.pitch)
		})
	}
	s.notify(w.Stop)
	delete(ss.voices, w)
}

func (s *Scheduler) notify(f func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("collaborator panic", "err", r)
		}
	}()
	f()
}

func (s *Scheduler) finish(gen uint64) {
	s.mu.Lock()
	ss := s.current(gen)
	if ss == nil {
		s.mu.Unlock()
		return
	}
	s.halt()
	s.status, s.position = Stopped, 0
	f := s.onFinish
	s.mu.Unlock()
	s.log.Info("finished", "session", ss.ID)
	if f != nil {
		f()
	}
}
