// Package render plays a timeline offline into a WAV file.
package render

import (
	"cmp"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/pshvedko/pianola/piano"
	"github.com/pshvedko/pianola/player"
)

const block = 4096

type Options struct {
	SampleRate int
	// Volume is in percent.
	Volume int
	// Scale is the tempo scale, 2 renders twice as fast.
	Scale float64
	// Tail is the seconds a note keeps sounding after it ends. The file is
	// that much longer than the timeline, plus the synth release.
	Tail float64
}

func DefaultOptions() Options {
	return Options{SampleRate: 44100, Volume: 30, Scale: 1, Tail: player.DefaultReleaseTail}
}

type edge struct {
	at int
	on bool
	v  player.Voice
}

// WAV renders notes with a piano synth and writes 16-bit mono PCM to w. It
// returns the number of frames written.
func WAV(w io.WriteSeeker, notes []player.ScheduledNote, duration float64, o Options) (int, error) {
	if o.SampleRate <= 0 {
		return 0, errors.Errorf("render: sample rate %d", o.SampleRate)
	}
	if !(o.Scale > 0) || math.IsInf(o.Scale, 0) {
		return 0, errors.Errorf("render: tempo scale %v", o.Scale)
	}
	rate := float64(o.SampleRate)
	frame := func(seconds float64) int {
		return int(math.Round(seconds / o.Scale * rate))
	}
	synth := piano.NewSynth(o.SampleRate, o.Volume)
	edges := make([]edge, 0, 2*len(notes))
	for _, n := range notes {
		v, err := synth.Trigger(n.Pitch, n.Velocity, n.Duration/o.Scale, 0)
		if err != nil {
			return 0, errors.Wrap(err, "render")
		}
		edges = append(edges,
			edge{at: frame(n.Start), on: true, v: v},
			edge{at: frame(n.End()) + int(o.Tail*rate), v: v})
	}
	slices.SortStableFunc(edges, func(a, b edge) int {
		return cmp.Compare(a.at, b.at)
	})
	total := frame(duration) + int(o.Tail*rate)
	if len(edges) > 0 && edges[len(edges)-1].at > total {
		total = edges[len(edges)-1].at
	}
	total += int(piano.Release * rate)

	enc := wav.NewEncoder(w, o.SampleRate, 16, 1, 1)
	mix := make([]float64, block)
	buf := &audio.IntBuffer{
		Data:           make([]int, block),
		Format:         &audio.Format{SampleRate: o.SampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}
	at := 0
	flush := func(until int) error {
		for at < until {
			n := until - at
			if n > block {
				n = block
			}
			synth.Render(mix[:n])
			buf.Data = buf.Data[:n]
			for i, f := range mix[:n] {
				buf.Data[i] = int(f * math.MaxInt16)
			}
			if err := enc.Write(buf); err != nil {
				return err
			}
			at += n
		}
		return nil
	}
	for _, e := range edges {
		if err := flush(e.at); err != nil {
			return at, errors.Wrap(err, "render")
		}
		if e.on {
			e.v.Start()
		} else {
			e.v.Stop()
		}
	}
	if err := flush(total); err != nil {
		return at, errors.Wrap(err, "render")
	}
	return at, errors.Wrap(enc.Close(), "render")
}
