// Package tempo converts tick timestamps into seconds over a piecewise
// constant tempo curve.
package tempo

import (
	"cmp"

	"golang.org/x/exp/slices"
)

// DefaultMicrosecondsPerBeat is 120 beats per minute, in effect until the first change.
const DefaultMicrosecondsPerBeat = 500000

// Change sets the tempo from Tick onwards.
type Change struct {
	Tick                uint32
	MicrosecondsPerBeat uint32
}

func (c Change) BPM() float64 {
	if c.MicrosecondsPerBeat == 0 {
		return 0
	}
	return 60000000 / float64(c.MicrosecondsPerBeat)
}

// Map is a list of changes sorted by tick. Changes at the same tick keep
// their insertion order, so the last one is in effect.
type Map []Change

// NewMap returns a sorted copy of changes.
func NewMap(changes []Change) Map {
	m := make(Map, len(changes))
	copy(m, changes)
	slices.SortStableFunc(m, func(a, b Change) int {
		return cmp.Compare(a.Tick, b.Tick)
	})
	return m
}

// At returns the tempo in effect at tick.
func (m Map) At(tick uint32) uint32 {
	us := uint32(DefaultMicrosecondsPerBeat)
	for _, c := range m {
		if c.Tick > tick {
			break
		}
		us = c.MicrosecondsPerBeat
	}
	return us
}

func span(ticks uint32, ticksPerBeat uint16, us uint32) float64 {
	return float64(ticks) / float64(ticksPerBeat) * float64(us) / 1e6
}

// TicksToSeconds walks the sorted changes and sums the time of every span
// at the tempo in effect during it. A change applies from its own tick on.
func TicksToSeconds(tick uint32, ticksPerBeat uint16, changes Map) float64 {
	if ticksPerBeat == 0 {
		return 0
	}
	var seconds float64
	var at uint32
	us := uint32(DefaultMicrosecondsPerBeat)
	for _, c := range changes {
		if c.Tick >= tick {
			break
		}
		seconds += span(c.Tick-at, ticksPerBeat, us)
		at = c.Tick
		us = c.MicrosecondsPerBeat
	}
	return seconds + span(tick-at, ticksPerBeat, us)
}

// Base is the time base of a file: ticks per beat for metrical files, or a
// constant tick rate for timecode files, which ignore tempo.
type Base struct {
	TicksPerBeat   uint16
	TicksPerSecond float64
}

// Converter answers TicksToSeconds queries from precomputed segment starts.
type Converter struct {
	base    Base
	changes Map
	starts  []float64
}

func NewConverter(base Base, changes Map) *Converter {
	c := &Converter{base: base, changes: changes}
	if base.TicksPerBeat == 0 {
		return c
	}
	c.starts = make([]float64, len(changes))
	var seconds float64
	var at uint32
	us := uint32(DefaultMicrosecondsPerBeat)
	for i, ch := range changes {
		seconds += span(ch.Tick-at, base.TicksPerBeat, us)
		c.starts[i] = seconds
		at = ch.Tick
		us = ch.MicrosecondsPerBeat
	}
	return c
}

func (c *Converter) linear(tick uint32) float64 {
	if c.base.TicksPerSecond <= 0 {
		return 0
	}
	return float64(tick) / c.base.TicksPerSecond
}

// segment returns the seconds at tick given that the last applied change is i-1.
func (c *Converter) segment(tick uint32, i int) float64 {
	if i == 0 {
		return span(tick, c.base.TicksPerBeat, DefaultMicrosecondsPerBeat)
	}
	ch := c.changes[i-1]
	return c.starts[i-1] + span(tick-ch.Tick, c.base.TicksPerBeat, ch.MicrosecondsPerBeat)
}

// Seconds converts tick in O(log n) of the number of changes.
func (c *Converter) Seconds(tick uint32) float64 {
	if c.base.TicksPerBeat == 0 {
		return c.linear(tick)
	}
	i, _ := slices.BinarySearchFunc(c.changes, tick, func(ch Change, tick uint32) int {
		return cmp.Compare(ch.Tick, tick)
	})
	return c.segment(tick, i)
}

// Cursor returns a converter for non-decreasing queries that remembers its
// place in the tempo map.
func (c *Converter) Cursor() *Cursor {
	return &Cursor{c: c}
}

type Cursor struct {
	c    *Converter
	i    int
	last uint32
}

// Seconds converts tick. A tick below the previous query rewinds the cursor.
func (k *Cursor) Seconds(tick uint32) float64 {
	c := k.c
	if c.base.TicksPerBeat == 0 {
		return c.linear(tick)
	}
	if tick < k.last {
		k.i = 0
	}
	k.last = tick
	for k.i < len(c.changes) && c.changes[k.i].Tick < tick {
		k.i++
	}
	return c.segment(tick, k.i)
}
