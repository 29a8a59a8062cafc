package midi

// Span is a sounded note: a NoteOn matched with the NoteOff that ends it.
type Span struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
	Start    uint32
	End      uint32
}

// Pair matches note-ons and note-offs per (note, channel) in t. At most one
// note per pair is open; a second note-on ends the open one at its own tick.
// Notes still open at the end of the track are dropped. Spans are ordered
// by start tick.
func Pair(t Track) []Span {
	type key struct {
		channel, note uint8
	}
	var spans []Span
	var closed []bool
	open := make(map[key]int)
	end := func(k key, at uint32) {
		if i, ok := open[k]; ok {
			spans[i].End = at
			closed[i] = true
			delete(open, k)
		}
	}
	for _, e := range t.Events {
		switch e := e.(type) {
		case NoteOn:
			k := key{e.Channel, e.Note}
			end(k, e.Time)
			open[k] = len(spans)
			spans = append(spans, Span{Channel: e.Channel, Note: e.Note, Velocity: e.Velocity, Start: e.Time, End: e.Time})
			closed = append(closed, false)
		case NoteOff:
			end(key{e.Channel, e.Note}, e.Time)
		}
	}
	out := spans[:0]
	for i, s := range spans {
		if closed[i] {
			out = append(out, s)
		}
	}
	return out
}
