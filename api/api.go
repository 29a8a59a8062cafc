// Package api serves the codec over HTTP: SMF bytes in, note lists out, and back.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"github.com/pshvedko/pianola/midi"
	"github.com/pshvedko/pianola/notes"
	"github.com/pshvedko/pianola/tempo"
)

// MaxBody bounds the size of a request body.
const MaxBody = 16 << 20

type TempoChange struct {
	Tick                uint32  `json:"tick"`
	MicrosecondsPerBeat uint32  `json:"microsecondsPerBeat"`
	BPM                 float64 `json:"bpm"`
}

type DecodeResponse struct {
	Format          string         `json:"format"`
	TrackCount      uint16         `json:"trackCount"`
	Division        string         `json:"division"`
	Tempo           []TempoChange  `json:"tempo"`
	InitialBPM      float64        `json:"initialBPM"`
	DurationSeconds float64        `json:"durationSeconds"`
	Unit            string         `json:"unit"`
	Notes           notes.Document `json:"notes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type server struct {
	log *log.Logger
}

// NewHandler returns the router wrapped for cross-origin browser clients.
func NewHandler(l *log.Logger) http.Handler {
	s := &server{log: l}
	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.logging)
	router.HandleFunc("/health", s.HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/decode", s.HandleDecode).Methods(http.MethodPost)
	router.HandleFunc("/encode", s.HandleEncode).Methods(http.MethodPost)
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(router)
}

func (s *server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func (s *server) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response", "err", err)
	}
}

func (s *server) fail(w http.ResponseWriter, status int, err error) {
	s.log.Warn("request failed", "status", status, "err", err)
	s.write(w, status, errorResponse{Error: err.Error()})
}

func (s *server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleDecode reads a MIDI file from the body. The unit query parameter
// selects seconds (default) or beats for the note list.
func (s *server) HandleDecode(w http.ResponseWriter, r *http.Request) {
	unit := notes.UnitSeconds
	if q := r.URL.Query().Get("unit"); q != "" {
		u, err := notes.ParseUnit(q)
		if err != nil {
			s.fail(w, http.StatusBadRequest, err)
			return
		}
		unit = u
	}
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBody))
	if err != nil {
		s.fail(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	seq, err := midi.Decode(b)
	if midi.IsFormatError(err) {
		s.fail(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	res := DecodeResponse{
		Format:          seq.Format.String(),
		TrackCount:      seq.TrackCount,
		Division:        seq.Division.String(),
		Tempo:           make([]TempoChange, 0, len(seq.Tempo)),
		InitialBPM:      tempo.Change{MicrosecondsPerBeat: seq.Tempo.At(0)}.BPM(),
		DurationSeconds: seq.Duration(),
		Unit:            unit.String(),
		Notes:           notes.FromSequence(seq, unit),
	}
	for _, c := range seq.Tempo {
		res.Tempo = append(res.Tempo, TempoChange{Tick: c.Tick, MicrosecondsPerBeat: c.MicrosecondsPerBeat, BPM: c.BPM()})
	}
	s.write(w, http.StatusOK, res)
}

// HandleEncode turns a note list, times in beats, into a MIDI file. The
// tempo query parameter sets microseconds per beat.
func (s *server) HandleEncode(w http.ResponseWriter, r *http.Request) {
	var opts []midi.EncodeOption
	if q := r.URL.Query().Get("tempo"); q != "" {
		us, err := strconv.ParseUint(q, 10, 24)
		if err != nil || us == 0 {
			s.fail(w, http.StatusBadRequest, errors.Errorf("tempo %q is not a positive 24-bit number", q))
			return
		}
		opts = append(opts, midi.WithTempo(uint32(us)))
	}
	d, err := notes.Read(http.MaxBytesReader(w, r.Body, MaxBody))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	b, err := d.MIDI(opts...)
	if errors.Is(err, midi.ErrInvalidNote) {
		s.fail(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	if _, err = w.Write(b); err != nil {
		s.log.Error("response", "err", err)
	}
}
