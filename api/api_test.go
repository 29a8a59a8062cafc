package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pshvedko/pianola/midi"
	"github.com/pshvedko/pianola/notes"
)

const doc = `{"tracks": [{"notes": [
	{"note": 60, "time": 0, "duration": 1, "velocity": 100},
	{"note": 64, "time": 1, "duration": 1, "velocity": 90}
]}]}`

func do(t *testing.T, method, target string, body io.Reader) *http.Response {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	NewHandler(log.New(io.Discard)).ServeHTTP(w, req)
	return w.Result()
}

func TestHealth(t *testing.T) {
	resp := do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestEncodeThenDecode(t *testing.T) {
	resp := do(t, http.MethodPost, "/encode?tempo=1000000", strings.NewReader(doc))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/midi", resp.Header.Get("Content-Type"))
	smf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	s, err := midi.Decode(smf)
	require.NoError(t, err)
	assert.Equal(t, midi.Metrical(midi.EncodeDivision), s.Division)

	resp = do(t, http.MethodPost, "/decode", bytes.NewReader(smf))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got DecodeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "multi-track", got.Format)
	assert.Equal(t, uint16(1), got.TrackCount)
	assert.Equal(t, "480 ticks/beat", got.Division)
	assert.Equal(t, []TempoChange{{Tick: 0, MicrosecondsPerBeat: 1000000, BPM: 60}}, got.Tempo)
	assert.InDelta(t, 60.0, got.InitialBPM, 1e-9)
	assert.InDelta(t, 2.0, got.DurationSeconds, 1e-9)
	assert.Equal(t, "seconds", got.Unit)
	assert.Equal(t, notes.Document{Tracks: []notes.Track{{Notes: []notes.Note{
		{Note: 60, Time: 0, Duration: 1, Velocity: 100},
		{Note: 64, Time: 1, Duration: 1, Velocity: 90},
	}}}}, got.Notes)
}

func TestDecodeInBeats(t *testing.T) {
	smf, err := midi.Encode([][]midi.Note{{{Pitch: 60, Velocity: 100, Time: 2, Duration: 1}}})
	require.NoError(t, err)
	resp := do(t, http.MethodPost, "/decode?unit=beats", bytes.NewReader(smf))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got DecodeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "beats", got.Unit)
	assert.Empty(t, got.Tempo)
	assert.InDelta(t, 120.0, got.InitialBPM, 1e-9)
	assert.InDelta(t, 1.5, got.DurationSeconds, 1e-9)
	assert.Equal(t, notes.Note{Note: 60, Time: 2, Duration: 1, Velocity: 100}, got.Notes.Tracks[0].Notes[0])
}

func TestErrors(t *testing.T) {
	cases := []struct {
		name, method, target, body string
		status                     int
	}{
		{"bad magic", http.MethodPost, "/decode", "RIFF0000", http.StatusUnprocessableEntity},
		{"empty file", http.MethodPost, "/decode", "", http.StatusUnprocessableEntity},
		{"truncated track", http.MethodPost, "/decode", "MThd\x00\x00\x00\x06\x00\x01\x00\x01\x01\xe0MTrk\x00\x00\x00\x04\x00\x90", http.StatusUnprocessableEntity},
		{"bad unit", http.MethodPost, "/decode?unit=bars", "", http.StatusBadRequest},
		{"bad json", http.MethodPost, "/encode", `{"tracks": [`, http.StatusBadRequest},
		{"invalid note", http.MethodPost, "/encode", `{"tracks": [{"notes": [{"note": 130, "velocity": 1}]}]}`, http.StatusUnprocessableEntity},
		{"bad tempo", http.MethodPost, "/encode?tempo=fast", doc, http.StatusBadRequest},
		{"zero tempo", http.MethodPost, "/encode?tempo=0", doc, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/decode", "", http.StatusMethodNotAllowed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := do(t, c.method, c.target, strings.NewReader(c.body))
			assert.Equal(t, c.status, resp.StatusCode)
			if c.status != http.StatusMethodNotAllowed {
				var e errorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
				assert.NotEmpty(t, e.Error)
			}
		})
	}
}
