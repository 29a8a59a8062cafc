package cmd

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/pshvedko/pianola/midi"
	"github.com/pshvedko/pianola/notes"
)

// open reads a local path, a file URL or an http(s) URL.
func open(ctx context.Context, file string) (io.ReadCloser, error) {
	if file == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	u, err := url.Parse(file)
	if err != nil {
		return os.Open(file)
	}
	switch u.Scheme {
	case "":
		return os.Open(file)
	case "file":
		return os.Open(u.Path)
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, file, nil)
		if err != nil {
			return nil, err
		}
		r, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		if r.StatusCode != http.StatusOK {
			_ = r.Body.Close()
			return nil, errors.Errorf("get %s: %s", file, r.Status)
		}
		return r.Body, nil
	}
	return nil, errors.Errorf("unsupported scheme %q", u.Scheme)
}

func load(ctx context.Context, file string) (*midi.Sequence, error) {
	f, err := open(ctx, file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := midi.Read(f)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	log.FromContext(ctx).Debug("loaded", "file", file, "format", s.Format, "tracks", len(s.Tracks), "division", s.Division)
	return s, nil
}

// preview encodes a JSON note list, times in beats, and decodes it back so
// it plays exactly as the written file would.
func preview(ctx context.Context, file string) (*midi.Sequence, error) {
	f, err := open(ctx, file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := notes.Read(f)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	b, err := d.MIDI()
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	log.FromContext(ctx).Debug("preview", "file", file, "tracks", len(d.Tracks), "notes", d.Count())
	return midi.Decode(b)
}

// sequence loads a MIDI file, or previews a note list when file ends in .json.
func sequence(ctx context.Context, file string) (*midi.Sequence, error) {
	if isJSON(file) {
		return preview(ctx, file)
	}
	return load(ctx, file)
}

func isJSON(file string) bool {
	if u, err := url.Parse(file); err == nil && u.Path != "" {
		file = u.Path
	}
	return strings.EqualFold(path.Ext(file), ".json")
}

// create opens path for writing, "-" is standard output.
func create(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "-" || path == "" {
		return nopWriteCloser{stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
