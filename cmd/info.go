package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pshvedko/pianola/midi"
	"github.com/pshvedko/pianola/tempo"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info FILE|URL",
	Short: "Describes a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		info(cmd.OutOrStdout(), seq)
		return nil
	},
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Millisecond)
}

func info(w io.Writer, s *midi.Sequence) {
	fmt.Fprintf(w, "format:   %s\n", s.Format)
	fmt.Fprintf(w, "tracks:   %d\n", s.TrackCount)
	fmt.Fprintf(w, "division: %s\n", s.Division)
	fmt.Fprintf(w, "duration: %s (%d ticks)\n", seconds(s.Duration()), s.End())
	if !s.Division.IsSMPTE() {
		fmt.Fprintf(w, "bpm:      %.2f at start\n", tempo.Change{MicrosecondsPerBeat: s.Tempo.At(0)}.BPM())
	}
	c := s.Converter()
	for _, t := range s.Tempo {
		fmt.Fprintf(w, "tempo:    %8d  %-10s %.2f bpm\n", t.Tick, seconds(c.Seconds(t.Tick)), t.BPM())
	}
	for i, t := range s.Tracks {
		fmt.Fprintf(w, "track %2d: %5d events %5d notes\n", i, len(t.Events), len(midi.Pair(t)))
	}
}
