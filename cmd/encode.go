package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pshvedko/pianola/midi"
	"github.com/pshvedko/pianola/notes"
)

var (
	encodeTempo  uint32
	encodeOutput string
)

func init() {
	encodeCmd.Flags().Uint32Var(&encodeTempo, "tempo", 0, "microseconds per beat written at the start, default none (120 bpm)")
	encodeCmd.Flags().StringVarP(&encodeOutput, "output", "o", "", "MIDI file to write")
	_ = encodeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(encodeCmd)
}

var encodeCmd = &cobra.Command{
	Use:   "encode JSON",
	Short: "Writes a JSON note list as a MIDI file",
	Long: `Writes a JSON note list, times and durations in beats, as a multi-track
MIDI file at 480 ticks per beat. JSON may be - for standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if encodeTempo > 0xFFFFFF {
			return errors.Errorf("tempo %d does not fit 24 bits", encodeTempo)
		}
		f, err := open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		d, err := notes.Read(f)
		_ = f.Close()
		if err != nil {
			return err
		}
		var opts []midi.EncodeOption
		if encodeTempo > 0 {
			opts = append(opts, midi.WithTempo(encodeTempo))
		}
		b, err := d.MIDI(opts...)
		if err != nil {
			return err
		}
		w, err := create(encodeOutput, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if _, err = w.Write(b); err != nil {
			_ = w.Close()
			return err
		}
		log.FromContext(cmd.Context()).Info("encoded", "tracks", len(d.Tracks), "notes", d.Count(), "bytes", len(b), "to", encodeOutput)
		return w.Close()
	},
}
