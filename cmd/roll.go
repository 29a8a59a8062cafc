package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pshvedko/pianola/piano"
	"github.com/pshvedko/pianola/player"
)

var (
	rollOutput string
	rollWidth  int
	rollHeight int
)

func init() {
	rollCmd.Flags().StringVarP(&rollOutput, "output", "o", "", "PNG file to write")
	rollCmd.Flags().IntVar(&rollWidth, "width", 1600, "image width")
	rollCmd.Flags().IntVar(&rollHeight, "height", 4*piano.Keys, "image height")
	_ = rollCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(rollCmd)
}

var rollCmd = &cobra.Command{
	Use:   "roll FILE|URL|JSON",
	Short: "Draws the piano roll of a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := sequence(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		notes, duration := player.Timeline(seq)
		w, err := create(rollOutput, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err = piano.WritePNG(w, notes, duration, rollWidth, rollHeight); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	},
}
