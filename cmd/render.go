package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pshvedko/pianola/player"
	"github.com/pshvedko/pianola/render"
)

var (
	renderScale  float64
	renderOutput string
)

func init() {
	renderCmd.Flags().Float64Var(&renderScale, "scale", 1, "tempo scale, 2 renders twice as fast")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "WAV file to write")
	_ = renderCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render FILE|URL|JSON",
	Short: "Renders a MIDI file to WAV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings(cmd.Context())
		if cmd.Flags().Changed("scale") {
			cfg.TempoScale = renderScale
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		seq, err := sequence(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		f, err := os.Create(renderOutput)
		if err != nil {
			return err
		}
		notes, duration := player.Timeline(seq)
		n, err := render.WAV(f, notes, duration, render.Options{
			SampleRate: cfg.SampleRate,
			Volume:     cfg.Volume,
			Scale:      cfg.TempoScale,
			Tail:       cfg.ReleaseTail,
		})
		if err != nil {
			_ = f.Close()
			return err
		}
		log.FromContext(cmd.Context()).Info("rendered", "notes", len(notes), "frames", n, "to", renderOutput)
		return f.Close()
	},
}
