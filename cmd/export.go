package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pshvedko/pianola/notes"
)

var (
	exportUnit   string
	exportOutput string
)

func init() {
	exportCmd.Flags().StringVar(&exportUnit, "unit", "seconds", "note times in seconds or beats")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "JSON file to write")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export FILE|URL",
	Short: "Writes the notes of a MIDI file as JSON",
	Long: `Writes the notes of every track of a MIDI file as a JSON note list.
In beats the list encodes back to the same ticks; in seconds the tempo map is applied.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := notes.ParseUnit(exportUnit)
		if err != nil {
			return err
		}
		seq, err := load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		d := notes.FromSequence(seq, unit)
		w, err := create(exportOutput, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err = notes.Write(w, d); err != nil {
			_ = w.Close()
			return err
		}
		log.FromContext(cmd.Context()).Info("exported", "notes", d.Count(), "unit", unit, "to", exportOutput)
		return w.Close()
	},
}
