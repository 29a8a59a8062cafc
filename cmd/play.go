package cmd

import (
	"path"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pshvedko/pianola/midi"
	"github.com/pshvedko/pianola/piano"
	"github.com/pshvedko/pianola/player"
)

const midiFile = "http://bitmidi.com/uploads/28051.mid"

var (
	playScale    float64
	playVolume   int
	playHeadless bool
)

func init() {
	playCmd.Flags().Float64Var(&playScale, "scale", 1, "tempo scale, 2 plays twice as fast")
	playCmd.Flags().IntVar(&playVolume, "volume", 30, "volume in percent")
	playCmd.Flags().BoolVar(&playHeadless, "headless", false, "log notes on schedule without a window or sound")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play [FILE|URL|JSON]",
	Short: "Plays a MIDI file on the piano",
	Long: `Plays a MIDI file from a path or an http(s) URL in a keyboard window.
A .json note list, times in beats, is encoded and played as a preview.
Space pauses, arrows seek, plus and minus change the tempo, F toggles fullscreen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := log.FromContext(ctx)
		cfg := settings(ctx)
		if cmd.Flags().Changed("scale") {
			cfg.TempoScale = playScale
		}
		if cmd.Flags().Changed("volume") {
			cfg.Volume = playVolume
		}
		if cmd.Flags().Changed("headless") {
			cfg.Headless = playHeadless
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		file := midiFile
		if len(args) > 0 {
			file = args[0]
		}
		seq, err := sequence(ctx, file)
		if err != nil {
			return err
		}
		opts := []player.Option{
			player.WithLogger(logger),
			player.WithReleaseTail(cfg.ReleaseTail),
			player.WithTempoScale(cfg.TempoScale),
		}

		if cfg.Headless {
			done := make(chan struct{})
			s := player.New(printer{logger}, append(opts, player.WithOnFinish(func() {
				close(done)
			}))...)
			if err = s.Load(seq); err != nil {
				return err
			}
			if err = s.Play(0); err != nil {
				return err
			}
			select {
			case <-done:
			case <-ctx.Done():
				s.Stop()
			}
			return nil
		}

		keys := piano.NewKeyboard(cfg.Width, cfg.Height)
		synth := piano.NewSynth(cfg.SampleRate, cfg.Volume)
		var w *piano.Window
		s := player.New(synth, append(opts, player.WithObserver(keys), player.WithOnFinish(func() {
			w.Finish()
		}))...)
		if err = s.Load(seq); err != nil {
			return err
		}
		w = piano.NewWindow(cfg.Width, cfg.Height, "Piano - "+path.Base(file), keys, s, s.TempoControl(150*time.Millisecond))
		go func() {
			<-ctx.Done()
			s.Stop()
			w.Finish()
		}()
		return w.Run(synth)
	},
}

// printer is a tone generator that only logs what it would play.
type printer struct {
	log *log.Logger
}

func (p printer) Trigger(pitch, velocity uint8, duration, _ float64) (player.Voice, error) {
	return note{p.log, pitch, velocity, duration}, nil
}

type note struct {
	log      *log.Logger
	pitch    uint8
	velocity uint8
	duration float64
}

func (n note) Start() {
	n.log.Info("note", "name", midi.NoteName(n.pitch), "velocity", n.velocity, "duration", time.Duration(n.duration*float64(time.Second)).Round(time.Millisecond))
}

func (n note) Stop() {}
