package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pshvedko/pianola/api"
)

var listen string

func init() {
	serveCmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves decode and encode over HTTP",
	Long: `Serves the codec over HTTP:
  POST /decode[?unit=beats]   MIDI file in, JSON description and note list out
  POST /encode[?tempo=us]     JSON note list in, MIDI file out
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := log.FromContext(ctx)
		addr := settings(ctx).Listen
		if listen != "" {
			addr = listen
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewHandler(logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdown)
		}()
		logger.Info("serving", "addr", addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}
