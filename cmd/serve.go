package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/j-taylor87/dcmpress/codec"
	"github.com/j-taylor87/dcmpress/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long:  `Serve the upload page and the conversion API until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := codec.Lookup(a.cfg.Codec.Backend)
			if err != nil {
				return err
			}
			s, err := server.New(a.cfg, backend, log.Logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().
				Str("backend", backend.Name()).
				Int("max_upload_mb", a.cfg.Server.MaxUploadMB).
				Dur("download_ttl", a.cfg.Server.DownloadTTL).
				Msg("Starting dcmpress")
			return s.Start(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8501)")
	cmd.Flags().String("backend", "", "codec backend: auto, native or cocosip")
	return cmd
}
