package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/j-taylor87/dcmpress/archive"
	"github.com/j-taylor87/dcmpress/codec"
	"github.com/j-taylor87/dcmpress/pipeline"
)

func newConvertCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "convert [flags] files...",
		Short: "Decompress files into a ZIP archive",
		Long: `Decompress DICOM files to Explicit VR Little Endian and write the converted files
to a ZIP archive. Files that cannot be converted are reported and left out of the archive.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := codec.Lookup(a.cfg.Codec.Backend)
			if err != nil {
				return err
			}

			uploads := make([]pipeline.Upload, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading input: %w", err)
				}
				uploads = append(uploads, pipeline.Upload{Name: filepath.Base(path), Data: data})
			}

			res, err := pipeline.New(backend, 0, codec.WithMaxDecodedSize(a.cfg.Codec.MaxDecodedBytes())).Process(log.Logger.WithContext(cmd.Context()), uploads)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, o := range res.Outcomes {
				if o.Err != nil {
					fmt.Fprintf(out, "FAIL %s\n", o.Err)
					continue
				}
				fmt.Fprintf(out, "OK   %s: %s -> %s (patient %s)\n",
					o.Name, o.Before.TransferSyntaxName, o.After.TransferSyntaxName, o.Before.PatientName)
			}

			if err := os.WriteFile(output, res.Archive, 0o644); err != nil {
				return fmt.Errorf("writing archive: %w", err)
			}
			fmt.Fprintf(out, "wrote %d of %d files to %s\n", res.Succeeded, len(res.Outcomes), output)

			if failed := res.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d files could not be decompressed", failed, len(res.Outcomes))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", archive.FileName, "archive to write")
	cmd.Flags().String("backend", "", "codec backend: auto, native or cocosip")
	return cmd
}
