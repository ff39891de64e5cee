// Package cmd implements the dcmpress command line interface.
package cmd

import (
	"io"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/j-taylor87/dcmpress/internal/config"
	"github.com/j-taylor87/dcmpress/internal/logging"
)

// app holds the state shared by the subcommands of one invocation.
type app struct {
	v         *viper.Viper
	cfgFile   string
	cfg       *config.Config
	logCloser io.Closer
}

// Execute runs the dcmpress command line.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand returns the dcmpress command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "dcmpress",
		Short: "Decompress compressed DICOM files",
		Long: `dcmpress converts DICOM files with compressed pixel data into uncompressed
Explicit VR Little Endian files, either through a web page or from the command line.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./dcmpress.yaml)")

	root.AddCommand(newServeCommand(a), newConvertCommand(a), newVersionCommand())
	return root
}

// flagKeys maps subcommand flags to the configuration keys they override.
var flagKeys = map[string]string{
	"addr":    "server.addr",
	"backend": "codec.backend",
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	used, err := config.ReadFile(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if a.cfg, err = config.Load(a.v); err != nil {
		return err
	}
	if a.logCloser, err = logging.Setup(a.cfg.Logging); err != nil {
		return err
	}
	if used != "" {
		log.Debug().Str("file", used).Msg("Using config file")
	}
	return nil
}
