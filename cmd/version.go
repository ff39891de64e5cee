package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X github.com/j-taylor87/dcmpress/cmd.BuildVersion=...".
var (
	BuildVersion = "dev"
	BuildCommit  = "none"
	BuildDate    = "unknown"
)

func newVersionCommand() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the dcmpress version, commit hash, and build date.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, BuildVersion)
				return
			}
			fmt.Fprintf(out, "dcmpress %s\n", BuildVersion)
			fmt.Fprintf(out, "Commit: %s\n", BuildCommit)
			fmt.Fprintf(out, "Built: %s\n", BuildDate)
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Show only version number")
	return cmd
}
