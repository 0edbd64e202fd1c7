package app

import (
	"fmt"
	"io"
	"runtime"

	"github.com/JiscSD/cessda-fair-checker/version"

	"github.com/spf13/cobra"
)

func NewCmdVersion(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doVersion(out)
		},
	}
}

func doVersion(out io.Writer) error {
	_, err := fmt.Fprintf(out, "%s (%s)\n", version.VERSION, runtime.Version())
	return err
}
