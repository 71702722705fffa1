// File: cmd/version.go
package cmd

import (
	"fmt"

	"ctxgather/pkg/version"

	"github.com/spf13/cobra"
)

// newVersionCommand prints build information. --short prints the version only.
func newVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display the version of ctxgather",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := version.Get()
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), v.Version)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print the version number only")
	return cmd
}
