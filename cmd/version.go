package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thiagokokada/plastic-go/internal/buildinfo"
)

func newVersionCmd(a *app) *cobra.Command {
	var withCM bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cmVersion string
			if withCM {
				svc, err := a.connect(cmd.Context())
				if err != nil {
					slog.Warn("unable to query cm version", slog.Any("error", err))
				} else {
					cmVersion = svc.Info().Version
					svc.Close()
				}
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Describe(cmVersion))
			return err
		},
	}
	cmd.Flags().BoolVar(&withCM, "cm", false, "also report the installed cm version")
	return cmd
}
