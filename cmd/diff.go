package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thiagokokada/plastic-go/internal/render"
)

func newDiffCmd(a *app) *cobra.Command {
	var (
		theme        string
		contextLines int
	)
	cmd := &cobra.Command{
		Use:   "diff FILE",
		Short: "Diff a workspace file against its head revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := absPaths(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("context") {
				contextLines = a.cfg.Diff.Context
			}
			if contextLines < 0 {
				return fmt.Errorf("invalid context %d", contextLines)
			}
			svc, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			out, err := svc.DiffWithDepot(cmd.Context(), files[0], contextLines)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return render.Diff(w, out, a.theme(theme).For(w))
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: auto, light, dark, or none (default from config)")
	cmd.Flags().IntVarP(&contextLines, "context", "U", 3, "lines of context")
	return cmd
}
