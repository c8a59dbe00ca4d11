package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/thiagokokada/plastic-go/internal/plastic"
)

func newRootDirCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "root [PATH]",
		Short: "Print the workspace root containing PATH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.CM.WorkspaceRoot
			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolve %s: %w", args[0], err)
				}
				path = abs
			}
			root, found := plastic.FindRootDirectory(path)
			if !found {
				return fmt.Errorf("%s is not in a workspace", path)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), root)
			return err
		},
	}
}

