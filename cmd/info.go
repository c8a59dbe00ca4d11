package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cm, identity and repository details for the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			info := svc.Info()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Root:       %s\n", svc.Root())
			fmt.Fprintf(w, "cm:         %s\n", info.Version)
			fmt.Fprintf(w, "User:       %s\n", info.Identity.UserName)
			fmt.Fprintf(w, "Workspace:  %s\n", info.Identity.WorkspaceName)
			fmt.Fprintf(w, "Repository: %s\n", info.Repository.RepositoryName)
			fmt.Fprintf(w, "Server:     %s\n", info.Repository.ServerURL)
			fmt.Fprintf(w, "Changeset:  %s\n", info.Repository.Changeset)
			fmt.Fprintf(w, "Branch:     %s\n", info.BranchName)
			return nil
		},
	}
}
