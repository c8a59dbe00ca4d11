package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history FILE",
		Short: "List the revisions of a file, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := absPaths(args)
			if err != nil {
				return err
			}
			svc, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			history, errLines, ok := svc.GetHistory(cmd.Context(), files[0])
			w := cmd.OutOrStdout()
			for _, rev := range history {
				fmt.Fprintf(w, "cs:%-6d #%-4d %s %-8s %s %s\n",
					rev.ChangesetNumber,
					rev.RevisionNumber,
					rev.Date.Format("2006-01-02 15:04"),
					rev.Action,
					rev.Author,
					rev.Filename,
				)
				if rev.RenamedFrom != nil {
					fmt.Fprintf(w, "    renamed from %s\n", rev.RenamedFrom.Filename)
				}
				if desc := strings.TrimSpace(rev.Description); desc != "" {
					fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(desc, "\n", "\n    "))
				}
			}
			for _, msg := range errLines {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}
			if !ok {
				return errors.New("history incomplete")
			}
			return nil
		},
	}
}
