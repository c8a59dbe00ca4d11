package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/thiagokokada/plastic-go/internal/plastic"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status FILE...",
		Short: "Show the workspace state of files",
		Args:  cobra.MinimumNArgs(1),
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

			states, errLines, ok := svc.UpdateStatus(cmd.Context(), files)
			outcome := plastic.CommandOutcome{Success: ok, ErrorMessages: errLines}
			for _, filter := range a.cfg.Status.RedundantErrors {
				plastic.RemoveRedundantErrors(&outcome, filter)
			}
			svc.UpdateCachedStates(states)

			for _, state := range states {
				printState(cmd.OutOrStdout(), svc.Root(), state)
			}
			for _, msg := range outcome.InfoMessages {
				slog.Info(msg)
			}
			for _, msg := range outcome.ErrorMessages {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}
			if !outcome.Success {
				return errors.New("status incomplete")
			}
			return nil
		},
	}
}

func printState(w io.Writer, root string, st plastic.FileState) {
	line := fmt.Sprintf("%-14s %s", stateColor(st).Sprint(st.WorkspaceState), relTo(root, st.Path))
	if st.LocalRevisionChangeset > 0 && st.IsSourceControlled() {
		line += fmt.Sprintf(" cs:%d", st.LocalRevisionChangeset)
		if !st.IsCurrent() {
			line += fmt.Sprintf(" (head cs:%d)", st.DepotRevisionChangeset)
		}
	}
	if owner := st.LockOwner(); owner != "" {
		line += " locked by " + owner
	}
	fmt.Fprintln(w, line)
}

func stateColor(st plastic.FileState) *color.Color {
	switch {
	case st.IsConflicted(), st.IsLockedByOther(), st.IsDeleted():
		return color.New(color.FgRed, color.Bold)
	case st.IsAdded():
		return color.New(color.FgGreen)
	case st.IsCheckedOut(), st.IsModified():
		return color.New(color.FgYellow)
	case st.IsIgnored(), !st.IsSourceControlled():
		return color.New(color.Faint)
	default:
		return color.New(color.Reset)
	}
}
