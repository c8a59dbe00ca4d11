package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thiagokokada/plastic-go/internal/plastic"
	"github.com/thiagokokada/plastic-go/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print state changes of workspace files until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			w, err := watch.New(svc.Root(), svc, watch.Options{
				Delay:  a.cfg.Watch.Debounce(),
				Ignore: a.cfg.Watch.Ignore,
				OnUpdate: func(states []plastic.FileState, changed bool) {
					if !changed {
						return
					}
					for _, st := range states {
						printState(out, svc.Root(), st)
					}
				},
			})
			if err != nil {
				return err
			}
			defer w.Close()

			slog.Info("watching workspace", slog.String("root", svc.Root()))
			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			slog.Info("watch stopped", slog.Int("cached", svc.Cache().Len()))
			printPending(out, svc.Root(), svc.Cache().Snapshot())
			return nil
		},
	}
}

// printPending lists the cached files that still carry local changes or a
// foreign lock.
func printPending(w io.Writer, root string, states []plastic.FileState) {
	var pending []plastic.FileState
	for _, st := range states {
		if st.IsModified() || st.IsLockedByOther() {
			pending = append(pending, st)
		}
	}
	if len(pending) == 0 {
		return
	}
	fmt.Fprintf(w, "%d pending file(s):\n", len(pending))
	for _, st := range pending {
		printState(w, root, st)
	}
}
