package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thiagokokada/plastic-go/internal/plastic"
	"github.com/thiagokokada/plastic-go/internal/render"
)

func newCatCmd(a *app) *cobra.Command {
	var theme string
	cmd := &cobra.Command{
		Use:   "cat REVSPEC [DEST]",
		Short: "Write the content of a revision to DEST, or print it",
		Long: `cat runs a standalone "cm cat" so binary revisions are written untouched.
Without DEST the revision is printed, highlighted by file type.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			revSpec := args[0]
			if len(args) == 2 {
				return dumpToFile(cmd.Context(), a.cfg.CM.Binary, revSpec, args[1])
			}

			tmp, err := plastic.NewTempFile("", "")
			if err != nil {
				return err
			}
			defer tmp.Close()
			if err := dumpToFile(cmd.Context(), a.cfg.CM.Binary, revSpec, tmp.Path()); err != nil {
				return err
			}
			content, err := os.ReadFile(tmp.Path())
			if err != nil {
				return fmt.Errorf("read dump: %w", err)
			}
			out := cmd.OutOrStdout()
			if plastic.IsBinary(content) {
				_, err := out.Write(content)
				return err
			}
			return render.Source(out, revSpec, string(content), a.theme(theme).For(out))
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: auto, light, dark, or none (default from config)")
	return cmd
}

// theme returns the flag value when set, else the configured diff theme.
func (a *app) theme(flag string) render.Theme {
	if flag != "" {
		return render.ThemeFromString(flag)
	}
	return render.ThemeFromString(a.cfg.Diff.Theme)
}
