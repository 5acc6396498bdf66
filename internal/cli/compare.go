package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/promptlab/internal/compare"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Diff bool
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two saved versions side by side",
		Long: `Compare two different saved versions: model, token counts, latency,
temperature and max tokens side by side, with differing rows highlighted.
--diff adds unified diffs of the prompts and outputs.

Example:
  promptlab compare v1 v3 --diff`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Diff, "diff", "d", false, "show unified diffs of prompts and output")

	return cmd
}

func runCompare(opts *CompareOptions, refA, refB string, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, true, func(ctx context.Context, app *App) error {
		sel := app.Playground.Selector()

		for _, pick := range []struct {
			slot compare.Slot
			ref  string
		}{
			{compare.SlotA, refA},
			{compare.SlotB, refB},
		} {
			v, err := app.Versions.Resolve(pick.ref)
			if err != nil {
				return err
			}
			if err := sel.Select(pick.slot, v.ID); err != nil {
				return err
			}
		}

		c, err := sel.Compare()
		if err != nil {
			return err
		}
		if !opts.Diff {
			c.Diffs = nil
		}

		return opts.formatter(cmd).Render(c, func(w io.Writer) error {
			renderComparison(w, c)
			return nil
		})
	})
}

func renderComparison(w io.Writer, c compare.Comparison) {
	fmt.Fprintf(w, "%s %s vs %s\n",
		styles.Title.Render("Compare"),
		styles.Label.Render(c.A.Label()),
		styles.Label.Render(c.B.Label()),
	)

	rows := make([][]string, len(c.Rows))
	for i, r := range c.Rows {
		rows[i] = []string{r.Label, r.A, r.B}
	}
	fmt.Fprintln(w, renderTable(
		[]string{"", c.A.Label(), c.B.Label()},
		rows,
		func(row int) bool { return row >= 0 && row < len(c.Rows) && c.Rows[row].Differs },
	))
	if c.SameConfig {
		fmt.Fprintln(w, styles.Muted.Render("Both versions were run with the same config."))
	}

	for _, d := range c.Diffs {
		fmt.Fprintln(w)
		if !d.Changed() {
			fmt.Fprintf(w, "%s %s\n", styles.Label.Render(d.Field+":"), styles.Muted.Render("identical"))
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n",
			styles.Label.Render(d.Field+":"),
			styles.Added.Render(fmt.Sprintf("+%d", d.Added)),
			styles.Removed.Render(fmt.Sprintf("-%d", d.Deleted)),
		)
		renderUnified(w, d.Unified)
	}
}

// renderUnified colors added and removed lines of a unified diff.
func renderUnified(w io.Writer, unified string) {
	for _, line := range strings.Split(strings.TrimSuffix(unified, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprintln(w, styles.Label.Render(line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprintln(w, styles.Muted.Render(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprintln(w, styles.Added.Render(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintln(w, styles.Removed.Render(line))
		default:
			fmt.Fprintln(w, line)
		}
	}
}
