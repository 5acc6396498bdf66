package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/promptlab/internal/execute"
	"github.com/roach88/promptlab/internal/prompt"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute the draft against the simulated model",
		Long: `Execute the draft and keep its output and statistics as the last result.

The draft is validated first: a model is required, temperature must be
between 0 and 1 and max tokens between 1 and 4096. The simulated model
waits execute.delay before answering; Ctrl-C cancels the wait.

Example:
  promptlab run
  promptlab run --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(rootOpts, cmd)
		},
	}
}

func runExecute(opts *RootOptions, cmd *cobra.Command) error {
	return withApp(opts, cmd, true, func(ctx context.Context, app *App) error {
		f := opts.formatter(cmd)
		f.VerboseLog("running %s", app.Playground.Draft().Config.Model)

		res, err := app.Playground.Run(ctx)
		if err != nil {
			return err
		}
		slog.Debug("run complete", "tokens", res.Metadata.TotalTokens())

		return f.Render(res, func(w io.Writer) error {
			renderResult(w, res)
			return nil
		})
	})
}

func renderResult(w io.Writer, res execute.Result) {
	fmt.Fprintf(w, "%s %s\n", styles.Success.Render(iconOK), styles.Title.Render("Run complete"))
	renderOutput(w, res.Output, res.Metadata)
}

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Note string
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the draft and its last result as a new version",
		Long: `Save the draft config together with the output and statistics of its last
run. Versions are numbered v1, v2, ... in save order; numbers are never
reused, even after deletions. Saving requires a prior run.

Example:
  promptlab save --note "shorter system prompt"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Note, "note", "n", "", "note stored with the version")

	return cmd
}

func runSave(opts *SaveOptions, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, true, func(ctx context.Context, app *App) error {
		v, err := app.Playground.Save(ctx, opts.Note)
		if err != nil {
			return err
		}
		return opts.formatter(cmd).Render(v, func(w io.Writer) error {
			renderSaved(w, v)
			return nil
		})
	})
}

func renderSaved(w io.Writer, v prompt.Version) {
	fmt.Fprintf(w, "%s Saved %s %s\n",
		styles.Success.Render(iconOK),
		styles.Title.Render(v.Label()),
		styles.Muted.Render("("+v.ID+")"),
	)
}
