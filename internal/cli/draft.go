package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/promptlab/internal/playground"
	"github.com/roach88/promptlab/internal/prompt"
)

// DraftSetOptions holds flags for the draft set command.
type DraftSetOptions struct {
	*RootOptions
	System      string
	User        string
	Variables   string
	Model       string
	Temperature float64
	MaxTokens   int
	SystemFile  string
	UserFile    string
}

// NewDraftCommand creates the draft command group.
func NewDraftCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Show and edit the working prompt",
		Long: `The draft is the prompt being edited: system and user prompts, variables,
model, temperature and max tokens, plus the output of its last run.`,
	}

	cmd.AddCommand(newDraftShowCommand(rootOpts))
	cmd.AddCommand(newDraftSetCommand(rootOpts))
	cmd.AddCommand(newDraftResetCommand(rootOpts))
	return cmd
}

func newDraftShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the draft and its last result",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, true, func(ctx context.Context, app *App) error {
				d := app.Playground.Draft()
				return rootOpts.formatter(cmd).Render(d, func(w io.Writer) error {
					renderDraft(w, d)
					return nil
				})
			})
		},
	}
}

func newDraftSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DraftSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change draft fields",
		Long: `Change one or more draft fields. Only the flags given are changed.

Variables are a JSON object; {{name}} placeholders in either prompt are
replaced with its values when the draft runs.

Examples:
  promptlab draft set --system "You are terse." --user "Summarize {{topic}}"
  promptlab draft set --variables '{"topic": "tides"}' --model gpt-4o
  promptlab draft set --user-file prompt.txt --temperature 0.2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraftSet(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.System, "system", "", "system prompt")
	cmd.Flags().StringVar(&opts.User, "user", "", "user prompt")
	cmd.Flags().StringVar(&opts.Variables, "variables", "", "variables as a JSON object")
	cmd.Flags().StringVar(&opts.Model, "model", "", "model name (e.g. "+strings.Join(prompt.KnownModels, ", ")+")")
	cmd.Flags().Float64Var(&opts.Temperature, "temperature", 0, "sampling temperature (0 to 1)")
	cmd.Flags().IntVar(&opts.MaxTokens, "max-tokens", 0, "maximum output tokens (1 to 4096)")
	cmd.Flags().StringVar(&opts.SystemFile, "system-file", "", "read the system prompt from a file")
	cmd.Flags().StringVar(&opts.UserFile, "user-file", "", "read the user prompt from a file")
	cmd.MarkFlagsMutuallyExclusive("system", "system-file")
	cmd.MarkFlagsMutuallyExclusive("user", "user-file")
	_ = cmd.RegisterFlagCompletionFunc("model", completeModel)

	return cmd
}

// completeModel offers the known models matching the typed prefix.
func completeModel(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var models []string
	for _, m := range prompt.KnownModels {
		if strings.HasPrefix(m, toComplete) {
			models = append(models, m)
		}
	}
	return models, cobra.ShellCompDirectiveNoFileComp
}

func runDraftSet(opts *DraftSetOptions, cmd *cobra.Command) error {
	patch, err := opts.patch(cmd)
	if err != nil {
		return report(opts.formatter(cmd), err)
	}
	if patch.Empty() {
		return report(opts.formatter(cmd), badInputf("no fields given; see 'promptlab draft set --help'"))
	}

	return withApp(opts.RootOptions, cmd, true, func(ctx context.Context, app *App) error {
		if _, err := app.Playground.SetConfig(ctx, patch); err != nil {
			return err
		}
		d := app.Playground.Draft()
		return opts.formatter(cmd).Render(d, func(w io.Writer) error {
			fmt.Fprintf(w, "%s Draft updated\n", styles.Success.Render(iconOK))
			if opts.Verbose {
				renderDraft(w, d)
			}
			return nil
		})
	})
}

// patch builds a ConfigPatch from the flags that were set.
func (o *DraftSetOptions) patch(cmd *cobra.Command) (prompt.ConfigPatch, error) {
	var p prompt.ConfigPatch
	flags := cmd.Flags()

	if flags.Changed("system") {
		p.SystemPrompt = &o.System
	}
	if flags.Changed("system-file") {
		text, err := readPromptFile(o.SystemFile)
		if err != nil {
			return p, err
		}
		p.SystemPrompt = &text
	}
	if flags.Changed("user") {
		p.UserPrompt = &o.User
	}
	if flags.Changed("user-file") {
		text, err := readPromptFile(o.UserFile)
		if err != nil {
			return p, err
		}
		p.UserPrompt = &text
	}
	if flags.Changed("variables") {
		if _, err := prompt.ParseVariables(o.Variables); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s variables are not a JSON object; prompts will run without substitution\n",
				styles.Warning.Render("warning:"))
		}
		p.Variables = &o.Variables
	}
	if flags.Changed("model") {
		p.Model = &o.Model
	}
	if flags.Changed("temperature") {
		p.Temperature = &o.Temperature
	}
	if flags.Changed("max-tokens") {
		p.MaxTokens = &o.MaxTokens
	}
	return p, nil
}

func readPromptFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", badInputf("failed to read prompt file: %v", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func newDraftResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reset",
		Short:         "Restore the default draft and clear the last result",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, true, func(ctx context.Context, app *App) error {
				if err := app.Playground.Reset(ctx); err != nil {
					return err
				}
				d := app.Playground.Draft()
				return rootOpts.formatter(cmd).Render(d, func(w io.Writer) error {
					fmt.Fprintf(w, "%s Draft reset\n", styles.Success.Render(iconOK))
					return nil
				})
			})
		},
	}
}

func renderDraft(w io.Writer, d playground.Draft) {
	fmt.Fprintln(w, styles.Title.Render("Draft"))
	renderConfig(w, d.Config)

	if !d.HasRun() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.Muted.Render("Not run yet. Use 'promptlab run'."))
		return
	}
	fmt.Fprintln(w)
	renderOutput(w, d.Output, *d.Metadata)
}

func renderConfig(w io.Writer, c prompt.Config) {
	fmt.Fprintf(w, "%s  %s  %s\n",
		field("Model", c.Model),
		field("Temperature", fmt.Sprintf("%.2f", c.Temperature)),
		field("Max tokens", numbers.Sprintf("%d", c.MaxTokens)),
	)
	renderBlock(w, "System prompt", c.SystemPrompt)
	renderBlock(w, "User prompt", c.UserPrompt)
	renderBlock(w, "Variables", c.Variables)
}

func renderOutput(w io.Writer, output string, md prompt.Metadata) {
	renderBlock(w, "Output", output)
	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		field("Input tokens", numbers.Sprintf("%d", md.InputTokens)),
		field("Output tokens", numbers.Sprintf("%d", md.OutputTokens)),
		field("Total", numbers.Sprintf("%d", md.TotalTokens())),
		field("Latency", numbers.Sprintf("%d ms", md.LatencyMs)),
	)
}

func renderBlock(w io.Writer, label, text string) {
	fmt.Fprintln(w, styles.Label.Render(label+":"))
	if text == "" {
		fmt.Fprintln(w, styles.Muted.Render("  (empty)"))
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintln(w, "  "+line)
	}
}
