package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/promptlab/internal/prompt"
	"github.com/roach88/promptlab/internal/query"
)

// NewVersionsCommand creates the versions command group.
func NewVersionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "versions",
		Aliases: []string{"v"},
		Short:   "List, inspect and manage saved versions",
		Long: `Saved versions are referenced by id or by label (v1, v2, ...).

Examples:
  promptlab versions list --search tone --sort tokens --order asc
  promptlab versions show v3
  promptlab versions note v3 "best so far"
  promptlab versions delete v1 v2 --yes`,
	}

	cmd.AddCommand(newVersionsListCommand(rootOpts))
	cmd.AddCommand(newVersionsShowCommand(rootOpts))
	cmd.AddCommand(newVersionsNoteCommand(rootOpts))
	cmd.AddCommand(newVersionsDeleteCommand(rootOpts))
	cmd.AddCommand(newVersionsLoadCommand(rootOpts))
	cmd.AddCommand(newVersionsDuplicateCommand(rootOpts))
	cmd.AddCommand(newVersionsModelsCommand(rootOpts))
	return cmd
}

// ListOptions holds flags for the versions list command.
type ListOptions struct {
	*RootOptions
	Search string
	Model  string
	Sort   string
	Order  string
}

// VersionList is the payload of versions list.
type VersionList struct {
	Shown    int              `json:"shown" yaml:"shown"`
	Total    int              `json:"total" yaml:"total"`
	Versions []prompt.Version `json:"versions" yaml:"versions"`
}

func newVersionsListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved versions",
		Long: `List saved versions, newest first by default.

--search matches the note, system prompt, user prompt, model and vN label
case-insensitively. Output text is not searched.
--model keeps one model ("all" disables the filter).
--sort is one of version, timestamp, model, tokens; --order is asc or desc.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersionsList(opts, cmd)
		},
	}

	def := query.Default()
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "case-insensitive text search")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", def.Model, "only versions run with this model")
	cmd.Flags().StringVar(&opts.Sort, "sort", string(def.Sort), "sort field (version|timestamp|model|tokens)")
	cmd.Flags().StringVar(&opts.Order, "order", string(def.Order), "sort order (asc|desc)")

	return cmd
}

func (o *ListOptions) query() (query.Query, error) {
	field, err := query.ParseSortField(o.Sort)
	if err != nil {
		return query.Query{}, badInputf("%v", err)
	}
	order, err := query.ParseSortOrder(o.Order)
	if err != nil {
		return query.Query{}, badInputf("%v", err)
	}
	return query.Query{Search: o.Search, Model: o.Model, Sort: field, Order: order}, nil
}

func runVersionsList(opts *ListOptions, cmd *cobra.Command) error {
	q, err := opts.query()
	if err != nil {
		return report(opts.formatter(cmd), err)
	}

	return withApp(opts.RootOptions, cmd, true, func(ctx context.Context, app *App) error {
		list := app.Playground.Query(q)
		payload := VersionList{Shown: len(list), Total: app.Versions.Len(), Versions: list}

		return opts.formatter(cmd).Render(payload, func(w io.Writer) error {
			renderVersionList(w, payload)
			return nil
		})
	})
}

func renderVersionList(w io.Writer, list VersionList) {
	if list.Total == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No versions saved yet. Run the draft, then 'promptlab save'."))
		return
	}
	if list.Shown == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No versions match."))
		return
	}

	rows := make([][]string, 0, len(list.Versions))
	for _, v := range list.Versions {
		rows = append(rows, []string{
			v.Label(),
			v.Model,
			numbers.Sprintf("%d", v.Metadata.TotalTokens()),
			numbers.Sprintf("%d ms", v.Metadata.LatencyMs),
			truncate(v.UserPrompt, 32),
			truncate(v.Note, 24),
			v.Timestamp.Local().Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Version", "Model", "Tokens", "Latency", "User prompt", "Note", "Saved"},
		rows, nil,
	))
	fmt.Fprintln(w, styles.Muted.Render(fmt.Sprintf("%d of %d versions", list.Shown, list.Total)))
}

func newVersionsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id|vN>",
		Short:         "Print one version",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, true, func(ctx context.Context, app *App) error {
				v, err := app.Versions.Resolve(args[0])
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Render(v, func(w io.Writer) error {
					renderVersion(w, v)
					return nil
				})
			})
		},
	}
}

func renderVersion(w io.Writer, v prompt.Version) {
	fmt.Fprintf(w, "%s %s\n", styles.Title.Render(v.Label()), styles.Muted.Render(v.ID))
	fmt.Fprintln(w, field("Saved", v.Timestamp.Local().Format("2006-01-02 15:04:05")))
	if v.Note != "" {
		fmt.Fprintln(w, field("Note", v.Note))
	}
	renderConfig(w, v.Config)
	fmt.Fprintln(w)
	renderOutput(w, v.Output, v.Metadata)
}

func newVersionsNoteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "note <id|vN> <note>",
		Short: "Replace the note of a version",
		Long: `Replace the note of a version. Nothing else about a saved version can change.
An empty note clears it.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, true, func(ctx context.Context, app *App) error {
				v, err := app.Versions.Resolve(args[0])
				if err != nil {
					return err
				}
				if err := app.Versions.UpdateNote(ctx, v.ID, args[1]); err != nil {
					return err
				}
				v.Note = args[1]
				return rootOpts.formatter(cmd).Render(v, func(w io.Writer) error {
					fmt.Fprintf(w, "%s Note updated on %s\n", styles.Success.Render(iconOK), v.Label())
					return nil
				})
			})
		},
	}
}

// DeleteOptions holds flags for the versions delete command.
type DeleteOptions struct {
	*RootOptions
	Yes bool
}

// DeleteResult is the payload of versions delete.
type DeleteResult struct {
	Removed int      `json:"removed" yaml:"removed"`
	IDs     []string `json:"ids" yaml:"ids"`
}

func newVersionsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <id|vN>...",
		Short: "Permanently delete one or more versions",
		Long: `Permanently delete versions. Several references are removed together as one
update. Remaining versions keep their numbers, and deleted numbers are not
reused.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersionsDelete(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func runVersionsDelete(opts *DeleteOptions, refs []string, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, true, func(ctx context.Context, app *App) error {
		f := opts.formatter(cmd)

		targets := make([]prompt.Version, 0, len(refs))
		for _, ref := range refs {
			v, err := app.Versions.Resolve(ref)
			if err != nil {
				return err
			}
			targets = append(targets, v)
		}

		if !opts.Yes && !confirm(cmd, deletePrompt(targets)) {
			fmt.Fprintln(f.GetErrWriter(), "Aborted.")
			return nil
		}

		ids := make([]string, len(targets))
		for i, v := range targets {
			ids[i] = v.ID
		}

		res := DeleteResult{IDs: ids}
		if len(ids) == 1 {
			if err := app.Versions.DeleteOne(ctx, ids[0]); err != nil {
				return err
			}
			res.Removed = 1
		} else {
			n, err := app.Versions.DeleteMany(ctx, ids)
			if err != nil {
				return err
			}
			res.Removed = n
		}

		return f.Render(res, func(w io.Writer) error {
			fmt.Fprintf(w, "%s Deleted %d version(s)\n", styles.Success.Render(iconOK), res.Removed)
			return nil
		})
	})
}

func deletePrompt(targets []prompt.Version) string {
	labels := make([]string, len(targets))
	for i, v := range targets {
		labels[i] = v.Label()
	}
	return fmt.Sprintf("Permanently delete %s?", strings.Join(labels, ", "))
}

// confirm asks a yes/no question on stderr and reads the answer from stdin.
// Anything but y or yes is a no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func newVersionsLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <id|vN>",
		Short: "Copy a version's config and result into the draft",
		Long: `Copy a version's config, output and statistics into the draft, replacing
it. The loaded draft can be re-run or saved again as a new version.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, true, func(ctx context.Context, app *App) error {
				v, err := app.Playground.Load(ctx, args[0])
				if err != nil {
					return err
				}
				d := app.Playground.Draft()
				return rootOpts.formatter(cmd).Render(d, func(w io.Writer) error {
					fmt.Fprintf(w, "%s Loaded %s into the draft\n", styles.Success.Render(iconOK), v.Label())
					return nil
				})
			})
		},
	}
}

func newVersionsDuplicateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id|vN>",
		Short: "Copy a version's config into the draft without its result",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, true, func(ctx context.Context, app *App) error {
				v, err := app.Playground.Duplicate(ctx, args[0])
				if err != nil {
					return err
				}
				d := app.Playground.Draft()
				return rootOpts.formatter(cmd).Render(d, func(w io.Writer) error {
					fmt.Fprintf(w, "%s Copied the config of %s into the draft\n", styles.Success.Render(iconOK), v.Label())
					return nil
				})
			})
		},
	}
}

func newVersionsModelsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "models",
		Short:         "List the distinct models of saved versions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, true, func(ctx context.Context, app *App) error {
				models := app.Versions.Models()
				return rootOpts.formatter(cmd).Render(models, func(w io.Writer) error {
					if len(models) == 0 {
						fmt.Fprintln(w, styles.Muted.Render("No versions saved yet."))
						return nil
					}
					for _, m := range models {
						fmt.Fprintln(w, m)
					}
					return nil
				})
			})
		},
	}
}
