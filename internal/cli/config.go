package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/promptlab/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
		Long: `Configuration is read from defaults, then the config file, then
PROMPTLAB_* environment variables, then flags.

Keys:
  db_path            SQLite database file
  execute.delay      simulated model latency (e.g. 1.5s, 0s)
  execute.tokenizer  random (default) or tiktoken
  execute.seed       seed for simulated statistics (0: random)
  auth.delay         simulated sign-in latency
  auth.required      require a signed-in session for playground commands
  log.level          debug, info, warn or error`,
	}

	cmd.AddCommand(newConfigShowCommand(rootOpts))
	cmd.AddCommand(newConfigInitCommand(rootOpts))
	return cmd
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the effective configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			return rootOpts.formatter(cmd).Render(cfg, func(w io.Writer) error {
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				_, err = w.Write(data)
				return err
			})
		},
	}
}

// ConfigInitOptions holds flags for the config init command.
type ConfigInitOptions struct {
	*RootOptions
	Force bool
}

func newConfigInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigInitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Long: `Write the default configuration as YAML. Without a path the file goes to
~/.promptlab/config.yaml. An existing file is kept unless --force is given.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(config.DefaultDir(), "config.yaml")
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigInit(opts, path, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func runConfigInit(opts *ConfigInitOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if err := ensureDir(filepath.Dir(path)); err != nil {
		return report(f, WrapExitError(ExitCommandError, "failed to create config directory", err))
	}
	if err := config.WriteDefault(path, opts.Force); err != nil {
		return report(f, badInputf("%v", err))
	}

	return f.Render(map[string]string{"path": path}, func(w io.Writer) error {
		fmt.Fprintf(w, "%s Wrote %s\n", styles.Success.Render(iconOK), path)
		return nil
	})
}

// ensureDir creates dir and its parents.
func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
