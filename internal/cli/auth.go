package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roach88/promptlab/internal/auth"
)

// NewAuthCommand creates the auth command group.
func NewAuthCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in, sign up and sign out",
		Long: `Accounts are local and simulated. The demo account is always available:

  email:    ` + auth.DemoEmail + `
  password: ` + auth.DemoPassword + `

When auth.required is set in the config, playground commands need a
signed-in session.`,
	}

	cmd.AddCommand(newAuthSignInCommand(rootOpts))
	cmd.AddCommand(newAuthSignUpCommand(rootOpts))
	cmd.AddCommand(newAuthSignOutCommand(rootOpts))
	cmd.AddCommand(newAuthWhoAmICommand(rootOpts))
	return cmd
}

// SignInOptions holds flags for the auth signin command.
type SignInOptions struct {
	*RootOptions
	Email    string
	Password string
}

func newAuthSignInCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SignInOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		Long: `Sign in with email and password. A password not given with --password is
read from stdin.

Example:
  promptlab auth signin --email demo@example.com --password demo123`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignIn(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "account email (required)")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runSignIn(opts *SignInOptions, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, false, func(ctx context.Context, app *App) error {
		in := bufio.NewReader(cmd.InOrStdin())
		password := opts.Password
		if !cmd.Flags().Changed("password") {
			password = readSecret(cmd, in, "Password")
		}

		user, err := app.Auth.SignIn(ctx, opts.Email, password)
		if err != nil {
			return err
		}
		return opts.formatter(cmd).Render(user, func(w io.Writer) error {
			fmt.Fprintf(w, "%s Signed in as %s\n", styles.Success.Render(iconOK), displayName(user))
			return nil
		})
	})
}

// SignUpOptions holds flags for the auth signup command.
type SignUpOptions struct {
	*RootOptions
	Email    string
	Password string
	Confirm  string
	Name     string
}

func newAuthSignUpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SignUpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a local account and sign in",
		Long: `Register a local account and sign in. Passwords need at least 6 characters.
Passwords not given with flags are read from stdin, one per line.

Example:
  promptlab auth signup --email me@example.com --name Me --password secret1 --confirm secret1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignUp(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "account email (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&opts.Confirm, "confirm", "", "password again")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runSignUp(opts *SignUpOptions, cmd *cobra.Command) error {
	return withApp(opts.RootOptions, cmd, false, func(ctx context.Context, app *App) error {
		in := bufio.NewReader(cmd.InOrStdin())
		password, confirmation := opts.Password, opts.Confirm
		if !cmd.Flags().Changed("password") {
			password = readSecret(cmd, in, "Password")
		}
		if !cmd.Flags().Changed("confirm") {
			confirmation = readSecret(cmd, in, "Confirm password")
		}

		user, err := app.Auth.SignUp(ctx, auth.SignUpInput{
			Email:    opts.Email,
			Password: password,
			Confirm:  confirmation,
			Name:     opts.Name,
		})
		if err != nil {
			return err
		}
		return opts.formatter(cmd).Render(user, func(w io.Writer) error {
			fmt.Fprintf(w, "%s Registered and signed in as %s\n", styles.Success.Render(iconOK), displayName(user))
			return nil
		})
	})
}

func newAuthSignOutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "signout",
		Short:         "Sign out",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, false, func(ctx context.Context, app *App) error {
				if err := app.Auth.SignOut(ctx); err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Render(map[string]bool{"authenticated": false}, func(w io.Writer) error {
					fmt.Fprintf(w, "%s Signed out\n", styles.Success.Render(iconOK))
					return nil
				})
			})
		},
	}
}

// WhoAmI is the payload of auth whoami.
type WhoAmI struct {
	Authenticated bool       `json:"authenticated" yaml:"authenticated"`
	User          *auth.User `json:"user,omitempty" yaml:"user,omitempty"`
}

func newAuthWhoAmICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Print the signed-in user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, false, func(ctx context.Context, app *App) error {
				var who WhoAmI
				if user, ok := app.Auth.Current(); ok {
					who = WhoAmI{Authenticated: true, User: &user}
				}
				return rootOpts.formatter(cmd).Render(who, func(w io.Writer) error {
					if !who.Authenticated {
						fmt.Fprintln(w, styles.Muted.Render("Not signed in."))
						return nil
					}
					fmt.Fprintln(w, field("User", displayName(*who.User)))
					fmt.Fprintln(w, field("ID", who.User.ID))
					return nil
				})
			})
		},
	}
}

// readSecret prompts on stderr and reads one line. A terminal on stdin is
// read without echo; piped input falls back to in.
func readSecret(cmd *cobra.Command, in *bufio.Reader, label string) string {
	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "%s: ", label)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stderr)
		if err == nil {
			return string(secret)
		}
	}

	line, _ := in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func displayName(u auth.User) string {
	if u.Name == "" {
		return u.Email
	}
	return fmt.Sprintf("%s <%s>", u.Name, u.Email)
}
