package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/promptlab/internal/auth"
	"github.com/roach88/promptlab/internal/compare"
	"github.com/roach88/promptlab/internal/config"
	"github.com/roach88/promptlab/internal/execute"
	"github.com/roach88/promptlab/internal/playground"
	"github.com/roach88/promptlab/internal/prompt"
	"github.com/roach88/promptlab/internal/store"
	"github.com/roach88/promptlab/internal/versions"
)

// CLI error codes.
const (
	ErrCodeGeneric      = "E_INTERNAL"
	ErrCodeNotFound     = "E_NOT_FOUND"
	ErrCodeNoResult     = "E_NO_RESULT"
	ErrCodeValidation   = "E_VALIDATION"
	ErrCodeCompare      = "E_COMPARE"
	ErrCodeBusy         = "E_BUSY"
	ErrCodeAuth         = "E_AUTH"
	ErrCodeAuthRequired = "E_AUTH_REQUIRED"
	ErrCodeDatabase     = "E_DATABASE"
	ErrCodeTestFailed   = "E_TEST_FAILED"
	ErrCodeBadInput     = "E_BAD_INPUT"
)

// App is the wired set of services one command works against.
type App struct {
	Store      *store.Store
	Versions   *versions.Store
	Playground *playground.Playground
	Auth       *auth.Service

	cfg *config.Config
}

// openApp opens the database and wires the services over it.
// The caller must Close the returned App.
func openApp(ctx context.Context, cfg *config.Config) (*App, error) {
	slog.Debug("opening database", "path", cfg.DBPath)
	st, err := store.OpenDefault(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	app, err := wire(ctx, st, cfg)
	if err != nil {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
		return nil, WrapExitError(ExitCommandError, "failed to load workspace", err)
	}
	return app, nil
}

func wire(ctx context.Context, st *store.Store, cfg *config.Config) (*App, error) {
	logger := slog.Default()

	vs, err := versions.Open(ctx, st, versions.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	mockOpts := []execute.MockOption{
		execute.WithDelay(cfg.Execute.Delay),
		execute.WithLogger(logger),
	}
	if cfg.Execute.Seed != 0 {
		mockOpts = append(mockOpts, execute.WithSeed(cfg.Execute.Seed))
	}
	if cfg.Execute.Tokenizer == config.TokenizerTiktoken {
		counter, err := execute.NewTiktokenCounter()
		if err != nil {
			logger.Warn("tokenizer unavailable, using simulated input tokens", "error", err)
		} else {
			mockOpts = append(mockOpts, execute.WithTokenCounter(counter))
		}
	}

	pg, err := playground.New(ctx, st, vs, execute.NewMock(mockOpts...), playground.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	svc, err := auth.NewService(ctx, st,
		auth.WithDelay(cfg.Auth.Delay),
		auth.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &App{Store: st, Versions: vs, Playground: pg, Auth: svc, cfg: cfg}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}

var (
	errSignInRequired = errors.New("sign in required: run 'promptlab auth signin'")
	errBadInput       = errors.New("invalid input")
)

// badInputf reports a malformed argument or flag value.
func badInputf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errBadInput}, args...)...)
}

// requireSession fails when auth.required is set and nobody is signed in.
func (a *App) requireSession() error {
	if !a.cfg.Auth.Required {
		return nil
	}
	if _, ok := a.Auth.Current(); ok {
		return nil
	}
	return errSignInRequired
}

// withApp opens the workspace, runs fn and closes it. Playground commands
// pass gated to require a session when auth.required is set.
func withApp(opts *RootOptions, cmd *cobra.Command, gated bool, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := openApp(ctx, opts.Config)
	if err != nil {
		return report(opts.formatter(cmd), err)
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if gated {
		if err := app.requireSession(); err != nil {
			return report(opts.formatter(cmd), err)
		}
	}

	if err := fn(ctx, app); err != nil {
		return report(opts.formatter(cmd), err)
	}
	return nil
}

// report writes err through f and returns it as a reported ExitError.
func report(f *OutputFormatter, err error) error {
	exitErr := classify(err)
	if ferr := f.Error(errorCode(err), exitErr.Error(), errorDetails(err)); ferr != nil {
		return ferr
	}
	exitErr.Reported = true
	return exitErr
}

// classify maps domain errors to exit codes. Explicit outcomes (not found,
// nothing to save, invalid input) exit 1; anything unexpected exits 2.
func classify(err error) *ExitError {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if errorCode(err) == ErrCodeGeneric {
		return WrapExitError(ExitCommandError, "command failed", err)
	}
	return NewExitError(ExitFailure, err.Error())
}

// errorCode names the category of err for structured output.
func errorCode(err error) string {
	var exitErr *ExitError
	switch {
	case errors.Is(err, versions.ErrNotFound), errors.Is(err, compare.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, versions.ErrNoResult):
		return ErrCodeNoResult
	case errors.Is(err, compare.ErrSameVersion),
		errors.Is(err, compare.ErrNotReady),
		errors.Is(err, compare.ErrNotEnoughVersions),
		errors.Is(err, compare.ErrUnknownSlot):
		return ErrCodeCompare
	case errors.Is(err, execute.ErrBusy):
		return ErrCodeBusy
	case prompt.IsValidationError(err):
		return ErrCodeValidation
	case auth.IsValidationError(err):
		return ErrCodeAuth
	case errors.Is(err, errSignInRequired):
		return ErrCodeAuthRequired
	case errors.Is(err, errBadInput):
		return ErrCodeBadInput
	case errors.As(err, &exitErr) && exitErr.Code == ExitCommandError:
		return ErrCodeDatabase
	case errors.As(err, &exitErr):
		return ErrCodeTestFailed
	default:
		return ErrCodeGeneric
	}
}

// errorDetails returns per-field detail for validation failures.
func errorDetails(err error) any {
	var pve *prompt.ValidationError
	if errors.As(err, &pve) {
		return pve.Fields
	}
	return nil
}
