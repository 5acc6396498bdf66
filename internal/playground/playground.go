package playground

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/promptlab/internal/compare"
	"github.com/roach88/promptlab/internal/execute"
	"github.com/roach88/promptlab/internal/prompt"
	"github.com/roach88/promptlab/internal/query"
	"github.com/roach88/promptlab/internal/store"
	"github.com/roach88/promptlab/internal/versions"
)

// Draft is the editable config plus the result of its last run.
// Metadata is nil until something has been run.
type Draft struct {
	Config   prompt.Config    `json:"config" yaml:"config"`
	Output   string           `json:"output" yaml:"output"`
	Metadata *prompt.Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// HasRun reports whether the draft carries an execution result.
func (d Draft) HasRun() bool {
	return d.Metadata != nil
}

// RecordStore holds named JSON documents. store.Store implements it.
type RecordStore interface {
	GetRecord(ctx context.Context, name string, dst any) error
	PutRecord(ctx context.Context, name string, v any) error
}

// Playground is the state container behind every user-facing operation.
//
// Thread-safety: safe for concurrent use. Run does not hold the draft lock
// while executing; concurrent runs are rejected by the guard.
type Playground struct {
	records   RecordStore
	versions  *versions.Store
	guard     *execute.Guard
	projector *query.Projector
	logger    *slog.Logger

	mu    sync.Mutex
	draft Draft
}

// Option configures a Playground.
type Option func(*Playground)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Playground) {
		p.logger = l
	}
}

// New restores the persisted draft, or starts from the default config.
func New(ctx context.Context, records RecordStore, vs *versions.Store, exec execute.Executor, opts ...Option) (*Playground, error) {
	p := &Playground{
		records:   records,
		versions:  vs,
		guard:     execute.NewGuard(exec),
		projector: query.NewProjector(vs),
		logger:    slog.Default(),
		draft:     Draft{Config: prompt.DefaultConfig()},
	}
	for _, opt := range opts {
		opt(p)
	}

	var d Draft
	err := records.GetRecord(ctx, store.RecordDraft, &d)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("load draft: %w", err)
	default:
		p.draft = d
	}
	return p, nil
}

// Draft returns a copy of the current draft.
func (p *Playground) Draft() Draft {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyDraft(p.draft)
}

// Versions returns the versions store.
func (p *Playground) Versions() *versions.Store {
	return p.versions
}

// SetConfig merges patch into the draft config and persists the draft.
// The last result is kept. Values are validated on Run, not here.
func (p *Playground) SetConfig(ctx context.Context, patch prompt.ConfigPatch) (prompt.Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := copyDraft(p.draft)
	next.Config = next.Config.Apply(patch)
	if err := p.persist(ctx, next); err != nil {
		return prompt.Config{}, err
	}
	return next.Config, nil
}

// Run validates the draft config and executes it. On success the output and
// metadata replace the last result.
//
// Returns a prompt.ValidationError for an invalid config and execute.ErrBusy
// when another run is in flight.
func (p *Playground) Run(ctx context.Context) (execute.Result, error) {
	cfg := p.Draft().Config
	if err := cfg.Validate(); err != nil {
		return execute.Result{}, err
	}

	res, err := p.guard.Execute(ctx, cfg)
	if err != nil {
		return execute.Result{}, fmt.Errorf("run: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	next := copyDraft(p.draft)
	next.Output = res.Output
	md := res.Metadata
	next.Metadata = &md
	if err := p.persist(ctx, next); err != nil {
		return execute.Result{}, err
	}

	p.logger.Info("run finished",
		"model", md.Model,
		"latency_ms", md.LatencyMs,
		"tokens", md.TotalTokens(),
	)
	return res, nil
}

// Save appends the draft and its last result as a new version.
// Returns versions.ErrNoResult before any run.
func (p *Playground) Save(ctx context.Context, note string) (prompt.Version, error) {
	d := p.Draft()
	return p.versions.Append(ctx, versions.Snapshot{
		Config:   d.Config,
		Output:   d.Output,
		Metadata: d.Metadata,
		Note:     note,
	})
}

// Load copies a version's config and result into the draft, so it can be
// re-run or saved again. ref is an id or a label like "v3".
func (p *Playground) Load(ctx context.Context, ref string) (prompt.Version, error) {
	v, err := p.versions.Resolve(ref)
	if err != nil {
		return prompt.Version{}, err
	}

	md := v.Metadata
	if err := p.replaceDraft(ctx, Draft{Config: v.Config, Output: v.Output, Metadata: &md}); err != nil {
		return prompt.Version{}, err
	}
	return v, nil
}

// Duplicate copies only a version's config into the draft and clears the
// last result.
func (p *Playground) Duplicate(ctx context.Context, ref string) (prompt.Version, error) {
	v, err := p.versions.Resolve(ref)
	if err != nil {
		return prompt.Version{}, err
	}

	if err := p.replaceDraft(ctx, Draft{Config: v.Config}); err != nil {
		return prompt.Version{}, err
	}
	return v, nil
}

// Reset restores the default config and clears the last result.
func (p *Playground) Reset(ctx context.Context) error {
	return p.replaceDraft(ctx, Draft{Config: prompt.DefaultConfig()})
}

// Query projects the versions store through q.
func (p *Playground) Query(q query.Query) []prompt.Version {
	return p.projector.Project(q)
}

// Selector returns a new comparison selector over the versions store.
func (p *Playground) Selector() *compare.Selector {
	return compare.NewSelector(p.versions)
}

func (p *Playground) replaceDraft(ctx context.Context, d Draft) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.persist(ctx, d)
}

// persist writes d and makes it current. Caller must hold p.mu.
func (p *Playground) persist(ctx context.Context, d Draft) error {
	if err := p.records.PutRecord(ctx, store.RecordDraft, d); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	p.draft = d
	return nil
}

func copyDraft(d Draft) Draft {
	if d.Metadata != nil {
		md := *d.Metadata
		d.Metadata = &md
	}
	return d
}
