package seedbed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/seedbed/internal/compiler"
	"github.com/aretw0/seedbed/internal/logging"
	"github.com/aretw0/seedbed/internal/runtime"
	"github.com/aretw0/seedbed/internal/validator"
	"github.com/aretw0/seedbed/pkg/adapters/memory"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/fake"
	"github.com/aretw0/seedbed/pkg/ports"
	"github.com/aretw0/seedbed/pkg/session"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the high-level entry point for the seedbed library.
// It wraps the internal runtime and owns session bookkeeping, so hosts only
// hand it recipe text and a session name.
type Engine struct {
	runtime   *runtime.Engine
	parser    *compiler.Parser
	providers ports.ProviderRegistry
	sessions  *session.Manager

	store  ports.SessionStore
	locker ports.DistributedLocker
	scope  domain.JustOnceScope
	seed   int64
	vars   map[string]any
	clock  ports.Clock
	hooks  domain.LifecycleHooks
	tracer trace.Tracer
	logger *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProviders replaces the default fake-data catalog.
func WithProviders(providers ports.ProviderRegistry) Option {
	return func(e *Engine) {
		e.providers = providers
	}
}

// WithSessionStore sets where session state lives between runs
// (default: in memory, for the life of the Engine).
func WithSessionStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithJustOnceScope sets how long just_once blocks stay satisfied.
func WithJustOnceScope(scope domain.JustOnceScope) Option {
	return func(e *Engine) {
		e.scope = scope
	}
}

// WithSeed sets the base seed. Zero picks a fresh seed per run.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithVars sets option overrides applied to every run.
func WithVars(vars map[string]any) Option {
	return func(e *Engine) {
		e.vars = vars
	}
}

// WithClock sets the clock relative dates are resolved against.
func WithClock(clock ports.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithTracer sets the OpenTelemetry tracer for run and block spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// New initializes a new seedbed Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{scope: domain.ScopeSession}
	for _, opt := range opts {
		opt(eng)
	}

	if _, err := domain.ParseJustOnceScope(string(eng.scope)); err != nil {
		return nil, err
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.clock == nil {
		eng.clock = ports.SystemClock
	}
	if eng.providers == nil {
		eng.providers = fake.NewRegistry()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	managerOpts := []session.Option{session.WithLogger(eng.logger), session.WithClock(eng.clock)}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, managerOpts...)

	eng.parser = compiler.NewParser()
	eng.runtime = runtime.NewEngine(eng.providers,
		runtime.WithLogger(eng.logger),
		runtime.WithClock(eng.clock),
		runtime.WithHooks(eng.hooks),
		runtime.WithTracer(eng.tracer),
	)
	return eng, nil
}

// RunOption adjusts a single run.
type RunOption func(*runConfig)

type runConfig struct {
	runID string
	seed  int64
	vars  map[string]any
}

// WithRunSeed overrides the engine seed for one run.
func WithRunSeed(seed int64) RunOption {
	return func(c *runConfig) {
		c.seed = seed
	}
}

// WithRunVars adds option overrides for one run, on top of the engine's.
func WithRunVars(vars map[string]any) RunOption {
	return func(c *runConfig) {
		for k, v := range vars {
			c.vars[k] = v
		}
	}
}

// WithRunID labels the run.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// Generate parses and runs a recipe within a session.
// The returned Result is non-nil even on failure and keeps the records
// created before the error.
func (e *Engine) Generate(ctx context.Context, sessionID string, source []byte, opts ...RunOption) (*domain.Result, error) {
	return e.run(ctx, sessionID, opts, func(req runtime.Request) (runtime.Outcome, error) {
		return e.runtime.RunSource(ctx, source, req)
	})
}

// GenerateRecipe runs an already parsed recipe within a session.
func (e *Engine) GenerateRecipe(ctx context.Context, sessionID string, recipe *domain.Recipe, opts ...RunOption) (*domain.Result, error) {
	return e.run(ctx, sessionID, opts, func(req runtime.Request) (runtime.Outcome, error) {
		return e.runtime.Run(ctx, recipe, req)
	})
}

// Continue runs a recipe against explicit session state instead of the
// managed store, e.g. one read from a continuation file. The successor
// session is nil unless the run completed.
func (e *Engine) Continue(ctx context.Context, state *domain.Session, recipe *domain.Recipe, opts ...RunOption) (*domain.Result, *domain.Session, error) {
	cfg := e.config(opts)
	if state == nil {
		state = domain.NewSession(domain.DefaultSessionID)
	}
	out, err := e.runtime.Run(ctx, recipe, e.request(cfg, state))
	return out.Result, out.Session, err
}

func (e *Engine) run(ctx context.Context, sessionID string, opts []RunOption, exec func(runtime.Request) (runtime.Outcome, error)) (*domain.Result, error) {
	cfg := e.config(opts)
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}

	switch e.scope {
	case domain.ScopeBatch:
		out, err := exec(e.request(cfg, domain.NewSession(sessionID)))
		return out.Result, err
	case domain.ScopeProcess:
		sessionID = domain.ProcessSessionID
	}

	var res *domain.Result
	err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, current *domain.Session) (*domain.Session, error) {
		out, err := exec(e.request(cfg, current))
		res = out.Result
		return out.Session, err
	})
	if res == nil {
		return &domain.Result{SessionID: sessionID, Status: domain.StatusFailed, Err: err}, err
	}
	return res, err
}

func (e *Engine) config(opts []RunOption) runConfig {
	cfg := runConfig{seed: e.seed, vars: make(map[string]any, len(e.vars))}
	for k, v := range e.vars {
		cfg.vars[k] = v
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.seed == 0 {
		cfg.seed = time.Now().UnixNano()
		e.logger.Info("Using seed", "seed", cfg.seed)
	}
	return cfg
}

func (e *Engine) request(cfg runConfig, s *domain.Session) runtime.Request {
	return runtime.Request{RunID: cfg.runID, Session: s, Seed: cfg.seed, Options: cfg.vars}
}

// Parse decodes a recipe document without running it.
func (e *Engine) Parse(source []byte) (*domain.Recipe, error) {
	return e.parser.Parse(source)
}

// Plan parses and validates a recipe, returning the execution units in order.
func (e *Engine) Plan(source []byte) ([]runtime.ExecutionUnit, error) {
	recipe, err := e.parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return runtime.NewPlanner(e.clock).Plan(recipe)
}

// Validate runs the parse and plan checks plus the static lint: forward or
// undeclared references, unknown providers and template names.
func (e *Engine) Validate(source []byte) (*validator.Report, error) {
	recipe, err := e.parser.Parse(source)
	if err != nil {
		return nil, err
	}
	if _, err := runtime.NewPlanner(e.clock).Plan(recipe); err != nil {
		return nil, err
	}
	return validator.Validate(recipe, e.providers), nil
}

// Providers lists the registered fake providers.
func (e *Engine) Providers() []string {
	return e.providers.Names()
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Scope reports the engine's just_once scope.
func (e *Engine) Scope() domain.JustOnceScope {
	return e.scope
}

// String implements fmt.Stringer.
func (e *Engine) String() string {
	return fmt.Sprintf("seedbed(scope=%s, providers=%d)", e.scope, len(e.providers.Names()))
}
