package runtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/seedbed/internal/compiler"
	"github.com/aretw0/seedbed/internal/logging"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/seedbed/internal/runtime"

// Engine executes recipes. It is stateless between runs: session state comes
// in with each Request and the staged successor goes out with the Result.
type Engine struct {
	parser    *compiler.Parser
	planner   *Planner
	factory   *Factory
	clock     ports.Clock
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	tracer    trace.Tracer
	newSource func(seed int64) ports.RandomSource
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock sets the clock used for relative dates and timestamps.
func WithClock(clock ports.Clock) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithTracer overrides the OpenTelemetry tracer (defaults to the global provider).
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithRandomSource replaces the seeded random source constructor.
func WithRandomSource(fn func(seed int64) ports.RandomSource) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newSource = fn
		}
	}
}

// NewEngine creates an engine drawing fake values from providers.
func NewEngine(providers ports.ProviderRegistry, opts ...EngineOption) *Engine {
	e := &Engine{
		parser:    compiler.NewParser(),
		clock:     ports.SystemClock,
		logger:    logging.NewNop(),
		tracer:    otel.Tracer(tracerName),
		newSource: ports.NewSeededSource,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.planner = NewPlanner(e.clock)
	e.factory = NewFactory(providers, e.clock)
	return e
}

// Request describes one run.
type Request struct {
	// RunID labels the run; a UUID is generated when empty.
	RunID string
	// Session is the state carried from earlier runs. It is never mutated.
	// A nil Session runs with no memory.
	Session *domain.Session
	// Seed is the base seed. The run draws from Seed + Session.Runs, so
	// consecutive runs of a session differ yet replay identically.
	Seed int64
	// Options overrides recipe option defaults.
	Options map[string]any
}

// Outcome is what a run produces.
type Outcome struct {
	Result *domain.Result
	// Session is the successor session state. It is nil unless the run completed.
	Session *domain.Session
}

// RunSource parses and runs a recipe document.
func (e *Engine) RunSource(ctx context.Context, data []byte, req Request) (Outcome, error) {
	recipe, err := e.parser.Parse(data)
	if err != nil {
		res := e.newResult(req)
		m := newMachine()
		// Recipe-level checks raised while parsing fail the run in Planning;
		// malformed structure fails it before Planning starts.
		var ve *domain.ValidationError
		var pe *domain.ParseError
		if errors.As(err, &ve) && !errors.As(err, &pe) {
			_ = m.to(domain.StatusPlanning)
		}
		e.fail(ctx, m, res, err)
		return Outcome{Result: res}, err
	}
	return e.Run(ctx, recipe, req)
}

// Run executes a parsed recipe. The returned error is the Result's error.
func (e *Engine) Run(ctx context.Context, recipe *domain.Recipe, req Request) (Outcome, error) {
	res := e.newResult(req)
	m := newMachine()

	session := req.Session
	if session == nil {
		session = domain.NewSession(res.SessionID)
	}
	staged := session.Clone()
	staged.Normalize()

	res.Seed = req.Seed + int64(staged.Runs)

	ctx, span := e.tracer.Start(ctx, "seedbed.run", trace.WithAttributes(
		attribute.String("seedbed.run_id", res.RunID),
		attribute.String("seedbed.session_id", res.SessionID),
		attribute.Int64("seedbed.seed", res.Seed),
	))
	defer span.End()

	e.logger.Info("run started", "run_id", res.RunID, "session_id", res.SessionID, "seed", res.Seed, "recipe", recipe.Source)
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{EventBase: e.base(res, domain.EventRunStart), Status: domain.StatusIdle})
	}

	if err := m.to(domain.StatusPlanning); err != nil {
		return e.finish(ctx, span, m, res, nil, err)
	}
	units, err := e.planner.Plan(recipe)
	if err != nil {
		return e.finish(ctx, span, m, res, nil, err)
	}
	options, err := ResolveOptions(recipe, req.Options)
	if err != nil {
		return e.finish(ctx, span, m, res, nil, err)
	}

	if err := m.to(domain.StatusExecuting); err != nil {
		return e.finish(ctx, span, m, res, nil, err)
	}

	rnd := e.newSource(res.Seed)
	store := NewRecordStore(staged.Carried, staged.Sequences)

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			res.Records = store.Records()
			return e.finish(ctx, span, m, res, nil, err)
		}
		if err := e.execute(ctx, unit, rnd, store, options, staged, res); err != nil {
			res.Records = store.Records()
			return e.finish(ctx, span, m, res, nil, err)
		}
	}

	res.Records = store.Records()
	staged.Sequences = store.Sequences()
	staged.Runs++
	staged.UpdatedAt = e.clock.Now()
	if staged.CreatedAt.IsZero() {
		staged.CreatedAt = staged.UpdatedAt
	}
	return e.finish(ctx, span, m, res, staged, nil)
}

func (e *Engine) execute(ctx context.Context, unit ExecutionUnit, rnd ports.RandomSource, store *RecordStore, options map[string]any, staged *domain.Session, res *domain.Result) error {
	block := unit.Block
	event := &domain.BlockEvent{
		EventBase: e.base(res, domain.EventBlockStart),
		Index:     unit.Index,
		Object:    block.Object,
		Nickname:  block.Nickname,
	}

	if unit.JustOnce && staged.Satisfied[unit.Alias()] {
		event.Type = domain.EventBlockSkip
		res.Skipped = append(res.Skipped, unit.Alias())
		e.logger.Debug("just_once block already satisfied", "run_id", res.RunID, "alias", unit.Alias())
		if e.hooks.OnBlockSkip != nil {
			e.hooks.OnBlockSkip(ctx, event)
		}
		return nil
	}

	count, err := EvalCount(&Env{Ctx: ctx, Rand: rnd, Clock: e.clock, Store: store, Options: options}, unit.Count)
	if err != nil {
		return &domain.RecordError{Object: block.Object, Nickname: block.Nickname, Field: "count", Instance: -1, Err: err}
	}
	event.Count = count

	ctx, span := e.tracer.Start(ctx, "seedbed.block", trace.WithAttributes(
		attribute.String("seedbed.object", block.Object),
		attribute.String("seedbed.alias", unit.Alias()),
		attribute.Int("seedbed.count", count),
	))
	defer span.End()

	if e.hooks.OnBlockStart != nil {
		e.hooks.OnBlockStart(ctx, event)
	}

	var created []domain.RecordHandle
	for i := 0; i < count; i++ {
		rec, err := e.factory.Build(ctx, rnd, store, options, block, i)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		store.Append(rec)
		created = append(created, rec.Handle())
		if e.hooks.OnRecord != nil {
			e.hooks.OnRecord(ctx, &domain.RecordEvent{EventBase: e.base(res, domain.EventRecord), Record: rec})
		}
	}

	if unit.JustOnce {
		staged.Satisfied[unit.Alias()] = true
		staged.Carried = append(staged.Carried, created...)
	}
	return nil
}

func (e *Engine) finish(ctx context.Context, span trace.Span, m *machine, res *domain.Result, staged *domain.Session, err error) (Outcome, error) {
	if err != nil {
		e.fail(ctx, m, res, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{Result: res}, err
	}

	if terr := m.to(domain.StatusCompleted); terr != nil {
		e.fail(ctx, m, res, terr)
		return Outcome{Result: res}, terr
	}
	res.Status = m.status
	res.FinishedAt = e.clock.Now()
	span.SetAttributes(attribute.Int("seedbed.records", len(res.Records)))

	e.logger.Info("run completed", "run_id", res.RunID, "session_id", res.SessionID,
		"records", len(res.Records), "skipped", len(res.Skipped))
	e.emitFinish(ctx, res)
	return Outcome{Result: res, Session: staged}, nil
}

func (e *Engine) fail(ctx context.Context, m *machine, res *domain.Result, err error) {
	phase := m.status
	// Failed is reachable from every non-terminal state.
	_ = m.to(domain.StatusFailed)
	res.Status = domain.StatusFailed
	res.Err = err
	res.FinishedAt = e.clock.Now()
	e.logger.Error("run failed", "run_id", res.RunID, "session_id", res.SessionID,
		"phase", phase, "records", len(res.Records), "err", err)
	e.emitFinish(ctx, res)
}

func (e *Engine) emitFinish(ctx context.Context, res *domain.Result) {
	if e.hooks.OnRunFinish == nil {
		return
	}
	e.hooks.OnRunFinish(ctx, &domain.RunEvent{
		EventBase: e.base(res, domain.EventRunFinish),
		Status:    res.Status,
		Records:   len(res.Records),
		Duration:  res.FinishedAt.Sub(res.StartedAt),
		Err:       res.Err,
	})
}

func (e *Engine) newResult(req Request) *domain.Result {
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	sessionID := domain.DefaultSessionID
	if req.Session != nil && req.Session.ID != "" {
		sessionID = req.Session.ID
	}
	return &domain.Result{
		RunID:     runID,
		SessionID: sessionID,
		Status:    domain.StatusIdle,
		Seed:      req.Seed,
		StartedAt: e.clock.Now(),
	}
}

func (e *Engine) base(res *domain.Result, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.clock.Now(),
		Type:      t,
		RunID:     res.RunID,
		SessionID: res.SessionID,
	}
}
