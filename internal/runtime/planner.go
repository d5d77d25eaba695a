package runtime

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports"
)

// ExecutionUnit is one planned activation of an ObjectBlock.
type ExecutionUnit struct {
	Index    int
	Block    domain.ObjectBlock
	JustOnce bool
	Count    domain.CountSpec
}

// Alias returns the name the unit's records are referenced by.
func (u ExecutionUnit) Alias() string {
	return u.Block.Alias()
}

// Planner validates a recipe and lays it out as execution units.
// The plan keeps document order; it never reorders blocks to satisfy references.
type Planner struct {
	clock ports.Clock
}

// NewPlanner creates a planner. The clock resolves relative date bounds
// while checking date ranges.
func NewPlanner(clock ports.Clock) *Planner {
	if clock == nil {
		clock = ports.SystemClock
	}
	return &Planner{clock: clock}
}

// Plan returns one unit per block, in declaration order.
func (p *Planner) Plan(recipe *domain.Recipe) ([]ExecutionUnit, error) {
	if recipe == nil || len(recipe.Blocks) == 0 {
		return nil, &domain.ValidationError{Reason: "recipe declares no object blocks"}
	}

	nicknames := make(map[string]int)
	justOnce := make(map[string]int)
	units := make([]ExecutionUnit, 0, len(recipe.Blocks))

	for i, b := range recipe.Blocks {
		if strings.TrimSpace(b.Object) == "" {
			return nil, &domain.ValidationError{Line: b.Line, Reason: fmt.Sprintf("block %d has no object type", i+1)}
		}
		if b.Nickname != "" {
			if prev, dup := nicknames[b.Nickname]; dup {
				return nil, &domain.ValidationError{
					Object: b.Object, Nickname: b.Nickname, Line: b.Line,
					Reason: fmt.Sprintf("nickname already used by block %d", prev+1),
				}
			}
			nicknames[b.Nickname] = i
		}
		if b.JustOnce {
			if prev, dup := justOnce[b.Alias()]; dup {
				return nil, &domain.ValidationError{
					Object: b.Object, Nickname: b.Nickname, Line: b.Line,
					Reason: fmt.Sprintf("just_once alias %q already used by block %d", b.Alias(), prev+1),
				}
			}
			justOnce[b.Alias()] = i
		}

		count := b.Count
		if count.IsZero() {
			count = domain.FixedCount(1)
		}
		if err := p.checkCount(b, count); err != nil {
			return nil, err
		}

		seen := make(map[string]bool, len(b.Fields))
		for _, f := range b.Fields {
			if seen[f.Name] {
				return nil, &domain.ValidationError{
					Object: b.Object, Nickname: b.Nickname, Field: f.Name, Line: f.Line,
					Reason: "field declared twice",
				}
			}
			seen[f.Name] = true
			if err := p.checkSpec(f.Spec); err != nil {
				return nil, &domain.ValidationError{
					Object: b.Object, Nickname: b.Nickname, Field: f.Name, Line: f.Line,
					Reason: reasonOf(err), Err: err,
				}
			}
		}

		units = append(units, ExecutionUnit{Index: i, Block: b, JustOnce: b.JustOnce, Count: count})
	}
	return units, nil
}

func (p *Planner) checkCount(b domain.ObjectBlock, c domain.CountSpec) error {
	fail := func(reason string, err error) error {
		return &domain.ValidationError{Object: b.Object, Nickname: b.Nickname, Field: "count", Line: b.Line, Reason: reason, Err: err}
	}
	switch c.Kind {
	case domain.CountLiteral:
		if c.Value < 0 {
			return fail(fmt.Sprintf("count must not be negative, got %d", c.Value), nil)
		}
	case domain.CountRandom:
		if c.Range == nil {
			return fail("count random_number needs a range", nil)
		}
		if c.Range.Min < 0 {
			return fail("count must not be negative", nil)
		}
		if c.Range.Min > c.Range.Max {
			err := &domain.RangeError{Min: c.Range.Min, Max: c.Range.Max}
			return fail(reasonOf(err), err)
		}
	case domain.CountTemplate:
		if !strings.Contains(c.Template, placeholderOpen) {
			return fail("count template has no placeholder", nil)
		}
	default:
		return fail(fmt.Sprintf("unknown count kind %q", c.Kind), nil)
	}
	return nil
}

// checkSpec rejects generator specs whose literal parameters can never succeed.
func (p *Planner) checkSpec(spec domain.FieldSpec) error {
	switch spec.Kind {
	case domain.KindRandomNumber:
		if spec.Range == nil {
			return errors.New("random_number needs min and max")
		}
		if spec.Range.Min > spec.Range.Max {
			return &domain.RangeError{Min: spec.Range.Min, Max: spec.Range.Max}
		}
		if spec.Range.Step < 0 {
			return fmt.Errorf("random_number step must be positive, got %d", spec.Range.Step)
		}
	case domain.KindDateBetween:
		if spec.Dates == nil {
			return errors.New("date_between needs start_date and end_date")
		}
		now := p.clock.Now()
		start, err := ParseDateBound(spec.Dates.Start, now)
		if err != nil {
			return err
		}
		end, err := ParseDateBound(spec.Dates.End, now)
		if err != nil {
			return err
		}
		if end.Before(start) {
			return &domain.DateRangeError{Start: start, End: end}
		}
	case domain.KindRandomChoice:
		if len(spec.Choices) == 0 {
			return errors.New("random_choice needs at least one choice")
		}
		total := 0.0
		for _, c := range spec.Choices {
			if c.Probability < 0 {
				return fmt.Errorf("random_choice probability must not be negative, got %v", c.Probability)
			}
			total += c.Probability
			if err := p.checkSpec(c.Pick); err != nil {
				return err
			}
		}
		if total <= 0 {
			return errors.New("random_choice probabilities must sum to a positive total")
		}
	case domain.KindReference, domain.KindRandomReference:
		if spec.Reference == nil || spec.Reference.Target == "" {
			return errors.New("reference needs a target")
		}
	case domain.KindFake:
		if spec.Provider == "" {
			return errors.New("fake needs a provider name")
		}
	}
	return nil
}

func reasonOf(err error) string {
	var re *domain.RangeError
	var de *domain.DateRangeError
	switch {
	case errors.As(err, &re):
		return "invalid random_number range"
	case errors.As(err, &de):
		return "invalid date range"
	default:
		return "invalid generator"
	}
}

// ResolveOptions merges host overrides over the recipe's option defaults.
// Overriding an option the recipe does not declare is a validation error.
func ResolveOptions(recipe *domain.Recipe, overrides map[string]any) (map[string]any, error) {
	opts := recipe.OptionDefaults()
	var unknown []string
	for k, v := range overrides {
		if _, ok := opts[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		opts[k] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &domain.ValidationError{Reason: fmt.Sprintf("undeclared options: %s", strings.Join(unknown, ", "))}
	}
	return opts, nil
}

// EvalCount evaluates a unit's count once for the current activation.
func EvalCount(env *Env, c domain.CountSpec) (int, error) {
	switch c.Kind {
	case "", domain.CountLiteral:
		if c.Kind == "" {
			return 1, nil
		}
		return c.Value, nil
	case domain.CountRandom:
		return RandomNumber(env.Rand, *c.Range)
	case domain.CountTemplate:
		v, err := RenderTemplate(env, c.Template)
		if err != nil {
			return 0, err
		}
		n, err := toInt(v)
		if err != nil || n < 0 {
			return 0, &domain.TemplateError{Template: c.Template, Reason: fmt.Sprintf("count must be a non-negative integer, got %v", v)}
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unknown count kind %q", c.Kind)
	}
}
