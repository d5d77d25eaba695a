package runtime

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports"
)

// Env is everything a generator may read while producing one value.
type Env struct {
	Ctx       context.Context
	Rand      ports.RandomSource
	Clock     ports.Clock
	Providers ports.ProviderRegistry
	Store     *RecordStore
	Options   map[string]any

	// ObjectType and ID identify the record being built.
	ObjectType string
	ID         int
	// Fields holds the values already generated for the record.
	Fields []domain.FieldValue
}

func (env *Env) field(name string) (any, bool) {
	for _, fv := range env.Fields {
		if fv.Name == name {
			return fv.Value, true
		}
	}
	return nil, false
}

// Generate evaluates one FieldSpec.
func Generate(env *Env, spec domain.FieldSpec) (any, error) {
	switch spec.Kind {
	case domain.KindLiteral:
		return spec.Value, nil
	case domain.KindTemplate:
		return RenderTemplate(env, spec.Template)
	case domain.KindFake:
		return env.Providers.Call(env.context(), spec.Provider, env.Rand, spec.Params)
	case domain.KindRandomNumber:
		if spec.Range == nil {
			return nil, fmt.Errorf("random_number without a range")
		}
		return RandomNumber(env.Rand, *spec.Range)
	case domain.KindDateBetween:
		if spec.Dates == nil {
			return nil, fmt.Errorf("date_between without bounds")
		}
		return DateBetween(env.Rand, env.Clock.Now(), *spec.Dates)
	case domain.KindRandomChoice:
		i, err := Choose(env.Rand, spec.Choices)
		if err != nil {
			return nil, err
		}
		return Generate(env, spec.Choices[i].Pick)
	case domain.KindReference, domain.KindRandomReference:
		if spec.Reference == nil {
			return nil, fmt.Errorf("%s without a target", spec.Kind)
		}
		ref := *spec.Reference
		if spec.Kind == domain.KindRandomReference {
			ref.Strategy = domain.PickRandom
		}
		return Resolve(env.Store, env.Rand, ref)
	default:
		return nil, fmt.Errorf("unknown field kind %q", spec.Kind)
	}
}

func (env *Env) context() context.Context {
	if env.Ctx == nil {
		return context.Background()
	}
	return env.Ctx
}

// RandomNumber draws an integer uniformly from the inclusive range, on the
// step grid starting at Min.
func RandomNumber(rnd ports.RandomSource, r domain.NumberRange) (int, error) {
	if r.Min > r.Max {
		return 0, &domain.RangeError{Min: r.Min, Max: r.Max}
	}
	step := r.Step
	if step <= 0 {
		step = 1
	}
	// The span is computed in uint64 so ranges wider than MaxInt do not wrap.
	k := (uint64(r.Max) - uint64(r.Min)) / uint64(step)
	var n uint64
	if k < uint64(math.MaxInt) {
		n = uint64(rnd.Intn(int(k) + 1))
	} else {
		n = ports.UniformUint64(rnd, k)
	}
	return int(uint64(r.Min) + n*uint64(step)), nil
}

// Choose picks the index of one weighted choice. Weights are normalized by
// their total, so [60, 20, 60] selects with probabilities 60/140, 20/140, 60/140.
func Choose(rnd ports.RandomSource, choices []domain.Choice) (int, error) {
	total := 0.0
	last := -1
	for i, c := range choices {
		if c.Probability < 0 {
			return 0, fmt.Errorf("random_choice: negative probability %v", c.Probability)
		}
		if c.Probability > 0 {
			last = i
		}
		total += c.Probability
	}
	if last < 0 || total <= 0 {
		return 0, fmt.Errorf("random_choice: probabilities must sum to a positive total")
	}

	u := rnd.Float64() * total
	cum := 0.0
	for i, c := range choices {
		if c.Probability == 0 {
			continue
		}
		cum += c.Probability
		if u < cum {
			return i, nil
		}
	}
	// Float rounding can leave u == total.
	return last, nil
}

var offsetPattern = regexp.MustCompile(`^([+-]?\d+)\s*([dwmy]?)$`)

// ParseDateBound resolves "today", a relative offset such as "-30d", "+2w",
// "6m" or "-1y", or an ISO date, to a UTC midnight.
func ParseDateBound(bound string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(strings.ToLower(bound))
	today := midnight(now)
	if s == "today" || s == "now" {
		return today, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	m := offsetPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("cannot parse date bound %q", bound)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date bound %q: %w", bound, err)
	}
	switch m[2] {
	case "", "d":
		return today.AddDate(0, 0, n), nil
	case "w":
		return today.AddDate(0, 0, 7*n), nil
	case "m":
		return today.AddDate(0, n, 0), nil
	default:
		return today.AddDate(n, 0, 0), nil
	}
}

// DateBetween picks a day uniformly from the inclusive range.
func DateBetween(rnd ports.RandomSource, now time.Time, d domain.DateRange) (time.Time, error) {
	start, err := ParseDateBound(d.Start, now)
	if err != nil {
		return time.Time{}, &domain.DateRangeError{Reason: err.Error()}
	}
	end, err := ParseDateBound(d.End, now)
	if err != nil {
		return time.Time{}, &domain.DateRangeError{Reason: err.Error()}
	}
	if end.Before(start) {
		return time.Time{}, &domain.DateRangeError{Start: start, End: end}
	}
	// Whole days from Unix seconds; time.Duration saturates near 292 years.
	days := (end.Unix() - start.Unix()) / 86400
	return start.AddDate(0, 0, rnd.Intn(int(days)+1)), nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
