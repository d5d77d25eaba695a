// Package fake is the default provider catalog for recipe `fake` fields.
//
// Every provider draws from the run's random source, so a recipe plus a seed
// yields the same fake values on every run.
package fake

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/seedbed/pkg/ports"
	"github.com/aretw0/seedbed/pkg/registry"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var title = cases.Title(language.English)

// NewRegistry returns a registry preloaded with the default catalog.
func NewRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	Register(reg)
	return reg
}

// Register adds the default catalog to reg.
func Register(reg *registry.Registry) {
	reg.Register("first_name", pool(firstNames))
	reg.Register("last_name", pool(lastNames))
	reg.Register("name", func(_ context.Context, rnd ports.RandomSource, _ map[string]any) (any, error) {
		return pick(rnd, firstNames) + " " + pick(rnd, lastNames), nil
	})
	reg.Register("company", company)
	reg.Register("email", email)
	reg.Register("phone_number", func(_ context.Context, rnd ports.RandomSource, _ map[string]any) (any, error) {
		return fmt.Sprintf("(%03d) %03d-%04d", 200+rnd.Intn(800), rnd.Intn(1000), rnd.Intn(10000)), nil
	})
	reg.Register("street_address", func(_ context.Context, rnd ports.RandomSource, _ map[string]any) (any, error) {
		return fmt.Sprintf("%d %s %s", 1+rnd.Intn(9999), pick(rnd, streetNames), pick(rnd, streetSuffixes)), nil
	})
	reg.Register("city", pool(cities))
	reg.Register("state", pool(states))
	reg.Register("postalcode", func(_ context.Context, rnd ports.RandomSource, _ map[string]any) (any, error) {
		return fmt.Sprintf("%05d", rnd.Intn(100000)), nil
	})
	reg.Register("country", pool(countries))
	reg.Register("job", pool(jobs))
	reg.Register("catch_phrase", func(_ context.Context, rnd ports.RandomSource, _ map[string]any) (any, error) {
		return title.String(pick(rnd, buzzAdjectives) + " " + pick(rnd, buzzNouns)), nil
	})
	reg.Register("word", pool(words))
	reg.Register("sentence", sentence)
	reg.Register("boolean", boolean)
	reg.Register("pyint", pyint)
	reg.Register("uuid", func(_ context.Context, rnd ports.RandomSource, _ map[string]any) (any, error) {
		id, err := uuid.NewRandomFromReader(randReader{rnd})
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	})
	reg.Register("url", func(_ context.Context, rnd ports.RandomSource, _ map[string]any) (any, error) {
		return "https://www." + slug(pick(rnd, lastNames)) + "." + pick(rnd, domainSuffixes) + "/", nil
	})
}

func pool(values []string) registry.Provider {
	return func(_ context.Context, rnd ports.RandomSource, _ map[string]any) (any, error) {
		return pick(rnd, values), nil
	}
}

func pick(rnd ports.RandomSource, values []string) string {
	return values[rnd.Intn(len(values))]
}

func company(_ context.Context, rnd ports.RandomSource, _ map[string]any) (any, error) {
	switch rnd.Intn(3) {
	case 0:
		return pick(rnd, lastNames) + " " + pick(rnd, companySuffixes), nil
	case 1:
		return pick(rnd, lastNames) + "-" + pick(rnd, lastNames), nil
	default:
		return title.String(pick(rnd, lastNames) + " and " + pick(rnd, lastNames)), nil
	}
}

func email(_ context.Context, rnd ports.RandomSource, params map[string]any) (any, error) {
	domain := stringParam(params, "domain", "")
	if domain == "" {
		domain = "example." + pick(rnd, domainSuffixes)
	}
	local := slug(pick(rnd, firstNames)) + "." + slug(pick(rnd, lastNames))
	return local + "@" + domain, nil
}

func sentence(_ context.Context, rnd ports.RandomSource, params map[string]any) (any, error) {
	n, err := intParam(params, "nb_words", 6)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("sentence: nb_words must be positive, got %d", n)
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = pick(rnd, words)
	}
	s := strings.Join(parts, " ")
	return strings.ToUpper(s[:1]) + s[1:] + ".", nil
}

func boolean(_ context.Context, rnd ports.RandomSource, params map[string]any) (any, error) {
	chance, err := intParam(params, "chance_of_getting_true", 50)
	if err != nil {
		return nil, err
	}
	return rnd.Intn(100) < chance, nil
}

func pyint(_ context.Context, rnd ports.RandomSource, params map[string]any) (any, error) {
	lo, err := intParam(params, "min_value", 0)
	if err != nil {
		return nil, err
	}
	hi, err := intParam(params, "max_value", 9999)
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, fmt.Errorf("pyint: min_value %d is greater than max_value %d", lo, hi)
	}
	return int(uint64(lo) + ports.UniformUint64(rnd, uint64(hi)-uint64(lo))), nil
}

func slug(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "'", "").Replace(s))
}

func intParam(params map[string]any, key string, def int) (int, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("parameter %s: expected integer, got %T", key, raw)
	}
}

func stringParam(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

// randReader feeds uuid generation from the run's random source.
type randReader struct {
	rnd ports.RandomSource
}

func (r randReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rnd.Intn(256))
	}
	return len(p), nil
}
