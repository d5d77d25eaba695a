package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	placeholderOpen = "${{"
	fakePrefix      = "fake."
)

// GeneratorKeys is the closed set of keys that select a generator.
// "fake.<provider>" keys are matched by prefix.
var GeneratorKeys = []string{"fake", "random_number", "date_between", "random_choice", "reference", "random_reference"}

var (
	numberSchema = schema.Schema{
		"min":  schema.Int(),
		"max":  schema.Int(),
		"step": schema.Optional(schema.Int()),
	}
	dateSchema = schema.Schema{
		"start_date": schema.String(),
		"end_date":   schema.String(),
	}
	referenceSchema = schema.Schema{
		"to":    schema.String(),
		"pick":  schema.Optional(schema.String()),
		"index": schema.Optional(schema.Int()),
	}
	choiceSchema = schema.Schema{
		"probability": schema.Weight(),
		"pick":        schema.Any(),
	}
)

func parseFieldSpec(node *yaml.Node) (domain.FieldSpec, error) {
	node = deref(node)
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" && strings.Contains(node.Value, placeholderOpen) {
			return domain.Template(node.Value), nil
		}
		var v any
		if err := node.Decode(&v); err != nil {
			return domain.FieldSpec{}, &domain.ValidationError{Line: node.Line, Reason: "invalid literal", Err: err}
		}
		return domain.Literal(v), nil
	case yaml.SequenceNode:
		var v []any
		if err := node.Decode(&v); err != nil {
			return domain.FieldSpec{}, &domain.ValidationError{Line: node.Line, Reason: "invalid literal list", Err: err}
		}
		return domain.Literal(v), nil
	case yaml.MappingNode:
		return parseGenerator(node)
	default:
		return domain.FieldSpec{}, &domain.ValidationError{Line: node.Line, Reason: "unsupported field value"}
	}
}

func parseGenerator(node *yaml.Node) (domain.FieldSpec, error) {
	if len(node.Content) != 2 {
		return domain.FieldSpec{}, &domain.ValidationError{
			Line:   node.Line,
			Reason: fmt.Sprintf("generator spec must have exactly one key (one of %s)", strings.Join(GeneratorKeys, ", ")),
		}
	}
	key, val := node.Content[0].Value, deref(node.Content[1])

	switch {
	case key == "fake":
		if val.Kind != yaml.ScalarNode || strings.TrimSpace(val.Value) == "" {
			return domain.FieldSpec{}, &domain.ValidationError{Line: val.Line, Reason: "fake expects a provider name"}
		}
		return domain.Fake(val.Value, nil), nil

	case strings.HasPrefix(key, fakePrefix):
		provider := strings.TrimPrefix(key, fakePrefix)
		if provider == "" {
			return domain.FieldSpec{}, &domain.ValidationError{Line: node.Line, Reason: "fake. needs a provider name"}
		}
		if isNull(val) {
			return domain.Fake(provider, nil), nil
		}
		params, err := decodeMap(val, key)
		if err != nil {
			return domain.FieldSpec{}, err
		}
		return domain.Fake(provider, params), nil

	case key == "random_number":
		r, err := parseNumberRange(val)
		if err != nil {
			return domain.FieldSpec{}, err
		}
		return domain.FieldSpec{Kind: domain.KindRandomNumber, Range: r}, nil

	case key == "date_between":
		raw, err := decodeMap(val, key)
		if err != nil {
			return domain.FieldSpec{}, err
		}
		if err := schema.Validate(dateSchema, raw); err != nil {
			return domain.FieldSpec{}, &domain.ValidationError{Line: val.Line, Reason: "invalid date_between", Err: err}
		}
		var dates domain.DateRange
		if err := decodeInto(raw, &dates); err != nil {
			return domain.FieldSpec{}, &domain.ValidationError{Line: val.Line, Reason: "invalid date_between", Err: err}
		}
		return domain.FieldSpec{Kind: domain.KindDateBetween, Dates: &dates}, nil

	case key == "random_choice":
		choices, err := parseChoices(val)
		if err != nil {
			return domain.FieldSpec{}, err
		}
		return domain.RandomChoice(choices...), nil

	case key == "reference":
		ref, err := parseReference(val)
		if err != nil {
			return domain.FieldSpec{}, err
		}
		return domain.FieldSpec{Kind: domain.KindReference, Reference: ref}, nil

	case key == "random_reference":
		if val.Kind != yaml.ScalarNode || strings.TrimSpace(val.Value) == "" {
			return domain.FieldSpec{}, &domain.ValidationError{Line: val.Line, Reason: "random_reference expects a nickname or object type"}
		}
		return domain.FieldSpec{
			Kind:      domain.KindRandomReference,
			Reference: &domain.ReferenceSpec{Target: val.Value, Strategy: domain.PickRandom},
		}, nil

	default:
		return domain.FieldSpec{}, &domain.ValidationError{Line: node.Line, Reason: fmt.Sprintf("unknown generator key %q", key)}
	}
}

func parseNumberRange(val *yaml.Node) (*domain.NumberRange, error) {
	raw, err := decodeMap(val, "random_number")
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(numberSchema, raw); err != nil {
		return nil, &domain.ValidationError{Line: val.Line, Reason: "invalid random_number", Err: err}
	}
	var r domain.NumberRange
	if err := decodeInto(raw, &r); err != nil {
		return nil, &domain.ValidationError{Line: val.Line, Reason: "invalid random_number", Err: err}
	}
	if r.Step == 0 {
		r.Step = 1
	}
	if r.Step < 0 {
		return nil, &domain.ValidationError{Line: val.Line, Reason: fmt.Sprintf("random_number step must be positive, got %d", r.Step)}
	}
	return &r, nil
}

func parseChoices(val *yaml.Node) ([]domain.Choice, error) {
	var choices []domain.Choice

	switch val.Kind {
	case yaml.MappingNode:
		// Shorthand: {pick: weight, ...}, in document order.
		for i := 0; i < len(val.Content); i += 2 {
			pick, err := parseFieldSpec(val.Content[i])
			if err != nil {
				return nil, err
			}
			var w any
			if err := deref(val.Content[i+1]).Decode(&w); err != nil {
				return nil, &domain.ValidationError{Line: val.Content[i+1].Line, Reason: "invalid probability", Err: err}
			}
			weight, err := weightOf(w, val.Content[i+1].Line)
			if err != nil {
				return nil, err
			}
			choices = append(choices, domain.Choice{Probability: weight, Pick: pick})
		}
	case yaml.SequenceNode:
		for _, item := range val.Content {
			item = deref(item)
			if item.Kind == yaml.MappingNode && len(item.Content) == 2 && item.Content[0].Value == "choice" {
				c, err := parseChoice(deref(item.Content[1]))
				if err != nil {
					return nil, err
				}
				choices = append(choices, c)
				continue
			}
			// Bare items share equal weight.
			pick, err := parseFieldSpec(item)
			if err != nil {
				return nil, err
			}
			choices = append(choices, domain.Choice{Probability: 1, Pick: pick})
		}
	default:
		return nil, &domain.ValidationError{Line: val.Line, Reason: "random_choice expects a list or a mapping of choices"}
	}

	if len(choices) == 0 {
		return nil, &domain.ValidationError{Line: val.Line, Reason: "random_choice needs at least one choice"}
	}
	total := 0.0
	for _, c := range choices {
		total += c.Probability
	}
	if total <= 0 {
		return nil, &domain.ValidationError{Line: val.Line, Reason: "random_choice probabilities must sum to a positive total"}
	}
	return choices, nil
}

func parseChoice(node *yaml.Node) (domain.Choice, error) {
	raw, err := decodeMap(node, "choice")
	if err != nil {
		return domain.Choice{}, err
	}
	if err := schema.Validate(choiceSchema, raw); err != nil {
		return domain.Choice{}, &domain.ValidationError{Line: node.Line, Reason: "invalid choice", Err: err}
	}
	weight, err := weightOf(raw["probability"], node.Line)
	if err != nil {
		return domain.Choice{}, err
	}
	pick, err := parseFieldSpec(mappingKeys(node)["pick"])
	if err != nil {
		return domain.Choice{}, err
	}
	return domain.Choice{Probability: weight, Pick: pick}, nil
}

func weightOf(v any, line int) (float64, error) {
	if err := schema.Weight().Validate(v); err != nil {
		return 0, &domain.ValidationError{Line: line, Reason: "invalid probability", Err: err}
	}
	w, _ := schema.ParseWeight(v)
	return w, nil
}

func parseReference(val *yaml.Node) (*domain.ReferenceSpec, error) {
	if val.Kind == yaml.ScalarNode {
		if strings.TrimSpace(val.Value) == "" {
			return nil, &domain.ValidationError{Line: val.Line, Reason: "reference expects a nickname or object type"}
		}
		return &domain.ReferenceSpec{Target: val.Value, Strategy: domain.PickMostRecent}, nil
	}

	raw, err := decodeMap(val, "reference")
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(referenceSchema, raw); err != nil {
		return nil, &domain.ValidationError{Line: val.Line, Reason: "invalid reference", Err: err}
	}
	var ref domain.ReferenceSpec
	if err := decodeInto(raw, &ref); err != nil {
		return nil, &domain.ValidationError{Line: val.Line, Reason: "invalid reference", Err: err}
	}

	if ref.Strategy == "" {
		ref.Strategy = domain.PickMostRecent
		if ref.Index != 0 {
			ref.Strategy = domain.PickIndex
		}
	}
	switch ref.Strategy {
	case domain.PickMostRecent, domain.PickFirst, domain.PickRandom:
	case domain.PickIndex:
		if ref.Index < 1 {
			return nil, &domain.ValidationError{Line: val.Line, Reason: "reference index must be 1 or greater"}
		}
	default:
		return nil, &domain.ValidationError{Line: val.Line, Reason: fmt.Sprintf("unknown reference pick %q", ref.Strategy)}
	}
	return &ref, nil
}

func decodeMap(node *yaml.Node, key string) (map[string]any, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &domain.ValidationError{Line: node.Line, Reason: key + " expects a mapping of parameters"}
	}
	var out map[string]any
	if err := node.Decode(&out); err != nil {
		return nil, &domain.ValidationError{Line: node.Line, Reason: "invalid " + key + " parameters", Err: err}
	}
	return out, nil
}

// decodeInto maps validated parameters onto a typed spec.
func decodeInto(raw map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && (node.Tag == "!!null" || node.Value == "")
}
