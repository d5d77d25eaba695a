package domain

// FieldKind is the closed set of field specification shapes.
type FieldKind string

const (
	KindLiteral         FieldKind = "literal"
	KindTemplate        FieldKind = "template"
	KindFake            FieldKind = "fake"
	KindRandomNumber    FieldKind = "random_number"
	KindDateBetween     FieldKind = "date_between"
	KindRandomChoice    FieldKind = "random_choice"
	KindReference       FieldKind = "reference"
	KindRandomReference FieldKind = "random_reference"
)

// FieldSpec describes how one field value is produced.
// Exactly one of the kind-specific members is meaningful for a given Kind.
type FieldSpec struct {
	Kind FieldKind

	// Value holds the literal for KindLiteral.
	Value any
	// Template holds the raw text for KindTemplate.
	Template string

	// Provider and Params describe a KindFake call.
	Provider string
	Params   map[string]any

	Range     *NumberRange
	Dates     *DateRange
	Choices   []Choice
	Reference *ReferenceSpec
}

// NumberRange is an inclusive integer range. Step defaults to 1.
type NumberRange struct {
	Min  int `mapstructure:"min"`
	Max  int `mapstructure:"max"`
	Step int `mapstructure:"step"`
}

// DateRange bounds a date pick. Bounds are relative offsets ("-30d", "today")
// or ISO dates ("2024-01-31").
type DateRange struct {
	Start string `mapstructure:"start_date"`
	End   string `mapstructure:"end_date"`
}

// Choice is one weighted outcome of a random_choice.
type Choice struct {
	// Probability is a relative weight; weights need not sum to 100.
	Probability float64
	Pick        FieldSpec
}

// PickStrategy selects which record of a target a reference resolves to.
type PickStrategy string

const (
	PickMostRecent PickStrategy = "most_recent"
	PickFirst      PickStrategy = "first"
	PickRandom     PickStrategy = "random"
	PickIndex      PickStrategy = "index"
)

// ReferenceSpec targets a previously created record by nickname or object type.
type ReferenceSpec struct {
	Target   string       `mapstructure:"to"`
	Strategy PickStrategy `mapstructure:"pick"`
	// Index is the 1-based position among the target's records (PickIndex only).
	Index int `mapstructure:"index"`
}

// Literal builds a literal FieldSpec.
func Literal(v any) FieldSpec {
	return FieldSpec{Kind: KindLiteral, Value: v}
}

// Template builds a template FieldSpec.
func Template(text string) FieldSpec {
	return FieldSpec{Kind: KindTemplate, Template: text}
}

// Fake builds a provider call FieldSpec.
func Fake(provider string, params map[string]any) FieldSpec {
	return FieldSpec{Kind: KindFake, Provider: provider, Params: params}
}

// RandomNumber builds an inclusive integer range FieldSpec.
func RandomNumber(min, max int) FieldSpec {
	return FieldSpec{Kind: KindRandomNumber, Range: &NumberRange{Min: min, Max: max}}
}

// DateBetween builds a date range FieldSpec.
func DateBetween(start, end string) FieldSpec {
	return FieldSpec{Kind: KindDateBetween, Dates: &DateRange{Start: start, End: end}}
}

// RandomChoice builds a weighted choice FieldSpec.
func RandomChoice(choices ...Choice) FieldSpec {
	return FieldSpec{Kind: KindRandomChoice, Choices: choices}
}

// Reference builds a most-recent reference FieldSpec.
func Reference(target string) FieldSpec {
	return FieldSpec{Kind: KindReference, Reference: &ReferenceSpec{Target: target, Strategy: PickMostRecent}}
}

// ReferenceTarget returns the alias a reference-shaped spec points at.
func (s FieldSpec) ReferenceTarget() (string, bool) {
	if (s.Kind == KindReference || s.Kind == KindRandomReference) && s.Reference != nil {
		return s.Reference.Target, true
	}
	return "", false
}

// IsRandom reports whether evaluating the spec draws from the random source.
func (s FieldSpec) IsRandom() bool {
	switch s.Kind {
	case KindFake, KindRandomNumber, KindDateBetween, KindRandomChoice, KindRandomReference:
		return true
	case KindReference:
		return s.Reference != nil && s.Reference.Strategy == PickRandom
	default:
		return false
	}
}
