package domain

// Recipe is a parsed recipe document. Block order is both creation order and
// the only source of reference availability.
type Recipe struct {
	// Source is a descriptive label (usually the file name).
	Source  string
	Options []Option
	Blocks  []ObjectBlock
}

// Option declares a user-overridable value visible to templates.
type Option struct {
	Name    string
	Default any
	Line    int
}

// ObjectBlock declares one or more records of a single object type.
type ObjectBlock struct {
	Object   string
	Nickname string
	JustOnce bool
	Count    CountSpec
	Fields   []Field

	// Line is the 1-based line of the block in the source document (0 if built in code).
	Line int
}

// Alias returns the name references use to target this block.
func (b ObjectBlock) Alias() string {
	if b.Nickname != "" {
		return b.Nickname
	}
	return b.Object
}

// Field is a named FieldSpec. Fields are evaluated in declaration order.
type Field struct {
	Name string
	Spec FieldSpec
	Line int
}

// CountKind selects how a block's instance count is obtained.
type CountKind string

const (
	CountLiteral  CountKind = "literal"
	CountRandom   CountKind = "random_number"
	CountTemplate CountKind = "template"
)

// CountSpec is either a literal count, a random_number generator, or a template
// evaluated against recipe options. The zero value means a single instance.
type CountSpec struct {
	Kind     CountKind
	Value    int
	Range    *NumberRange
	Template string
}

// FixedCount builds a literal CountSpec.
func FixedCount(n int) CountSpec {
	return CountSpec{Kind: CountLiteral, Value: n}
}

// IsZero reports whether the spec was left unset.
func (c CountSpec) IsZero() bool {
	return c.Kind == ""
}

// OptionDefaults returns the declared option defaults keyed by name.
func (r *Recipe) OptionDefaults() map[string]any {
	out := make(map[string]any, len(r.Options))
	for _, o := range r.Options {
		out[o.Name] = o.Default
	}
	return out
}

// FindAlias returns the first block whose nickname, or object type, equals alias.
func (r *Recipe) FindAlias(alias string) (ObjectBlock, bool) {
	for _, b := range r.Blocks {
		if b.Nickname == alias {
			return b, true
		}
	}
	for _, b := range r.Blocks {
		if b.Object == alias {
			return b, true
		}
	}
	return ObjectBlock{}, false
}
