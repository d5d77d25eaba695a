package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/registry"
)

// Severity ranks an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of a static check.
type Issue struct {
	Severity Severity
	Object   string
	Nickname string
	Field    string
	Line     int
	Message  string
}

func (i Issue) String() string {
	var sb strings.Builder
	sb.WriteString(string(i.Severity))
	if i.Line > 0 {
		fmt.Fprintf(&sb, " line %d", i.Line)
	}
	if i.Object != "" {
		sb.WriteString(" ")
		sb.WriteString(i.Object)
		if i.Nickname != "" && i.Nickname != i.Object {
			fmt.Fprintf(&sb, " (%s)", i.Nickname)
		}
		if i.Field != "" {
			sb.WriteString(".")
			sb.WriteString(i.Field)
		}
	}
	sb.WriteString(": ")
	sb.WriteString(i.Message)
	return sb.String()
}

// Report collects the issues found in a recipe.
type Report struct {
	Issues []Issue
}

// OK reports whether the recipe has no error-level issues.
func (r *Report) OK() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Err returns the error-level issues as a single error, or nil.
func (r *Report) Err() error {
	var msgs []string
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			msgs = append(msgs, i.String())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(msgs), strings.Join(msgs, "\n- "))
}

// ProviderSet answers whether a fake provider exists.
type ProviderSet interface {
	Names() []string
}

var placeholderPattern = regexp.MustCompile(`\$\{\{\s*(.*?)\s*\}\}`)

// Validate walks the recipe in declaration order and reports what would fail
// at run time without executing it: references to aliases no earlier block
// creates, fake providers missing from the catalog, and template names that
// are neither earlier fields nor options.
func Validate(recipe *domain.Recipe, providers ProviderSet) *Report {
	report := &Report{}
	known := make(map[string]bool)
	if providers != nil {
		for _, n := range providers.Names() {
			known[registry.Normalize(n)] = true
		}
	}

	declared := make(map[string]bool)
	for _, b := range recipe.Blocks {
		declared[b.Object] = true
		if b.Nickname != "" {
			declared[b.Nickname] = true
		}
	}
	options := recipe.OptionDefaults()

	created := make(map[string]bool)
	for _, b := range recipe.Blocks {
		add := func(sev Severity, field string, line int, format string, args ...any) {
			if line == 0 {
				line = b.Line
			}
			report.Issues = append(report.Issues, Issue{
				Severity: sev, Object: b.Object, Nickname: b.Nickname, Field: field, Line: line,
				Message: fmt.Sprintf(format, args...),
			})
		}

		if b.Count.Kind == domain.CountTemplate {
			for _, name := range templateNames(b.Count.Template) {
				if _, ok := options[name]; !ok {
					add(SeverityError, "count", 0, "count template uses %q, which is not a declared option", name)
				}
			}
		}

		var fields []string
		for _, f := range b.Fields {
			walkSpec(f.Spec, func(spec domain.FieldSpec) {
				if target, ok := spec.ReferenceTarget(); ok {
					switch {
					case !declared[target]:
						add(SeverityError, f.Name, f.Line, "reference to %q, which no block declares", target)
					case !created[target]:
						add(SeverityError, f.Name, f.Line, "reference to %q before any block creates it", target)
					}
				}
				if spec.Kind == domain.KindFake && providers != nil && !known[registry.Normalize(spec.Provider)] {
					add(SeverityError, f.Name, f.Line, "unknown fake provider %q", spec.Provider)
				}
				if spec.Kind == domain.KindTemplate {
					for _, name := range templateNames(spec.Template) {
						if !visible(name, fields, options) {
							add(SeverityWarning, f.Name, f.Line, "template uses %q, which is not an earlier field or option", name)
						}
					}
				}
			})
			fields = append(fields, f.Name)
		}

		if b.Count.Kind == domain.CountLiteral && b.Count.Value == 0 {
			add(SeverityWarning, "count", 0, "count is 0, the block creates no records")
			continue
		}
		created[b.Object] = true
		if b.Nickname != "" {
			created[b.Nickname] = true
		}
	}

	sort.SliceStable(report.Issues, func(i, j int) bool { return report.Issues[i].Line < report.Issues[j].Line })
	return report
}

func walkSpec(spec domain.FieldSpec, fn func(domain.FieldSpec)) {
	fn(spec)
	for _, c := range spec.Choices {
		walkSpec(c.Pick, fn)
	}
}

// templateNames returns the bare names a template reads. Function calls and
// literals are skipped.
func templateNames(tmpl string) []string {
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		expr := m[1]
		if strings.ContainsAny(expr, "('\"") || expr == "" {
			continue
		}
		if expr[0] >= '0' && expr[0] <= '9' {
			continue
		}
		names = append(names, expr)
	}
	return names
}

func visible(name string, fields []string, options map[string]any) bool {
	switch {
	case name == "id" || name == "today" || strings.HasPrefix(name, "fake."):
		return true
	case options != nil:
		if _, ok := options[name]; ok {
			return true
		}
	}
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
