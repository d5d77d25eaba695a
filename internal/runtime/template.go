package runtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/seedbed/pkg/domain"
)

const (
	placeholderOpen  = "${{"
	placeholderClose = "}}"
)

// RenderTemplate evaluates every ${{ expr }} placeholder in text.
//
// A template that is exactly one placeholder yields the typed value (an int
// stays an int, a reference stays a RecordRef). Anything else is formatted
// and concatenated into a string.
//
// Supported expressions:
//
//	Name                    a field already generated for this record
//	option_name             a recipe option or host variable
//	id, today               the record id, the clock's date
//	fake.provider           a provider call without parameters
//	random_number(1, 10)    an inclusive random integer
//	reference('alias')      the most recent record of a nickname or type
func RenderTemplate(env *Env, text string) (any, error) {
	single := strings.HasPrefix(text, placeholderOpen) &&
		strings.HasSuffix(text, placeholderClose) &&
		strings.Count(text, placeholderOpen) == 1

	var sb strings.Builder
	rest := text
	for {
		open := strings.Index(rest, placeholderOpen)
		if open < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:open])
		rest = rest[open+len(placeholderOpen):]

		end := strings.Index(rest, placeholderClose)
		if end < 0 {
			return nil, &domain.TemplateError{Template: text, Reason: "unterminated placeholder"}
		}
		expr := strings.TrimSpace(rest[:end])
		rest = rest[end+len(placeholderClose):]

		v, err := evalExpr(env, expr)
		if err != nil {
			if te, ok := err.(*domain.TemplateError); ok {
				te.Template = text
			}
			return nil, err
		}
		if single && rest == "" {
			return v, nil
		}
		sb.WriteString(FormatValue(v))
	}
	return sb.String(), nil
}

// FormatValue renders a generated value the way templates and text output show it.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.DateOnly)
	case domain.RecordRef:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func evalExpr(env *Env, expr string) (any, error) {
	if expr == "" {
		return nil, &domain.TemplateError{Reason: "empty placeholder"}
	}

	if lit, ok := literal(expr); ok {
		return lit, nil
	}
	if open := strings.IndexByte(expr, '('); open > 0 {
		if !strings.HasSuffix(expr, ")") {
			return nil, &domain.TemplateError{Placeholder: expr, Reason: "unbalanced parentheses"}
		}
		name := strings.TrimSpace(expr[:open])
		args, err := splitArgs(expr[open+1 : len(expr)-1])
		if err != nil {
			return nil, &domain.TemplateError{Placeholder: expr, Reason: err.Error()}
		}
		return callFunc(env, expr, name, args)
	}
	return lookupName(env, expr)
}

func lookupName(env *Env, name string) (any, error) {
	if v, ok := env.field(name); ok {
		return v, nil
	}
	if v, ok := env.Options[name]; ok {
		return v, nil
	}
	switch {
	case name == "id":
		if env.ID == 0 {
			return nil, &domain.TemplateError{Placeholder: name, Reason: "id is only defined inside a record"}
		}
		return env.ID, nil
	case name == "today":
		return midnight(env.Clock.Now()), nil
	case strings.HasPrefix(name, "fake."):
		if env.Providers == nil {
			return nil, &domain.TemplateError{Placeholder: name, Reason: "no provider registry"}
		}
		return env.Providers.Call(env.context(), strings.TrimPrefix(name, "fake."), env.Rand, nil)
	}
	return nil, &domain.TemplateError{
		Placeholder: name,
		Reason:      "unknown name (fields are visible only after they are generated)",
	}
}

func callFunc(env *Env, expr, name string, args []string) (any, error) {
	vals := make([]any, len(args))
	for i, a := range args {
		v, err := evalExpr(env, a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	switch name {
	case "random_number":
		if len(vals) != 2 {
			return nil, &domain.TemplateError{Placeholder: expr, Reason: "random_number takes (min, max)"}
		}
		lo, err1 := toInt(vals[0])
		hi, err2 := toInt(vals[1])
		if err1 != nil || err2 != nil {
			return nil, &domain.TemplateError{Placeholder: expr, Reason: "random_number bounds must be integers"}
		}
		return RandomNumber(env.Rand, domain.NumberRange{Min: lo, Max: hi, Step: 1})
	case "reference":
		if len(vals) != 1 {
			return nil, &domain.TemplateError{Placeholder: expr, Reason: "reference takes one target"}
		}
		target, ok := vals[0].(string)
		if !ok {
			return nil, &domain.TemplateError{Placeholder: expr, Reason: "reference target must be a string"}
		}
		return Resolve(env.Store, env.Rand, domain.ReferenceSpec{Target: target, Strategy: domain.PickMostRecent})
	default:
		if strings.HasPrefix(name, "fake.") && len(vals) == 0 {
			return lookupName(env, name)
		}
		return nil, &domain.TemplateError{Placeholder: expr, Reason: fmt.Sprintf("unknown function %q", name)}
	}
}

// literal parses quoted strings and integers.
func literal(s string) (any, bool) {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	return nil, false
}

func splitArgs(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var (
		args  []string
		cur   strings.Builder
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case c == ',':
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated string")
	}
	args = append(args, strings.TrimSpace(cur.String()))
	for _, a := range args {
		if a == "" {
			return nil, fmt.Errorf("empty argument")
		}
	}
	return args, nil
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != float64(int64(x)) {
			return 0, fmt.Errorf("%v is not a whole number", x)
		}
		return int(x), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}
