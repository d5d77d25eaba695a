package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxVarSize bounds a single option override value.
	DefaultMaxVarSize = 4096
	// EnvMaxVarSize overrides DefaultMaxVarSize.
	EnvMaxVarSize = "SEEDBED_MAX_VAR_SIZE"
)

var (
	ErrVarTooLarge = errors.New("option value exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("option value contains invalid UTF-8 sequences")
	ErrMalformed   = errors.New("malformed option override")
)

// ParseVars decodes option overrides written as "K:V,K2:V2".
// Values stay strings; templates and counts convert them on use.
func ParseVars(s string) (map[string]any, error) {
	out := make(map[string]any)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q (want NAME:VALUE)", ErrMalformed, pair)
		}
		clean, err := SanitizeValue(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", name, err)
		}
		out[name] = clean
	}
	return out, nil
}

// SanitizeVars cleans the string values of overrides received from
// untrusted hosts (HTTP, MCP). Non-string values pass through.
func SanitizeVars(vars map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		if s, ok := v.(string); ok {
			clean, err := SanitizeValue(s)
			if err != nil {
				return nil, fmt.Errorf("option %q: %w", k, err)
			}
			v = clean
		}
		out[k] = v
	}
	return out, nil
}

// SanitizeValue enforces the size limit, validates UTF-8, and strips control
// characters other than newline, tab and carriage return.
func SanitizeValue(input string) (string, error) {
	limit := maxVarSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrVarTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxVarSize() int {
	if val := os.Getenv(EnvMaxVarSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxVarSize
}
