// Package output writes generated records to files, terminals and databases.
package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/seedbed/pkg/domain"
)

// Writer consumes batches of records. Write may be called once per batch;
// Close flushes and releases resources.
type Writer interface {
	Write(ctx context.Context, records []domain.GeneratedRecord) error
	Close() error
}

// Format names a file or terminal output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts the format names and common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md", "text", "txt":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json or markdown)", s)
	}
}

// New creates a stream writer for format. The writer does not close w.
func New(format Format, w io.Writer, opts ...MarkdownOption) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(w), nil
	case FormatMarkdown:
		return NewMarkdownWriter(w, opts...), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// columns returns the field names of records in first-appearance order.
func columns(records []domain.GeneratedRecord) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		for _, fv := range rec.Values {
			if !seen[fv.Name] {
				seen[fv.Name] = true
				cols = append(cols, fv.Name)
			}
		}
	}
	return cols
}

// groupByType splits records per object type, keeping first-appearance order.
func groupByType(records []domain.GeneratedRecord) ([]string, map[string][]domain.GeneratedRecord) {
	var order []string
	groups := make(map[string][]domain.GeneratedRecord)
	for _, rec := range records {
		if _, ok := groups[rec.ObjectType]; !ok {
			order = append(order, rec.ObjectType)
		}
		groups[rec.ObjectType] = append(groups[rec.ObjectType], rec)
	}
	return order, groups
}

// formatCell renders a value for text output.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.Format(time.DateOnly)
	case domain.RecordRef:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
