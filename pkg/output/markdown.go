package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/seedbed/pkg/domain"
)

// ContentRenderer transforms markdown before it is written, e.g. to ANSI for a terminal.
type ContentRenderer func(string) (string, error)

// MarkdownOption configures a MarkdownWriter.
type MarkdownOption func(*MarkdownWriter)

// WithRenderer renders every batch through fn.
func WithRenderer(fn ContentRenderer) MarkdownOption {
	return func(m *MarkdownWriter) {
		m.render = fn
	}
}

// MarkdownWriter writes each batch as one table per object type.
type MarkdownWriter struct {
	w      io.Writer
	render ContentRenderer
	batch  int
}

// NewMarkdownWriter creates a markdown writer over w.
func NewMarkdownWriter(w io.Writer, opts ...MarkdownOption) *MarkdownWriter {
	m := &MarkdownWriter{w: w}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Write renders records as markdown tables.
func (m *MarkdownWriter) Write(ctx context.Context, records []domain.GeneratedRecord) error {
	if len(records) == 0 {
		return nil
	}
	m.batch++

	doc := Markdown(records)
	if m.render != nil {
		rendered, err := m.render(doc)
		if err != nil {
			return fmt.Errorf("render batch %d: %w", m.batch, err)
		}
		doc = rendered
	}
	_, err := io.WriteString(m.w, doc)
	return err
}

// Close is a no-op; the writer holds no buffered state.
func (m *MarkdownWriter) Close() error { return nil }

// Markdown renders records as tables, one "## Type" section per object type.
func Markdown(records []domain.GeneratedRecord) string {
	var sb strings.Builder
	order, groups := groupByType(records)
	for i, objectType := range order {
		if i > 0 {
			sb.WriteString("\n")
		}
		recs := groups[objectType]
		cols := columns(recs)

		fmt.Fprintf(&sb, "## %s\n\n", objectType)
		sb.WriteString("| id |")
		for _, c := range cols {
			sb.WriteString(" " + escapeCell(c) + " |")
		}
		sb.WriteString("\n|---|")
		for range cols {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")

		for _, rec := range recs {
			sb.WriteString("| " + strconv.Itoa(rec.ID) + " |")
			for _, c := range cols {
				v, _ := rec.Field(c)
				sb.WriteString(" " + escapeCell(formatCell(v)) + " |")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
