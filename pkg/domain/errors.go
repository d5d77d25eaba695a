package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrIllegalTransition is returned when the run state machine is driven out of order.
var ErrIllegalTransition = errors.New("illegal run state transition")

// ParseError reports a malformed recipe structure. It aborts a run before planning.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("parse error")
	if e.Line > 0 {
		fmt.Fprintf(&sb, " at line %d", e.Line)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a recipe that parses but cannot be planned:
// duplicate nicknames, invalid ranges, unknown generator keys.
type ValidationError struct {
	Object   string
	Nickname string
	Field    string
	Line     int
	Reason   string
	Err      error
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation error")
	if loc := location(e.Object, e.Nickname, e.Field, -1); loc != "" {
		sb.WriteString(" in ")
		sb.WriteString(loc)
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, " (line %d)", e.Line)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// UnresolvedReferenceError is returned when a reference targets a nickname or
// object type with no records at resolution time.
type UnresolvedReferenceError struct {
	Target string
	Reason string
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unresolved reference to %q: %s", e.Target, e.Reason)
	}
	return fmt.Sprintf("unresolved reference to %q: no records created yet", e.Target)
}

// UnknownProviderError is returned when a fake provider is not registered.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Name)
}

// RangeError is returned by random_number when min > max.
type RangeError struct {
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: min %d is greater than max %d", e.Min, e.Max)
}

// DateRangeError is returned by date_between when end < start.
type DateRangeError struct {
	Start, End time.Time
	Reason     string
}

func (e *DateRangeError) Error() string {
	if e.Reason != "" {
		return "invalid date range: " + e.Reason
	}
	return fmt.Sprintf("invalid date range: end %s is before start %s",
		e.End.Format(time.DateOnly), e.Start.Format(time.DateOnly))
}

// TemplateError is returned when a template placeholder cannot be evaluated.
type TemplateError struct {
	Template    string
	Placeholder string
	Reason      string
}

func (e *TemplateError) Error() string {
	if e.Placeholder == "" {
		return fmt.Sprintf("template %q: %s", e.Template, e.Reason)
	}
	return fmt.Sprintf("template %q: placeholder %q: %s", e.Template, e.Placeholder, e.Reason)
}

// RecordError locates a generation failure inside a recipe.
type RecordError struct {
	Object   string
	Nickname string
	Field    string
	Instance int
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: %v", location(e.Object, e.Nickname, e.Field, e.Instance), e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func location(object, nickname, field string, instance int) string {
	var sb strings.Builder
	sb.WriteString(object)
	if nickname != "" && nickname != object {
		fmt.Fprintf(&sb, " (%s)", nickname)
	}
	if instance >= 0 {
		fmt.Fprintf(&sb, " #%d", instance+1)
	}
	if field != "" {
		if sb.Len() > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(field)
	}
	return sb.String()
}
