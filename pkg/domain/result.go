package domain

import "time"

// RunStatus is the state of one execution.
type RunStatus string

const (
	StatusIdle      RunStatus = "idle"
	StatusPlanning  RunStatus = "planning"
	StatusExecuting RunStatus = "executing"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the state machine allows moving from s to next.
func (s RunStatus) CanTransition(next RunStatus) bool {
	switch s {
	case StatusIdle:
		return next == StatusPlanning || next == StatusFailed
	case StatusPlanning:
		return next == StatusExecuting || next == StatusFailed
	case StatusExecuting:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Result is the output of one run.
// A failed Result keeps the records appended before the failure for
// diagnostics; it is never a valid complete batch.
type Result struct {
	RunID      string
	SessionID  string
	Status     RunStatus
	Seed       int64
	Records    []GeneratedRecord
	Skipped    []string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Completed reports whether the run finished successfully.
func (r *Result) Completed() bool {
	return r.Status == StatusCompleted
}

// ByType groups records by object type, preserving creation order.
func (r *Result) ByType() map[string][]GeneratedRecord {
	out := make(map[string][]GeneratedRecord)
	for _, rec := range r.Records {
		out[rec.ObjectType] = append(out[rec.ObjectType], rec)
	}
	return out
}

// Count returns how many records of an object type the run produced.
func (r *Result) Count(objectType string) int {
	n := 0
	for _, rec := range r.Records {
		if rec.ObjectType == objectType {
			n++
		}
	}
	return n
}

// ObjectTypes lists the object types of the batch in first-appearance order.
func (r *Result) ObjectTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range r.Records {
		if !seen[rec.ObjectType] {
			seen[rec.ObjectType] = true
			out = append(out, rec.ObjectType)
		}
	}
	return out
}
