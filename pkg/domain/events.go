package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventRunFinish  EventType = "run_finish"
	EventBlockStart EventType = "block_start"
	EventBlockSkip  EventType = "block_skip"
	EventRecord     EventType = "record"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	SessionID string    `json:"session_id"`
}

// RunEvent marks the start or end of a run.
type RunEvent struct {
	EventBase
	Status   RunStatus     `json:"status"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// BlockEvent marks the activation (or skip) of an ObjectBlock.
type BlockEvent struct {
	EventBase
	Index    int    `json:"index"`
	Object   string `json:"object"`
	Nickname string `json:"nickname,omitempty"`
	Count    int    `json:"count"`
}

// RecordEvent is emitted after a record is appended to the store.
type RecordEvent struct {
	EventBase
	Record GeneratedRecord `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the engine goroutine; nil hooks are skipped.
type LifecycleHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnRunFinish  func(context.Context, *RunEvent)
	OnBlockStart func(context.Context, *BlockEvent)
	OnBlockSkip  func(context.Context, *BlockEvent)
	OnRecord     func(context.Context, *RecordEvent)
}

// MergeHooks chains several hook sets, calling them in order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range sets {
		h := h
		merged.OnRunStart = chain(merged.OnRunStart, h.OnRunStart)
		merged.OnRunFinish = chain(merged.OnRunFinish, h.OnRunFinish)
		merged.OnBlockStart = chain(merged.OnBlockStart, h.OnBlockStart)
		merged.OnBlockSkip = chain(merged.OnBlockSkip, h.OnBlockSkip)
		merged.OnRecord = chain(merged.OnRecord, h.OnRecord)
	}
	return merged
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
