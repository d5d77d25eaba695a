package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/seedbed/pkg/domain"
)

// AuditHooks logs every lifecycle event at debug level.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.Debug("Run Start", "run_id", e.RunID, "session_id", e.SessionID)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				logger.Debug("Run Finish (Error)", "run_id", e.RunID, "records", e.Records, "err", e.Err)
				return
			}
			logger.Debug("Run Finish", "run_id", e.RunID, "records", e.Records, "duration", e.Duration)
		},
		OnBlockStart: func(ctx context.Context, e *domain.BlockEvent) {
			logger.Debug("Block Start", "index", e.Index, "object", e.Object, "nickname", e.Nickname, "count", e.Count)
		},
		OnBlockSkip: func(ctx context.Context, e *domain.BlockEvent) {
			logger.Debug("Block Skip", "index", e.Index, "object", e.Object, "nickname", e.Nickname)
		},
		OnRecord: func(ctx context.Context, e *domain.RecordEvent) {
			logger.Debug("Record", "object", e.Record.ObjectType, "id", e.Record.ID)
		},
	}
}
