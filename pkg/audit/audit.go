// Package audit appends the immutable trail of everything the engine does.
//
// Every capability denial, module invocation, scan status transition, and
// exception lifecycle event lands here as exactly one row. Rows are never
// updated; the Immutable flag is a guard for downstream consumers, not a
// storage-level protection.
package audit

import (
	"context"
	"log/slog"

	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/store"
)

// Recorder appends audit rows through the persistence port and mirrors
// them to the structured log.
type Recorder struct {
	store  store.Store
	logger *slog.Logger
}

// NewRecorder creates a recorder. A nil logger falls back to slog.Default().
func NewRecorder(s store.Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: s, logger: orDefault(logger)}
}

// Record appends one audit row.
func (r *Recorder) Record(ctx context.Context, actor string, action model.AuditAction, scanID string, params map[string]any) (*model.AuditEvent, error) {
	ev, err := r.store.AppendAudit(ctx, model.AuditEvent{
		Actor:  actor,
		Action: action,
		ScanID: scanID,
		Params: params,
	})
	if err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "audit event",
		"actor", actor,
		"action", string(action),
		"scan_id", scanID,
	)
	return ev, nil
}

// orDefault returns l if non-nil, otherwise slog.Default().
func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
