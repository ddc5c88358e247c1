package engine

import (
	"context"
	"time"

	"github.com/scanforge/scanforge/pkg/model"
)

// CreateException records an approved, time-boxed risk acceptance for a
// finding key and audits it. The engine does not enforce exceptions; it
// keeps them queryable for reporting.
func (e *Engine) CreateException(ctx context.Context, rec model.ExceptionRecord) (*model.ExceptionRecord, error) {
	created, err := e.store.PutException(ctx, rec)
	if err != nil {
		return nil, err
	}
	if _, err := e.recorder.Record(ctx, rec.Approver, model.AuditExceptionCreated, "", map[string]any{
		"finding_key": created.FindingKey,
		"ticket":      created.Ticket,
		"expires_at":  created.ExpiresAt,
	}); err != nil {
		return nil, err
	}
	return created, nil
}

// ExpireExceptions marks every approved record past its expiry as expired
// and audits each transition. A record past expires_at is logically
// expired before this sweep runs; the sweep just makes it explicit.
// It returns the number of records expired.
func (e *Engine) ExpireExceptions(ctx context.Context, now time.Time) (int, error) {
	recs, err := e.store.ListExceptions(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, rec := range recs {
		if rec.Status != model.ExceptionApproved || !rec.Expired(now) {
			continue
		}
		if _, err := e.store.UpdateExceptionStatus(ctx, rec.ID, model.ExceptionExpired); err != nil {
			return expired, err
		}
		if _, err := e.recorder.Record(ctx, "system", model.AuditExceptionExpired, "", map[string]any{
			"finding_key": rec.FindingKey,
			"ticket":      rec.Ticket,
		}); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}
