// Package store defines the transactional persistence port the engine
// writes through, and an in-memory implementation of it.
//
// Every merge in the engine is an upsert keyed by the entity's identity
// key, never a blind insert. The upsert semantics live here so that every
// implementation upholds them atomically: an implementation must execute
// each upsert as one atomic read-modify-write (a mutex in the in-memory
// store, a serializable transaction or native upsert in a SQL store).
// Implementations that detect a lost race return ErrConflict; callers
// retry.
package store

import (
	"context"
	"time"

	"github.com/scanforge/scanforge/pkg/model"
)

// Store is the persistence port consumed by the engine.
//
// All methods are safe for concurrent use. Returned entities are private
// copies; mutating them does not touch stored state.
type Store interface {
	// PutTarget inserts a target.
	PutTarget(ctx context.Context, t model.Target) (*model.Target, error)

	// GetTarget returns the target or ErrNotFound.
	GetTarget(ctx context.Context, id string) (*model.Target, error)

	// PutScan inserts a scan.
	PutScan(ctx context.Context, s model.Scan) (*model.Scan, error)

	// GetScan returns the scan or ErrNotFound.
	GetScan(ctx context.Context, id string) (*model.Scan, error)

	// UpdateScanStatus advances the scan's lifecycle status. It enforces
	// the monotone lifecycle (ErrIllegalTransition otherwise), stamps
	// StartedAt when entering running and FinishedAt when entering a
	// terminal state.
	UpdateScanStatus(ctx context.Context, id string, status model.ScanStatus, at time.Time) (*model.Scan, error)

	// UpsertEndpoint merges an endpoint observation by its identity key
	// (scan, method, url, params_hash): if present, LastSeen advances;
	// otherwise a row is inserted with FirstSeen = LastSeen = at.
	UpsertEndpoint(ctx context.Context, obs model.Endpoint, at time.Time) (*model.Endpoint, error)

	// EndpointByKey returns the endpoint for the identity key or ErrNotFound.
	EndpointByKey(ctx context.Context, key model.EndpointKey) (*model.Endpoint, error)

	// ListEndpoints returns the endpoints observed during a scan.
	ListEndpoints(ctx context.Context, scanID string) ([]model.Endpoint, error)

	// UpsertFetch stores a captured exchange keyed by fetch ID; repeated
	// stores for the same fetch overwrite.
	UpsertFetch(ctx context.Context, f model.Fetch) (*model.Fetch, error)

	// ListFetches returns the captured exchanges for a scan.
	ListFetches(ctx context.Context, scanID string) ([]model.Fetch, error)

	// InsertEvidence appends an evidence row. Evidence has no identity
	// key; every capture is a new row.
	InsertEvidence(ctx context.Context, e model.Evidence) (*model.Evidence, error)

	// UpsertFinding merges a finding observation by dedupe key: if a row
	// exists, LastSeen, severity, confidence, evidence ids, source module,
	// title and description are updated in place; otherwise a row is
	// inserted open with FirstSeen = LastSeen = at. At most one row ever
	// exists per dedupe key.
	UpsertFinding(ctx context.Context, obs model.Finding, at time.Time) (*model.Finding, error)

	// FindingByKey returns the finding for the dedupe key or ErrNotFound.
	FindingByKey(ctx context.Context, dedupeKey string) (*model.Finding, error)

	// ListFindings returns all findings.
	ListFindings(ctx context.Context) ([]model.Finding, error)

	// UpdateFindingStatus transitions a finding's lifecycle status,
	// stamping FixedAt when it becomes fixed.
	UpdateFindingStatus(ctx context.Context, dedupeKey string, status model.FindingStatus, at time.Time) (*model.Finding, error)

	// UpsertTechComponent merges a fingerprint by (endpoint, name,
	// version, cpe): if present, confidence is updated; otherwise a row
	// is inserted. When the referenced endpoint is unknown the event is
	// skipped entirely and (nil, nil) is returned.
	UpsertTechComponent(ctx context.Context, c model.TechComponent) (*model.TechComponent, error)

	// ListTechComponents returns all fingerprinted components.
	ListTechComponents(ctx context.Context) ([]model.TechComponent, error)

	// UpsertCVECandidate merges a candidate by (cpe, cve_id, source): if
	// present, confidence and linked component are updated; otherwise a
	// row is inserted.
	UpsertCVECandidate(ctx context.Context, c model.CVECandidate) (*model.CVECandidate, error)

	// AppendAudit appends an audit row. Audit rows are never updated or
	// deleted.
	AppendAudit(ctx context.Context, ev model.AuditEvent) (*model.AuditEvent, error)

	// ListAudit returns audit rows in append order, filtered to a scan
	// when scanID is non-empty.
	ListAudit(ctx context.Context, scanID string) ([]model.AuditEvent, error)

	// PutException inserts an exception record.
	PutException(ctx context.Context, rec model.ExceptionRecord) (*model.ExceptionRecord, error)

	// UpdateExceptionStatus transitions an exception record's status.
	UpdateExceptionStatus(ctx context.Context, id, status string) (*model.ExceptionRecord, error)

	// ListExceptions returns all exception records.
	ListExceptions(ctx context.Context) ([]model.ExceptionRecord, error)
}
