package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scanforge/scanforge/pkg/event"
	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/retry"
	"github.com/scanforge/scanforge/pkg/storage"
	"github.com/scanforge/scanforge/pkg/store"
)

// persistEvent merges one module event into the store and writes the
// module.run audit row that proves the event was handled. Each event is
// its own transaction scope: a later event failing never unwinds an
// earlier one.
func (e *Engine) persistEvent(ctx context.Context, ev event.Event) error {
	if err := e.mergeEvent(ctx, ev); err != nil {
		return err
	}
	e.metrics.eventMerged(string(ev.Kind()))

	meta := ev.Meta()
	_, err := e.recorder.Record(ctx, meta.Module, model.AuditModuleRun, meta.ScanID, map[string]any{
		"kind":  string(ev.Kind()),
		"event": auditPayload(ev),
	})
	return err
}

// mergeEvent dispatches by event kind to the identity-keyed upsert. Every
// upsert runs under the conflict-retry policy: a store reporting a lost
// race (ErrConflict) is retried; any other error stops immediately.
func (e *Engine) mergeEvent(ctx context.Context, ev event.Event) error {
	switch ev := ev.(type) {
	case event.EndpointDiscovered:
		return e.withConflictRetry(ctx, func() error { return e.mergeEndpoint(ctx, ev) })
	case event.FetchCaptured:
		return e.withConflictRetry(ctx, func() error { return e.mergeFetch(ctx, ev) })
	case event.EvidenceCaptured:
		return e.withConflictRetry(ctx, func() error { return e.mergeEvidence(ctx, ev) })
	case event.FindingRaised:
		return e.withConflictRetry(ctx, func() error { return e.mergeFinding(ctx, ev) })
	case event.ComponentFingerprinted:
		return e.withConflictRetry(ctx, func() error { return e.mergeComponent(ctx, ev) })
	case event.CVECandidateLinked:
		return e.withConflictRetry(ctx, func() error { return e.mergeCandidate(ctx, ev) })
	case event.RecordPack:
		// No dedicated storage yet; the audit row keeps traceability.
		return nil
	default:
		return fmt.Errorf("engine: unhandled event kind %q", ev.Kind())
	}
}

// withConflictRetry retries fn while it reports store.ErrConflict and
// stops on anything else.
func (e *Engine) withConflictRetry(ctx context.Context, fn func() error) error {
	return retry.Do(ctx, e.retryCfg, func() error {
		err := fn()
		if err != nil && !errors.Is(err, store.ErrConflict) {
			return retry.Stop(err)
		}
		return err
	})
}

func (e *Engine) mergeEndpoint(ctx context.Context, ev event.EndpointDiscovered) error {
	method := ev.Method
	if method == "" {
		method = "GET"
	}
	paramsHash := ev.ParamsHash
	if paramsHash == "" {
		paramsHash = model.NoParamsHash
	}
	source := ev.Source
	if source == "" {
		source = "discovery"
	}
	_, err := e.store.UpsertEndpoint(ctx, model.Endpoint{
		ScanID:     ev.ScanID,
		Method:     method,
		URL:        ev.URL,
		ParamsHash: paramsHash,
		Source:     source,
	}, model.Now())
	return err
}

// mergeFetch runs the storage pipeline for the captured body, then
// upserts the Fetch row. A backend failure is fatal to the fetch's
// artifact only: the row is kept with no body path and the scan goes on.
func (e *Engine) mergeFetch(ctx context.Context, ev event.FetchCaptured) error {
	mode := ev.StorageMode
	if mode == "" {
		mode = e.settings.StorageModeDefault
	} else if !mode.IsValid() {
		e.logger.WarnContext(ctx, "unknown storage mode on fetch, using default",
			"scan_id", ev.ScanID, "fetch_id", ev.FetchID, "mode", string(mode))
		mode = e.settings.StorageModeDefault
	}

	fetchID := ev.FetchID
	if fetchID == "" {
		fetchID = model.NewID()
	}

	fetch := model.Fetch{
		ScanID:           ev.ScanID,
		EndpointID:       ev.EndpointID,
		Request:          ev.Request,
		ResponseMeta:     ev.ResponseMeta,
		StorageMode:      mode,
		RedactionVersion: storage.RedactionVersion,
	}
	fetch.ID = fetchID

	art, err := e.storage.StoreBody(ctx, ev.ScanID, fetchID, ev.Body, mode)
	if err != nil {
		e.logger.WarnContext(ctx, "artifact write failed, keeping fetch without body",
			"scan_id", ev.ScanID, "fetch_id", fetchID, "error", err)
	} else if art != nil {
		fetch.BodyPath = art.Path
		fetch.BodyHash = art.Hash
	}

	_, err = e.store.UpsertFetch(ctx, fetch)
	return err
}

func (e *Engine) mergeEvidence(ctx context.Context, ev event.EvidenceCaptured) error {
	_, err := e.store.InsertEvidence(ctx, model.Evidence{
		FetchID:  ev.FetchID,
		Kind:     ev.EvKind,
		Snippet:  ev.Snippet,
		Location: ev.Location,
		Hash:     ev.Hash,
		Details:  ev.Details,
	})
	return err
}

func (e *Engine) mergeFinding(ctx context.Context, ev event.FindingRaised) error {
	_, err := e.store.UpsertFinding(ctx, model.Finding{
		DedupeKey:    ev.DedupeKey,
		Type:         ev.Type,
		Title:        ev.Title,
		Description:  ev.Description,
		Severity:     ev.Severity,
		Confidence:   ev.Confidence,
		Remediation:  ev.Remediation,
		References:   ev.References,
		CWEID:        ev.CWEID,
		CVEID:        ev.CVEID,
		EvidenceIDs:  ev.EvidenceIDs,
		SourceModule: ev.Meta().Module,
	}, model.Now())
	return err
}

func (e *Engine) mergeComponent(ctx context.Context, ev event.ComponentFingerprinted) error {
	if ev.EndpointID == "" {
		// No endpoint context; skip so a component row never dangles.
		e.logger.DebugContext(ctx, "skipping fingerprint without endpoint", "component", ev.Name)
		return nil
	}
	c, err := e.store.UpsertTechComponent(ctx, model.TechComponent{
		EndpointID: ev.EndpointID,
		Name:       ev.Name,
		Version:    ev.Version,
		CPE:        ev.CPE,
		Confidence: ev.Confidence,
	})
	if err != nil {
		return err
	}
	if c == nil {
		e.logger.DebugContext(ctx, "skipping fingerprint for unknown endpoint", "endpoint_id", ev.EndpointID, "component", ev.Name)
	}
	return nil
}

func (e *Engine) mergeCandidate(ctx context.Context, ev event.CVECandidateLinked) error {
	_, err := e.store.UpsertCVECandidate(ctx, model.CVECandidate{
		CPE:               ev.CPE,
		CVEID:             ev.CVEID,
		Source:            ev.Source,
		Confidence:        ev.Confidence,
		Status:            "candidate",
		LinkedComponentID: ev.LinkedComponentID,
	})
	return err
}

// auditPayload serializes an event for the audit row. Raw bodies are
// dropped: the audit trail records that a fetch happened, not its
// (pre-redaction) content.
func auditPayload(ev event.Event) map[string]any {
	data, err := json.Marshal(ev)
	if err != nil {
		return map[string]any{"marshal_error": err.Error()}
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return map[string]any{"marshal_error": err.Error()}
	}
	delete(payload, "body")
	return payload
}
