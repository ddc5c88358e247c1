package store

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/scanforge/scanforge/pkg/model"
)

// Memory is an in-memory Store implementation backed by mutex-guarded
// maps. It is safe for concurrent use; every upsert runs its
// read-modify-write under one lock, so it never reports ErrConflict.
type Memory struct {
	mu sync.RWMutex

	targets    map[string]model.Target
	scans      map[string]model.Scan
	endpoints  map[model.EndpointKey]model.Endpoint
	fetches    map[string]model.Fetch
	evidence   []model.Evidence
	findings   map[string]model.Finding
	findingSeq []string
	components map[model.ComponentKey]model.TechComponent
	candidates map[model.CandidateKey]model.CVECandidate
	audit      []model.AuditEvent
	exceptions map[string]model.ExceptionRecord
	exceptSeq  []string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		targets:    make(map[string]model.Target),
		scans:      make(map[string]model.Scan),
		endpoints:  make(map[model.EndpointKey]model.Endpoint),
		fetches:    make(map[string]model.Fetch),
		findings:   make(map[string]model.Finding),
		components: make(map[model.ComponentKey]model.TechComponent),
		candidates: make(map[model.CandidateKey]model.CVECandidate),
		exceptions: make(map[string]model.ExceptionRecord),
	}
}

// Compile-time interface check.
var _ Store = (*Memory)(nil)

// PutTarget implements Store.
func (m *Memory) PutTarget(_ context.Context, t model.Target) (*model.Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.Meta = model.NewMeta()
	}
	m.targets[t.ID] = t
	out := cloneTarget(t)
	return &out, nil
}

// GetTarget implements Store.
func (m *Memory) GetTarget(_ context.Context, id string) (*model.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.targets[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneTarget(t)
	return &out, nil
}

// PutScan implements Store.
func (m *Memory) PutScan(_ context.Context, s model.Scan) (*model.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.Meta = model.NewMeta()
	}
	m.scans[s.ID] = s
	out := cloneScan(s)
	return &out, nil
}

// GetScan implements Store.
func (m *Memory) GetScan(_ context.Context, id string) (*model.Scan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scans[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneScan(s)
	return &out, nil
}

// UpdateScanStatus implements Store.
func (m *Memory) UpdateScanStatus(_ context.Context, id string, status model.ScanStatus, at time.Time) (*model.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.scans[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.Status.CanTransition(status) {
		return nil, ErrIllegalTransition
	}
	s.Status = status
	if status == model.ScanRunning {
		t := at
		s.StartedAt = &t
	}
	if status.Terminal() {
		t := at
		s.FinishedAt = &t
	}
	s.Touch()
	m.scans[id] = s
	out := cloneScan(s)
	return &out, nil
}

// UpsertEndpoint implements Store.
func (m *Memory) UpsertEndpoint(_ context.Context, obs model.Endpoint, at time.Time) (*model.Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := obs.Key()
	if existing, ok := m.endpoints[key]; ok {
		existing.LastSeen = at
		existing.Touch()
		m.endpoints[key] = existing
		out := existing
		return &out, nil
	}

	obs.Meta = model.NewMeta()
	obs.FirstSeen = at
	obs.LastSeen = at
	m.endpoints[key] = obs
	out := obs
	return &out, nil
}

// EndpointByKey implements Store.
func (m *Memory) EndpointByKey(_ context.Context, key model.EndpointKey) (*model.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.endpoints[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := e
	return &out, nil
}

// ListEndpoints implements Store.
func (m *Memory) ListEndpoints(_ context.Context, scanID string) ([]model.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Endpoint
	for _, e := range m.endpoints {
		if e.ScanID == scanID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b model.Endpoint) int {
		return strings.Compare(a.URL+a.Method, b.URL+b.Method)
	})
	return out, nil
}

// UpsertFetch implements Store.
func (m *Memory) UpsertFetch(_ context.Context, f model.Fetch) (*model.Fetch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.fetches[f.ID]; ok {
		f.Meta = existing.Meta
		f.Touch()
	} else {
		if f.ID == "" {
			f.Meta = model.NewMeta()
		} else {
			now := model.Now()
			f.CreatedAt = now
			f.UpdatedAt = now
		}
	}
	m.fetches[f.ID] = f
	out := cloneFetch(f)
	return &out, nil
}

// ListFetches implements Store.
func (m *Memory) ListFetches(_ context.Context, scanID string) ([]model.Fetch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Fetch
	for _, f := range m.fetches {
		if f.ScanID == scanID {
			out = append(out, cloneFetch(f))
		}
	}
	slices.SortFunc(out, func(a, b model.Fetch) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// InsertEvidence implements Store.
func (m *Memory) InsertEvidence(_ context.Context, e model.Evidence) (*model.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.Meta = model.NewMeta()
	m.evidence = append(m.evidence, e)
	out := cloneEvidence(e)
	return &out, nil
}

// UpsertFinding implements Store.
func (m *Memory) UpsertFinding(_ context.Context, obs model.Finding, at time.Time) (*model.Finding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.findings[obs.DedupeKey]; ok {
		existing.LastSeen = at
		existing.Severity = obs.Severity
		existing.Confidence = obs.Confidence
		existing.EvidenceIDs = slices.Clone(obs.EvidenceIDs)
		existing.SourceModule = obs.SourceModule
		if obs.Title != "" {
			existing.Title = obs.Title
		}
		if obs.Description != "" {
			existing.Description = obs.Description
		}
		existing.Touch()
		m.findings[obs.DedupeKey] = existing
		out := cloneFinding(existing)
		return &out, nil
	}

	obs.Meta = model.NewMeta()
	obs.Status = model.FindingOpen
	obs.FirstSeen = at
	obs.LastSeen = at
	m.findings[obs.DedupeKey] = obs
	m.findingSeq = append(m.findingSeq, obs.DedupeKey)
	out := cloneFinding(obs)
	return &out, nil
}

// FindingByKey implements Store.
func (m *Memory) FindingByKey(_ context.Context, dedupeKey string) (*model.Finding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.findings[dedupeKey]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneFinding(f)
	return &out, nil
}

// ListFindings implements Store.
func (m *Memory) ListFindings(_ context.Context) ([]model.Finding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Finding, 0, len(m.findingSeq))
	for _, key := range m.findingSeq {
		out = append(out, cloneFinding(m.findings[key]))
	}
	return out, nil
}

// UpdateFindingStatus implements Store.
func (m *Memory) UpdateFindingStatus(_ context.Context, dedupeKey string, status model.FindingStatus, at time.Time) (*model.Finding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.findings[dedupeKey]
	if !ok {
		return nil, ErrNotFound
	}
	f.Status = status
	if status == model.FindingFixed {
		t := at
		f.FixedAt = &t
	}
	f.Touch()
	m.findings[dedupeKey] = f
	out := cloneFinding(f)
	return &out, nil
}

// UpsertTechComponent implements Store.
func (m *Memory) UpsertTechComponent(_ context.Context, c model.TechComponent) (*model.TechComponent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Fingerprints without a known endpoint are skipped entirely so a
	// component row never dangles.
	if !m.endpointIDExists(c.EndpointID) {
		return nil, nil
	}

	key := c.Key()
	if existing, ok := m.components[key]; ok {
		existing.Confidence = c.Confidence
		existing.Touch()
		m.components[key] = existing
		out := cloneComponent(existing)
		return &out, nil
	}

	c.Meta = model.NewMeta()
	m.components[key] = c
	out := cloneComponent(c)
	return &out, nil
}

// ListTechComponents implements Store.
func (m *Memory) ListTechComponents(_ context.Context) ([]model.TechComponent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.TechComponent
	for _, c := range m.components {
		out = append(out, cloneComponent(c))
	}
	slices.SortFunc(out, func(a, b model.TechComponent) int {
		return strings.Compare(a.EndpointID+a.Name, b.EndpointID+b.Name)
	})
	return out, nil
}

// UpsertCVECandidate implements Store.
func (m *Memory) UpsertCVECandidate(_ context.Context, c model.CVECandidate) (*model.CVECandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := c.Key()
	if existing, ok := m.candidates[key]; ok {
		existing.Confidence = c.Confidence
		existing.LinkedComponentID = c.LinkedComponentID
		existing.Touch()
		m.candidates[key] = existing
		out := existing
		return &out, nil
	}

	c.Meta = model.NewMeta()
	if c.Status == "" {
		c.Status = "candidate"
	}
	m.candidates[key] = c
	out := c
	return &out, nil
}

// AppendAudit implements Store.
func (m *Memory) AppendAudit(_ context.Context, ev model.AuditEvent) (*model.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev.Meta = model.NewMeta()
	ev.Immutable = true
	m.audit = append(m.audit, ev)
	out := cloneAudit(ev)
	return &out, nil
}

// ListAudit implements Store.
func (m *Memory) ListAudit(_ context.Context, scanID string) ([]model.AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.AuditEvent
	for _, ev := range m.audit {
		if scanID == "" || ev.ScanID == scanID {
			out = append(out, cloneAudit(ev))
		}
	}
	return out, nil
}

// PutException implements Store.
func (m *Memory) PutException(_ context.Context, rec model.ExceptionRecord) (*model.ExceptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.Meta = model.NewMeta()
	if rec.Status == "" {
		rec.Status = model.ExceptionApproved
	}
	m.exceptions[rec.ID] = rec
	m.exceptSeq = append(m.exceptSeq, rec.ID)
	out := rec
	return &out, nil
}

// UpdateExceptionStatus implements Store.
func (m *Memory) UpdateExceptionStatus(_ context.Context, id, status string) (*model.ExceptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.exceptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.Status = status
	rec.Touch()
	m.exceptions[id] = rec
	out := rec
	return &out, nil
}

// ListExceptions implements Store.
func (m *Memory) ListExceptions(_ context.Context) ([]model.ExceptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.ExceptionRecord, 0, len(m.exceptSeq))
	for _, id := range m.exceptSeq {
		out = append(out, m.exceptions[id])
	}
	return out, nil
}

// endpointIDExists must be called with the lock held.
func (m *Memory) endpointIDExists(id string) bool {
	if id == "" {
		return false
	}
	for _, e := range m.endpoints {
		if e.ID == id {
			return true
		}
	}
	return false
}

func cloneTarget(t model.Target) model.Target {
	t.AuthProfiles = cloneNestedMap(t.AuthProfiles)
	return t
}

func cloneScan(s model.Scan) model.Scan {
	s.ProfileCapabilities = slices.Clone(s.ProfileCapabilities)
	return s
}

func cloneFetch(f model.Fetch) model.Fetch {
	f.Request = maps.Clone(f.Request)
	f.ResponseMeta = maps.Clone(f.ResponseMeta)
	return f
}

func cloneEvidence(e model.Evidence) model.Evidence {
	e.Details = maps.Clone(e.Details)
	return e
}

func cloneFinding(f model.Finding) model.Finding {
	f.References = slices.Clone(f.References)
	f.EvidenceIDs = slices.Clone(f.EvidenceIDs)
	return f
}

func cloneComponent(c model.TechComponent) model.TechComponent {
	c.EvidenceIDs = slices.Clone(c.EvidenceIDs)
	return c
}

func cloneAudit(ev model.AuditEvent) model.AuditEvent {
	ev.Params = maps.Clone(ev.Params)
	return ev
}

func cloneNestedMap(in map[string]map[string]any) map[string]map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]map[string]any, len(in))
	for k, v := range in {
		out[k] = maps.Clone(v)
	}
	return out
}
