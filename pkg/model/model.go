// Package model defines the persistent entities of the scan engine and
// their identity keys.
//
// Every entity carries a uuid identifier plus creation and last-update
// timestamps. Entities whose merge behavior is keyed (Endpoint, Finding,
// TechComponent, CVECandidate) expose their identity key as a method so
// the store and the orchestrator agree on what "the same row" means.
package model

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh entity identifier.
func NewID() string { return uuid.NewString() }

// Now returns the current UTC time. All persisted timestamps are UTC.
func Now() time.Time { return time.Now().UTC() }

// Meta is the common header embedded in every persistent entity.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMeta builds a Meta with a fresh ID and both timestamps set to now.
func NewMeta() Meta {
	now := Now()
	return Meta{ID: NewID(), CreatedAt: now, UpdatedAt: now}
}

// Touch advances the last-update timestamp.
func (m *Meta) Touch() { m.UpdatedAt = Now() }

// Target is a scanned system. Created by an operator; immutable except for
// auth profile updates; never auto-deleted.
type Target struct {
	Meta
	BaseURL     string `json:"base_url"`
	Environment string `json:"environment"`

	// AuthProfiles holds named opaque credential bundles (headers,
	// cookies, flows). The engine never interprets their contents.
	AuthProfiles map[string]map[string]any `json:"auth_profiles,omitempty"`
}

// Scan is one execution run against a target. ProfileCapabilities is the
// grant set frozen at creation; it never changes once the scan starts.
type Scan struct {
	Meta
	TargetID    string `json:"target_id"`
	Mode        string `json:"mode"`
	ProfileName string `json:"profile_name"`

	// ProfileCapabilities is the snapshot of granted capability tokens.
	// Later edits to the profile cannot retroactively change a running
	// scan's grants.
	ProfileCapabilities []string `json:"profile_capabilities"`

	Status         ScanStatus `json:"status"`
	BaselineScanID string     `json:"baseline_scan_id,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// EndpointKey is the identity of an Endpoint within a scan.
type EndpointKey struct {
	ScanID     string
	Method     string
	URL        string
	ParamsHash string
}

// Endpoint is a distinct (method, URL, parameter-shape) observed during a
// scan. Re-observation advances LastSeen instead of creating a duplicate.
type Endpoint struct {
	Meta
	ScanID     string `json:"scan_id"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	ParamsHash string `json:"params_hash"`

	// Source records how the endpoint was found: discovery|spec|manual|proxy.
	Source string `json:"source"`

	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Key returns the endpoint's identity key.
func (e *Endpoint) Key() EndpointKey {
	return EndpointKey{ScanID: e.ScanID, Method: e.Method, URL: e.URL, ParamsHash: e.ParamsHash}
}

// Fetch is one captured HTTP exchange tied to an endpoint. A Fetch with
// StorageMode none never has a body path.
type Fetch struct {
	Meta
	ScanID           string         `json:"scan_id"`
	EndpointID       string         `json:"endpoint_id"`
	Request          map[string]any `json:"request"`
	ResponseMeta     map[string]any `json:"response_meta"`
	StorageMode      StorageMode    `json:"storage_mode"`
	RedactionVersion string         `json:"redaction_version"`
	BodyPath         string         `json:"body_path,omitempty"`
	BodyHash         string         `json:"body_hash,omitempty"`
}

// Evidence is a fragment supporting a finding or fingerprint. Evidence is
// append-only per capture; there is no identity key.
type Evidence struct {
	Meta
	FetchID  string         `json:"fetch_id,omitempty"`
	Kind     string         `json:"kind"`
	Snippet  string         `json:"snippet"`
	Location string         `json:"location"`
	Hash     string         `json:"hash"`
	Details  map[string]any `json:"details,omitempty"`
}

// ComponentKey is the identity of a TechComponent.
type ComponentKey struct {
	EndpointID string
	Name       string
	Version    string
	CPE        string
}

// TechComponent is a fingerprinted piece of software on an endpoint.
// Re-fingerprinting the same identity updates confidence.
type TechComponent struct {
	Meta
	EndpointID  string     `json:"endpoint_id"`
	Name        string     `json:"name"`
	Version     string     `json:"version,omitempty"`
	CPE         string     `json:"cpe,omitempty"`
	Confidence  Confidence `json:"confidence"`
	EvidenceIDs []string   `json:"evidence_ids,omitempty"`
}

// Key returns the component's identity key.
func (c *TechComponent) Key() ComponentKey {
	return ComponentKey{EndpointID: c.EndpointID, Name: c.Name, Version: c.Version, CPE: c.CPE}
}

// CandidateKey is the identity of a CVECandidate.
type CandidateKey struct {
	CPE    string
	CVEID  string
	Source string
}

// CVECandidate is a possible vulnerability match for a CPE.
type CVECandidate struct {
	Meta
	CPE               string     `json:"cpe"`
	CVEID             string     `json:"cve_id"`
	Source            string     `json:"source"`
	Confidence        Confidence `json:"confidence"`
	Status            string     `json:"status"`
	LinkedComponentID string     `json:"linked_component_id,omitempty"`
}

// Key returns the candidate's identity key.
func (c *CVECandidate) Key() CandidateKey {
	return CandidateKey{CPE: c.CPE, CVEID: c.CVEID, Source: c.Source}
}

// Finding is a deduplicated security issue. Exactly one live Finding
// exists per DedupeKey; re-observation merges in place.
type Finding struct {
	Meta
	DedupeKey   string        `json:"dedupe_key"`
	Type        string        `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Severity    Severity      `json:"severity"`
	Confidence  Confidence    `json:"confidence"`
	Status      FindingStatus `json:"status"`
	Remediation string        `json:"remediation,omitempty"`
	References  []string      `json:"references,omitempty"`
	CWEID       string        `json:"cwe_id,omitempty"`
	CVEID       string        `json:"cve_id,omitempty"`
	FirstSeen   time.Time     `json:"first_seen"`
	LastSeen    time.Time     `json:"last_seen"`
	FixedAt     *time.Time    `json:"fixed_at,omitempty"`
	EvidenceIDs []string      `json:"evidence_ids,omitempty"`

	// SourceModule is the module that last asserted this finding.
	SourceModule string `json:"source_module"`
}

// ExceptionRecord is an approved, time-boxed risk acceptance for a finding
// key. Expiry is a first-class fact: a record past ExpiresAt is logically
// expired even before a sweep marks it so.
type ExceptionRecord struct {
	Meta
	FindingKey string    `json:"finding_key"`
	ExpiresAt  time.Time `json:"expires_at"`
	Approver   string    `json:"approver"`
	Ticket     string    `json:"ticket"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Owner      string    `json:"owner,omitempty"`
}

// Exception statuses.
const (
	ExceptionApproved = "approved"
	ExceptionExpired  = "expired"
	ExceptionRevoked  = "revoked"
)

// Expired reports whether the record is logically expired at the given time.
func (r *ExceptionRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// AuditEvent is one append-only audit row. Rows are never updated or
// deleted; Immutable is a guard flag for downstream consumers.
type AuditEvent struct {
	Meta
	Actor     string         `json:"actor"`
	Action    AuditAction    `json:"action"`
	ScanID    string         `json:"scan_id,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	Immutable bool           `json:"immutable"`
}
