// Package event defines the typed, immutable messages a scan module emits
// during a run.
//
// Events are the only way a module affects persistent state: the module
// produces them, the orchestrator consumes them one at a time and merges
// each into the store. Every event serializes to JSON for the audit trail.
package event

import "github.com/scanforge/scanforge/pkg/model"

// Kind identifies the event type for merge dispatch.
type Kind string

const (
	// KindEndpointDiscovered reports a distinct (method, URL, param-shape).
	KindEndpointDiscovered Kind = "endpoint.discovered"

	// KindFetchCaptured reports one captured HTTP exchange with its body.
	KindFetchCaptured Kind = "fetch.captured"

	// KindEvidenceCaptured reports a supporting evidence fragment.
	KindEvidenceCaptured Kind = "evidence.captured"

	// KindFindingRaised reports a deduplicatable security issue.
	KindFindingRaised Kind = "finding.raised"

	// KindComponentFingerprinted reports a detected stack component.
	KindComponentFingerprinted Kind = "component.fingerprinted"

	// KindCVECandidateLinked reports a possible CVE match for a CPE.
	KindCVECandidateLinked Kind = "cve.candidate-linked"

	// KindRecordPack reports a replayable request/response bundle.
	KindRecordPack Kind = "record.pack"
)

// Event is one typed message emitted by a module during a run.
type Event interface {
	// Kind identifies the event type for merge dispatch.
	Kind() Kind

	// Meta returns the emitting module and owning scan.
	Meta() Base
}

// Base carries the fields common to every event: which module emitted it
// and which scan it belongs to.
type Base struct {
	Module string `json:"module"`
	ScanID string `json:"scan_id"`
}

// Meta returns b, satisfying the Event interface for embedders.
func (b Base) Meta() Base { return b }

// EndpointDiscovered is emitted when a module observes an endpoint.
// Identity key: (scan, method, url, params_hash).
type EndpointDiscovered struct {
	Base
	URL        string `json:"url"`
	Method     string `json:"method"`
	ParamsHash string `json:"params_hash"`
	Source     string `json:"source"`
}

// Kind implements Event.
func (EndpointDiscovered) Kind() Kind { return KindEndpointDiscovered }

// FetchCaptured is emitted per captured HTTP exchange. Body is the raw,
// unredacted body; the storage pipeline redacts and samples it before
// anything touches disk. StorageMode overrides the run's default when set.
type FetchCaptured struct {
	Base
	FetchID      string            `json:"fetch_id"`
	EndpointID   string            `json:"endpoint_id"`
	Request      map[string]any    `json:"request,omitempty"`
	ResponseMeta map[string]any    `json:"response_meta,omitempty"`
	Body         []byte            `json:"body,omitempty"`
	StorageMode  model.StorageMode `json:"storage_mode,omitempty"`
}

// Kind implements Event.
func (FetchCaptured) Kind() Kind { return KindFetchCaptured }

// EvidenceCaptured is emitted per evidence fragment. Evidence has no
// identity key; every capture becomes a new row.
type EvidenceCaptured struct {
	Base
	FetchID  string         `json:"fetch_id,omitempty"`
	EvKind   string         `json:"kind"`
	Snippet  string         `json:"snippet"`
	Location string         `json:"location"`
	Hash     string         `json:"hash"`
	Details  map[string]any `json:"details,omitempty"`
}

// Kind implements Event.
func (EvidenceCaptured) Kind() Kind { return KindEvidenceCaptured }

// FindingRaised is emitted when a module asserts a security issue.
// Identity key: DedupeKey.
type FindingRaised struct {
	Base
	DedupeKey   string           `json:"dedupe_key"`
	Type        string           `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Severity    model.Severity   `json:"severity"`
	Confidence  model.Confidence `json:"confidence"`
	Remediation string           `json:"remediation,omitempty"`
	References  []string         `json:"references,omitempty"`
	CWEID       string           `json:"cwe_id,omitempty"`
	CVEID       string           `json:"cve_id,omitempty"`
	EvidenceIDs []string         `json:"evidence_ids,omitempty"`
}

// Kind implements Event.
func (FindingRaised) Kind() Kind { return KindFindingRaised }

// ComponentFingerprinted is emitted when a module identifies a stack
// component on an endpoint. Identity key: (endpoint, name, version, cpe).
// Events without an endpoint are skipped at merge time.
type ComponentFingerprinted struct {
	Base
	EndpointID string           `json:"endpoint_id,omitempty"`
	Name       string           `json:"name"`
	Version    string           `json:"version,omitempty"`
	CPE        string           `json:"cpe,omitempty"`
	Confidence model.Confidence `json:"confidence"`
}

// Kind implements Event.
func (ComponentFingerprinted) Kind() Kind { return KindComponentFingerprinted }

// CVECandidateLinked is emitted when a module matches a CPE against a CVE
// source. Identity key: (cpe, cve_id, source).
type CVECandidateLinked struct {
	Base
	CPE               string           `json:"cpe"`
	CVEID             string           `json:"cve_id"`
	Source            string           `json:"source"`
	Confidence        model.Confidence `json:"confidence"`
	LinkedComponentID string           `json:"linked_component_id,omitempty"`
}

// Kind implements Event.
func (CVECandidateLinked) Kind() Kind { return KindCVECandidateLinked }

// RecordedExchange is one request/response pair inside a record pack.
type RecordedExchange struct {
	Request  map[string]any `json:"request"`
	Response map[string]any `json:"response,omitempty"`
}

// RecordPack is a replayable bundle of captured exchanges produced in
// record-only mode. The orchestrator audits it but keeps no separate row.
type RecordPack struct {
	Base
	Exchanges []RecordedExchange `json:"exchanges,omitempty"`
}

// Kind implements Event.
func (RecordPack) Kind() Kind { return KindRecordPack }
