// Package capability defines the permission tokens that gate what a scan
// module may do, and the named profiles that bundle them.
//
// A scan freezes the capability set of its profile at creation time; a
// module is only invoked when its declared requirements are a subset of
// that frozen set. The subset check is the single enforcement point; no
// module produces an event without passing it first.
package capability

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Capability is an opaque permission token.
// All values are lowercase dotted strings so they serialize cleanly into
// scan records and audit payloads.
type Capability string

const (
	// NetPassive allows passive observation of network traffic only.
	NetPassive Capability = "net.passive"

	// NetActiveSafe allows active requests that cannot change target state.
	NetActiveSafe Capability = "net.active-safe"

	// NetIntrusive allows requests that may change or degrade the target.
	NetIntrusive Capability = "net.intrusive"

	// ProxyControl allows driving an interception proxy.
	ProxyControl Capability = "proxy.control"

	// RecordOnly restricts active modules to capturing replay bundles.
	RecordOnly Capability = "record-only"

	// PIIRead allows reading response bodies that may contain PII.
	PIIRead Capability = "pii.read"

	// PIIStoreFull allows storing full, untruncated bodies.
	PIIStoreFull Capability = "pii.store-full"

	// PIIStoreSampled allows storing truncated body samples.
	PIIStoreSampled Capability = "pii.store-sampled"

	// PIIRedact requires the redaction pass before any body is stored.
	PIIRedact Capability = "pii.redact"

	// Recheck allows re-verifying a previously raised finding.
	Recheck Capability = "recheck"

	// ExceptionManage allows creating and expiring risk-acceptance records.
	ExceptionManage Capability = "exception.manage"
)

// All lists every recognized capability token. Registration-time
// validation of module requirements checks against this set.
var All = []Capability{
	NetPassive,
	NetActiveSafe,
	NetIntrusive,
	ProxyControl,
	RecordOnly,
	PIIRead,
	PIIStoreFull,
	PIIStoreSampled,
	PIIRedact,
	Recheck,
	ExceptionManage,
}

// IsValid reports whether c is a recognized capability token.
func (c Capability) IsValid() bool {
	for _, known := range All {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the capability as a string.
func (c Capability) String() string { return string(c) }

// Set is an unordered collection of capability tokens.
type Set map[Capability]struct{}

// NewSet builds a Set from the given tokens.
func NewSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// SetFromStrings builds a Set from raw string tokens, e.g. the frozen
// capability list stored on a scan record.
func SetFromStrings(tokens []string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s[Capability(t)] = struct{}{}
	}
	return s
}

// Contains reports whether c is in the set.
func (s Set) Contains(c Capability) bool {
	_, ok := s[c]
	return ok
}

// IsSubsetOf reports whether every token in s is also in other.
func (s Set) IsSubsetOf(other Set) bool {
	for c := range s {
		if !other.Contains(c) {
			return false
		}
	}
	return true
}

// Sorted returns the set's tokens as a sorted string slice, suitable for
// snapshotting onto a scan record.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// ErrPermissionDenied is the sentinel for capability violations.
// Callers should use errors.Is() to check for it.
var ErrPermissionDenied = errors.New("capability: permission denied")

// MissingError reports the capability tokens a module requires but the
// scan's frozen grant set does not contain. It wraps ErrPermissionDenied.
type MissingError struct {
	Missing []Capability
}

func (e *MissingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		names[i] = string(c)
	}
	return fmt.Sprintf("capability: permission denied, missing: %s", strings.Join(names, ", "))
}

// Unwrap makes errors.Is(err, ErrPermissionDenied) succeed.
func (e *MissingError) Unwrap() error { return ErrPermissionDenied }

// Ensure computes required − granted. It returns nil when every required
// token is granted, and a *MissingError (sorted, deterministic) otherwise.
// The orchestrator runs this once per module per scan, before the module
// is allowed to produce any event.
func Ensure(required []Capability, granted Set) error {
	var missing []Capability
	for _, c := range required {
		if !granted.Contains(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return &MissingError{Missing: missing}
}
