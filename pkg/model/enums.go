package model

// StorageMode governs whether and how much of a captured body is persisted
// after redaction.
type StorageMode string

const (
	// StorageNone stores nothing; the fetch never gets a body path.
	StorageNone StorageMode = "none"

	// StorageSampled stores a redacted body truncated to the sample cap.
	StorageSampled StorageMode = "sampled"

	// StorageFull stores the redacted body without truncation.
	StorageFull StorageMode = "full"
)

// IsValid reports whether m is a recognized storage mode.
func (m StorageMode) IsValid() bool {
	switch m {
	case StorageNone, StorageSampled, StorageFull:
		return true
	}
	return false
}

// FindingStatus is the lifecycle status of a finding.
type FindingStatus string

const (
	// FindingOpen is a live, unresolved finding.
	FindingOpen FindingStatus = "open"

	// FindingFixed is a finding no longer observed.
	FindingFixed FindingStatus = "fixed"

	// FindingSoftDeleted is a finding hidden by an operator.
	FindingSoftDeleted FindingStatus = "soft_deleted"
)

// Confidence is the assessed certainty of a finding, fingerprint, or CVE
// match.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// IsValid reports whether c is a recognized confidence level.
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// Score returns a numeric score for sorting and comparison.
// High=3, Medium=2, Low=1, Unknown=0.
func (c Confidence) Score() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// ScanStatus is the lifecycle status of a scan. The legal sequence is
// pending → queued → running → {completed | failed}; it never regresses.
type ScanStatus string

const (
	ScanPending   ScanStatus = "pending"
	ScanQueued    ScanStatus = "queued"
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// Terminal reports whether s is a final state.
func (s ScanStatus) Terminal() bool {
	return s == ScanCompleted || s == ScanFailed
}

// rank orders statuses along the lifecycle; both terminal states share the
// last rank.
func (s ScanStatus) rank() int {
	switch s {
	case ScanPending:
		return 0
	case ScanQueued:
		return 1
	case ScanRunning:
		return 2
	case ScanCompleted, ScanFailed:
		return 3
	}
	return -1
}

// CanTransition reports whether moving from s to next respects the
// monotone lifecycle. Terminal states accept no further transitions.
func (s ScanStatus) CanTransition(next ScanStatus) bool {
	if s.rank() < 0 || next.rank() < 0 {
		return false
	}
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// AuditAction enumerates the state-changing operations recorded in the
// audit trail.
type AuditAction string

const (
	AuditScanStarted      AuditAction = "scan.started"
	AuditScanCompleted    AuditAction = "scan.completed"
	AuditModuleRun        AuditAction = "module.run"
	AuditExport           AuditAction = "export.generated"
	AuditExceptionCreated AuditAction = "exception.created"
	AuditExceptionExpired AuditAction = "exception.expired"
	AuditRecheck          AuditAction = "recheck.triggered"
)
