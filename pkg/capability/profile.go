package capability

// Mode is the high-level aggressiveness label of a scan profile.
type Mode string

const (
	// ModePassive observes only; no state-changing traffic.
	ModePassive Mode = "passive"

	// ModeActive sends safe, non-destructive requests.
	ModeActive Mode = "active"

	// ModeIntrusive may send requests that change target state.
	ModeIntrusive Mode = "intrusive"
)

// IsValid reports whether m is a recognized mode label.
func (m Mode) IsValid() bool {
	switch m {
	case ModePassive, ModeActive, ModeIntrusive:
		return true
	}
	return false
}

// Profile is a named capability bundle with a mode label. A scan snapshots
// the profile's capabilities at creation, so later edits to a profile never
// change a running scan's grants.
type Profile struct {
	Name         string `json:"name"`
	Mode         Mode   `json:"mode"`
	Capabilities Set    `json:"capabilities"`
}

// Built-in profiles. Each is a strict superset of the previous in network
// aggressiveness; all include redaction.
var (
	// Passive grants passive observation with sampled, redacted storage.
	Passive = Profile{
		Name: "passive",
		Mode: ModePassive,
		Capabilities: NewSet(
			NetPassive,
			PIIStoreSampled,
			PIIRedact,
		),
	}

	// Active adds safe active probing and record-only capture.
	Active = Profile{
		Name: "active",
		Mode: ModeActive,
		Capabilities: NewSet(
			NetPassive,
			NetActiveSafe,
			RecordOnly,
			PIIStoreSampled,
			PIIRedact,
		),
	}

	// Intrusive adds state-changing network access.
	Intrusive = Profile{
		Name: "intrusive",
		Mode: ModeIntrusive,
		Capabilities: NewSet(
			NetPassive,
			NetActiveSafe,
			NetIntrusive,
			RecordOnly,
			PIIStoreSampled,
			PIIRedact,
		),
	}
)

// BuiltinProfile returns the built-in profile for the given mode label,
// or false when the mode is unknown.
func BuiltinProfile(mode Mode) (Profile, bool) {
	switch mode {
	case ModePassive:
		return Passive, true
	case ModeActive:
		return Active, true
	case ModeIntrusive:
		return Intrusive, true
	}
	return Profile{}, false
}
