package capability

import (
	"errors"
	"testing"
)

func TestEnsure_AllGranted(t *testing.T) {
	granted := NewSet(NetPassive, PIIRedact)

	if err := Ensure([]Capability{NetPassive}, granted); err != nil {
		t.Errorf("Ensure() = %v, want nil", err)
	}
}

func TestEnsure_Missing(t *testing.T) {
	granted := NewSet(NetPassive)

	err := Ensure([]Capability{NetIntrusive, NetActiveSafe}, granted)
	if err == nil {
		t.Fatal("expected error for missing capabilities")
	}

	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}

	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("err type = %T, want *MissingError", err)
	}

	// Missing tokens are sorted for deterministic messages.
	if len(missing.Missing) != 2 || missing.Missing[0] != NetActiveSafe || missing.Missing[1] != NetIntrusive {
		t.Errorf("Missing = %v, want [net.active-safe net.intrusive]", missing.Missing)
	}
}

func TestEnsure_EmptyRequired(t *testing.T) {
	if err := Ensure(nil, NewSet()); err != nil {
		t.Errorf("Ensure(nil) = %v, want nil", err)
	}
}

func TestBuiltinProfiles_Supersets(t *testing.T) {
	// Each built-in profile is a strict superset of the previous.
	if !Passive.Capabilities.IsSubsetOf(Active.Capabilities) {
		t.Error("passive capabilities should be a subset of active")
	}
	if !Active.Capabilities.IsSubsetOf(Intrusive.Capabilities) {
		t.Error("active capabilities should be a subset of intrusive")
	}
	if Active.Capabilities.IsSubsetOf(Passive.Capabilities) {
		t.Error("active should grant more than passive")
	}

	for _, p := range []Profile{Passive, Active, Intrusive} {
		if !p.Capabilities.Contains(PIIRedact) {
			t.Errorf("profile %s missing pii.redact", p.Name)
		}
	}
}

func TestBuiltinProfile_Lookup(t *testing.T) {
	p, ok := BuiltinProfile(ModeActive)
	if !ok || p.Name != "active" {
		t.Errorf("BuiltinProfile(active) = %v, %v", p.Name, ok)
	}

	if _, ok := BuiltinProfile(Mode("aggressive")); ok {
		t.Error("unknown mode should not resolve to a profile")
	}
}

func TestSet_Roundtrip(t *testing.T) {
	s := NewSet(PIIRedact, NetPassive)
	tokens := s.Sorted()

	if len(tokens) != 2 || tokens[0] != "net.passive" || tokens[1] != "pii.redact" {
		t.Errorf("Sorted() = %v", tokens)
	}

	back := SetFromStrings(tokens)
	if !back.Contains(NetPassive) || !back.Contains(PIIRedact) {
		t.Errorf("SetFromStrings lost tokens: %v", back)
	}
}

func TestCapability_IsValid(t *testing.T) {
	if !NetIntrusive.IsValid() {
		t.Error("net.intrusive should be valid")
	}
	if Capability("net.bogus").IsValid() {
		t.Error("net.bogus should not be valid")
	}
}
