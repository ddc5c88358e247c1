package module

import (
	"context"
	"testing"

	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/event"
	"github.com/scanforge/scanforge/pkg/model"
)

type fakeModule struct {
	name string
	caps []capability.Capability
}

func (f *fakeModule) Name() string        { return f.name }
func (f *fakeModule) Description() string { return "fake" }
func (f *fakeModule) Version() string     { return "0.0.1" }
func (f *fakeModule) RequiredCapabilities() []capability.Capability {
	return f.caps
}
func (f *fakeModule) Run(ctx context.Context, scan *model.Scan, rc *RunContext) (<-chan event.Event, error) {
	ch := make(chan event.Event)
	close(ch)
	return ch, nil
}

func TestRegistry_RegisterAndOrder(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"discovery", "passive_checks", "fingerprint"} {
		if err := r.Register(&fakeModule{name: name, caps: []capability.Capability{capability.NetPassive}}); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	names := r.Names()
	if len(names) != 3 || names[0] != "discovery" || names[2] != "fingerprint" {
		t.Errorf("Names() = %v, want registration order", names)
	}
	if r.Count() != 3 {
		t.Errorf("Count() = %d", r.Count())
	}
	if !r.Has("passive_checks") || r.Has("nope") {
		t.Error("Has() mismatch")
	}
	if r.Get("discovery") == nil {
		t.Error("Get(discovery) returned nil")
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	m := &fakeModule{name: "discovery"}
	if err := r.Register(m); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(m); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestRegistry_RejectsUnknownCapability(t *testing.T) {
	r := NewRegistry()

	err := r.Register(&fakeModule{name: "rogue", caps: []capability.Capability{"net.quantum"}})
	if err == nil {
		t.Error("unknown capability declaration should fail registration")
	}
}

func TestRegistry_FilterByCapabilities(t *testing.T) {
	r := NewRegistry()

	mustRegister(t, r, &fakeModule{name: "passive", caps: []capability.Capability{capability.NetPassive}})
	mustRegister(t, r, &fakeModule{name: "active", caps: []capability.Capability{capability.NetActiveSafe}})
	mustRegister(t, r, &fakeModule{name: "intrusive", caps: []capability.Capability{capability.NetIntrusive}})

	got := r.FilterByCapabilities(capability.Active.Capabilities)
	if len(got) != 2 || got[0] != "passive" || got[1] != "active" {
		t.Errorf("FilterByCapabilities(active) = %v", got)
	}

	if got := r.FilterByCapabilities(capability.NewSet()); len(got) != 0 {
		t.Errorf("empty grant set should filter everything, got %v", got)
	}
}

func mustRegister(t *testing.T, r *Registry, m Module) {
	t.Helper()
	if err := r.Register(m); err != nil {
		t.Fatal(err)
	}
}
