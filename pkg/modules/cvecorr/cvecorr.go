// Package cvecorr maps fingerprinted tech components to CVE candidates
// via a static correlation table. Candidates are leads for a human or a
// recheck run, never findings by themselves.
package cvecorr

import (
	"context"
	"fmt"

	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/event"
	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/module"
)

// Name is the registry name for this module.
const Name = "cve_correlator"

// entry is one static correlation: component name to a candidate CVE.
type entry struct {
	cpe   string
	cveID string
}

// table maps component names to candidate CVEs. A richer implementation
// would consult an advisory feed keyed by CPE and version range.
var table = map[string]entry{
	"http.service": {
		cpe:   "cpe:/a:example:http_service:0.0.0",
		cveID: "CVE-0000-0000",
	},
}

// Module correlates tech components with CVE candidates.
type Module struct{}

// New returns the CVE correlator module.
func New() *Module { return &Module{} }

func (m *Module) Name() string        { return Name }
func (m *Module) Description() string { return "Maps tech components to CVE candidates." }
func (m *Module) Version() string     { return "0.1.0" }

func (m *Module) RequiredCapabilities() []capability.Capability {
	return []capability.Capability{capability.NetPassive}
}

// Run reads the fingerprinted components and emits one candidate per
// table hit, linked back to the component it matched. Repeated runs
// collapse on the (cpe, cve, source) identity key.
func (m *Module) Run(ctx context.Context, scan *model.Scan, rc *module.RunContext) (<-chan event.Event, error) {
	components, err := rc.Store.ListTechComponents(ctx)
	if err != nil {
		return nil, fmt.Errorf("cvecorr: list components: %w", err)
	}

	ch := make(chan event.Event)
	go func() {
		defer close(ch)
		for _, c := range components {
			hit, ok := table[c.Name]
			if !ok {
				continue
			}
			ev := event.CVECandidateLinked{
				Base:              event.Base{Module: Name, ScanID: scan.ID},
				CPE:               hit.cpe,
				CVEID:             hit.cveID,
				Source:            "static-table",
				Confidence:        model.ConfidenceLow,
				LinkedComponentID: c.ID,
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
