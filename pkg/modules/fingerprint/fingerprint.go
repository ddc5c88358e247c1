// Package fingerprint detects stack components behind discovered
// endpoints. It reads the endpoint inventory merged earlier in the same
// scan, so it is ordered after discovery in the default module set.
package fingerprint

import (
	"context"
	"fmt"

	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/event"
	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/module"
)

// Name is the registry name for this module.
const Name = "fingerprint"

// Module fingerprints stack components from responses.
type Module struct{}

// New returns the fingerprint module.
func New() *Module { return &Module{} }

func (m *Module) Name() string        { return Name }
func (m *Module) Description() string { return "Detects stack components from responses." }
func (m *Module) Version() string     { return "0.1.0" }

func (m *Module) RequiredCapabilities() []capability.Capability {
	return []capability.Capability{capability.NetPassive}
}

// Run emits one low-confidence generic service component per endpoint
// already known for the scan. Endpoints merged after this module ran are
// picked up by the next run.
func (m *Module) Run(ctx context.Context, scan *model.Scan, rc *module.RunContext) (<-chan event.Event, error) {
	endpoints, err := rc.Store.ListEndpoints(ctx, scan.ID)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: list endpoints: %w", err)
	}

	ch := make(chan event.Event)
	go func() {
		defer close(ch)
		for _, ep := range endpoints {
			ev := event.ComponentFingerprinted{
				Base:       event.Base{Module: Name, ScanID: scan.ID},
				EndpointID: ep.ID,
				Name:       "http.service",
				Confidence: model.ConfidenceLow,
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
