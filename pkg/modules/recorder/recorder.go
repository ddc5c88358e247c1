// Package recorder packages the scan's endpoint inventory into a
// replayable record pack for human testers. It is the record-only flow:
// requests are described, never fired.
package recorder

import (
	"context"
	"fmt"

	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/event"
	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/module"
)

// Name is the registry name for this module.
const Name = "recorder"

// Module packages scan traffic for manual testing.
type Module struct{}

// New returns the recorder module.
func New() *Module { return &Module{} }

func (m *Module) Name() string        { return Name }
func (m *Module) Description() string { return "Packages scan requests for human testers." }
func (m *Module) Version() string     { return "0.1.0" }

func (m *Module) RequiredCapabilities() []capability.Capability {
	return []capability.Capability{capability.NetPassive, capability.RecordOnly}
}

// Run emits a single record pack describing one exchange per known
// endpoint. The pack surfaces in the audit trail; no entity rows come
// out of it.
func (m *Module) Run(ctx context.Context, scan *model.Scan, rc *module.RunContext) (<-chan event.Event, error) {
	endpoints, err := rc.Store.ListEndpoints(ctx, scan.ID)
	if err != nil {
		return nil, fmt.Errorf("recorder: list endpoints: %w", err)
	}

	exchanges := make([]event.RecordedExchange, 0, len(endpoints))
	for _, ep := range endpoints {
		exchanges = append(exchanges, event.RecordedExchange{
			Request: map[string]any{
				"method":      ep.Method,
				"url":         ep.URL,
				"params_hash": ep.ParamsHash,
			},
		})
	}

	ch := make(chan event.Event)
	go func() {
		defer close(ch)
		ev := event.RecordPack{
			Base:      event.Base{Module: Name, ScanID: scan.ID},
			Exchanges: exchanges,
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}()
	return ch, nil
}
