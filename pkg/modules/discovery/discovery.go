// Package discovery implements the lightweight crawler / API discovery
// module. It seeds the endpoint inventory from the target's base URL and
// a short list of well-known probe paths; deeper crawling belongs to
// richer discovery modules registered alongside it.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/event"
	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/module"
)

// Name is the registry name for this module.
const Name = "discovery"

// probes are the paths seeded for every target, after the base URL
// itself. All are safe unauthenticated GETs.
var probes = []string{
	"/robots.txt",
	"/sitemap.xml",
	"/.well-known/security.txt",
}

// searchParams is the parameter shape of the seeded search probe. The
// identity hash covers parameter names only, so any query value lands on
// the same endpoint row.
var searchParams = map[string][]string{"q": nil}

// Module discovers endpoints for a target.
type Module struct{}

// New returns the discovery module.
func New() *Module { return &Module{} }

func (m *Module) Name() string        { return Name }
func (m *Module) Description() string { return "Lightweight crawler/API discovery." }
func (m *Module) Version() string     { return "0.1.0" }

func (m *Module) RequiredCapabilities() []capability.Capability {
	return []capability.Capability{capability.NetPassive}
}

// Run emits one endpoint observation for the target's base URL, one per
// probe path, and one for the parameterized search probe. The base URL
// carries the "base" parameter shape so it stays distinct from
// parameterless probes; the search probe's shape is hashed from its
// parameter names.
func (m *Module) Run(ctx context.Context, scan *model.Scan, rc *module.RunContext) (<-chan event.Event, error) {
	target, err := rc.Store.GetTarget(ctx, scan.TargetID)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolve target: %w", err)
	}

	base := strings.TrimRight(target.BaseURL, "/")
	obs := []event.EndpointDiscovered{{
		Base:       event.Base{Module: Name, ScanID: scan.ID},
		URL:        target.BaseURL,
		Method:     "GET",
		ParamsHash: "base",
		Source:     Name,
	}}
	for _, p := range probes {
		obs = append(obs, event.EndpointDiscovered{
			Base:       event.Base{Module: Name, ScanID: scan.ID},
			URL:        base + p,
			Method:     "GET",
			ParamsHash: model.NoParamsHash,
			Source:     Name,
		})
	}
	obs = append(obs, event.EndpointDiscovered{
		Base:       event.Base{Module: Name, ScanID: scan.ID},
		URL:        base + "/search",
		Method:     "GET",
		ParamsHash: model.ParamsHash(searchParams),
		Source:     Name,
	})

	ch := make(chan event.Event)
	go func() {
		defer close(ch)
		for _, ev := range obs {
			if rc.Limiter != nil {
				if err := rc.Limiter.Wait(ctx); err != nil {
					return
				}
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
