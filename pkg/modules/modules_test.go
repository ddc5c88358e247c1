package modules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/config"
	"github.com/scanforge/scanforge/pkg/event"
	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/module"
	"github.com/scanforge/scanforge/pkg/store"
)

func newRunContext(t *testing.T) (*module.RunContext, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return &module.RunContext{
		Settings: config.Default(),
		Store:    mem,
	}, mem
}

func drain(t *testing.T, ch <-chan event.Event) []event.Event {
	t.Helper()
	var out []event.Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func seedScan(t *testing.T, mem *store.Memory) *model.Scan {
	t.Helper()
	ctx := context.Background()

	target, err := mem.PutTarget(ctx, model.Target{BaseURL: "https://app.example", Environment: "stage"})
	require.NoError(t, err)

	scan, err := mem.PutScan(ctx, model.Scan{
		TargetID:            target.ID,
		ProfileName:         capability.Passive.Name,
		ProfileCapabilities: capability.Passive.Capabilities.Sorted(),
		Status:              model.ScanQueued,
	})
	require.NoError(t, err)
	return scan
}

func TestRegisterOrder(t *testing.T) {
	reg := module.NewRegistry()
	require.NoError(t, Register(reg))
	require.Equal(t, []string{"discovery", "passive_checks", "fingerprint", "cve_correlator", "recorder"}, reg.Names())
}

func TestDiscoveryEmitsBaseAndProbes(t *testing.T) {
	rc, mem := newRunContext(t)
	scan := seedScan(t, mem)

	reg := module.NewRegistry()
	require.NoError(t, Register(reg))
	disc := reg.Get("discovery")
	require.NotNil(t, disc)

	ch, err := disc.Run(context.Background(), scan, rc)
	require.NoError(t, err)
	events := drain(t, ch)
	require.Len(t, events, 5)

	first, ok := events[0].(event.EndpointDiscovered)
	require.True(t, ok)
	require.Equal(t, "https://app.example", first.URL)
	require.Equal(t, "base", first.ParamsHash)

	urls := make(map[string]bool)
	for _, ev := range events[1 : len(events)-1] {
		ep, ok := ev.(event.EndpointDiscovered)
		require.True(t, ok)
		require.Equal(t, model.NoParamsHash, ep.ParamsHash)
		require.Equal(t, "GET", ep.Method)
		urls[ep.URL] = true
	}
	require.True(t, urls["https://app.example/robots.txt"])

	// The search probe carries a real parameter-shape hash: names only,
	// so any value for q maps to the same endpoint identity.
	search, ok := events[len(events)-1].(event.EndpointDiscovered)
	require.True(t, ok)
	require.Equal(t, "https://app.example/search", search.URL)
	require.Equal(t, model.ParamsHash(map[string][]string{"q": {"anything"}}), search.ParamsHash)
	require.NotEqual(t, model.NoParamsHash, search.ParamsHash)
}

func TestDiscoveryUnknownTarget(t *testing.T) {
	rc, _ := newRunContext(t)

	reg := module.NewRegistry()
	require.NoError(t, Register(reg))
	disc := reg.Get("discovery")

	scan := &model.Scan{TargetID: "no-such-target"}
	_, err := disc.Run(context.Background(), scan, rc)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPassiveEmitsEvidenceThenFinding(t *testing.T) {
	rc, mem := newRunContext(t)
	scan := seedScan(t, mem)

	reg := module.NewRegistry()
	require.NoError(t, Register(reg))
	mod := reg.Get("passive_checks")

	ch, err := mod.Run(context.Background(), scan, rc)
	require.NoError(t, err)
	events := drain(t, ch)
	require.Len(t, events, 2)

	ev, ok := events[0].(event.EvidenceCaptured)
	require.True(t, ok)
	require.Equal(t, "note", ev.EvKind)

	fnd, ok := events[1].(event.FindingRaised)
	require.True(t, ok)
	require.Equal(t, model.SeverityInfo, fnd.Severity)
	require.Contains(t, fnd.DedupeKey, scan.TargetID, "dedupe key is per target, not per scan")
	require.Equal(t, ev.Hash, fnd.DedupeKey)
}

func TestFingerprintFollowsInventory(t *testing.T) {
	rc, mem := newRunContext(t)
	scan := seedScan(t, mem)
	ctx := context.Background()

	reg := module.NewRegistry()
	require.NoError(t, Register(reg))
	mod := reg.Get("fingerprint")

	// Empty inventory: nothing to fingerprint.
	ch, err := mod.Run(ctx, scan, rc)
	require.NoError(t, err)
	require.Empty(t, drain(t, ch))

	_, err = mem.UpsertEndpoint(ctx, model.Endpoint{
		ScanID:     scan.ID,
		Method:     "GET",
		URL:        "https://app.example/",
		ParamsHash: model.NoParamsHash,
		Source:     "discovery",
	}, model.Now())
	require.NoError(t, err)

	ch, err = mod.Run(ctx, scan, rc)
	require.NoError(t, err)
	events := drain(t, ch)
	require.Len(t, events, 1)

	comp, ok := events[0].(event.ComponentFingerprinted)
	require.True(t, ok)
	require.Equal(t, "http.service", comp.Name)
	require.NotEmpty(t, comp.EndpointID)
}

func TestCVECorrelatorMatchesComponents(t *testing.T) {
	rc, mem := newRunContext(t)
	scan := seedScan(t, mem)
	ctx := context.Background()

	reg := module.NewRegistry()
	require.NoError(t, Register(reg))
	mod := reg.Get("cve_correlator")

	ch, err := mod.Run(ctx, scan, rc)
	require.NoError(t, err)
	require.Empty(t, drain(t, ch), "no components, no candidates")

	ep, err := mem.UpsertEndpoint(ctx, model.Endpoint{
		ScanID:     scan.ID,
		Method:     "GET",
		URL:        "https://app.example/",
		ParamsHash: model.NoParamsHash,
	}, model.Now())
	require.NoError(t, err)
	comp, err := mem.UpsertTechComponent(ctx, model.TechComponent{
		EndpointID: ep.ID,
		Name:       "http.service",
		Confidence: model.ConfidenceLow,
	})
	require.NoError(t, err)
	require.NotNil(t, comp)

	ch, err = mod.Run(ctx, scan, rc)
	require.NoError(t, err)
	events := drain(t, ch)
	require.Len(t, events, 1)

	cand, ok := events[0].(event.CVECandidateLinked)
	require.True(t, ok)
	require.Equal(t, comp.ID, cand.LinkedComponentID)
	require.NotEmpty(t, cand.CPE)
	require.NotEmpty(t, cand.CVEID)
}

func TestRecorderPacksInventory(t *testing.T) {
	rc, mem := newRunContext(t)
	scan := seedScan(t, mem)
	ctx := context.Background()

	for _, url := range []string{"https://app.example/", "https://app.example/api"} {
		_, err := mem.UpsertEndpoint(ctx, model.Endpoint{
			ScanID:     scan.ID,
			Method:     "GET",
			URL:        url,
			ParamsHash: model.NoParamsHash,
		}, model.Now())
		require.NoError(t, err)
	}

	reg := module.NewRegistry()
	require.NoError(t, Register(reg))
	mod := reg.Get("recorder")
	require.Contains(t, mod.RequiredCapabilities(), capability.RecordOnly)

	ch, err := mod.Run(ctx, scan, rc)
	require.NoError(t, err)
	events := drain(t, ch)
	require.Len(t, events, 1)

	pack, ok := events[0].(event.RecordPack)
	require.True(t, ok)
	require.Len(t, pack.Exchanges, 2)
	require.Equal(t, "GET", pack.Exchanges[0].Request["method"])
}
