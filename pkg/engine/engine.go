// Package engine owns the scan lifecycle: it creates scans, runs modules
// concurrently under capability gating, consolidates their event streams
// into persistent entities, and audits everything that happens.
//
// The engine is the only writer of scan status, of the merged entities
// (endpoints, findings, components, candidates), and of the audit rows
// produced from module activity. Modules emit events; nothing else.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/scanforge/scanforge/pkg/audit"
	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/config"
	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/module"
	"github.com/scanforge/scanforge/pkg/retry"
	"github.com/scanforge/scanforge/pkg/storage"
	"github.com/scanforge/scanforge/pkg/store"
)

// ErrUnknownModule indicates a requested module name is not registered.
var ErrUnknownModule = errors.New("engine: unknown module")

// Options wires the engine's collaborators.
type Options struct {
	Store    store.Store
	Registry *module.Registry
	Storage  storage.Backend
	Settings config.Settings

	// Logger falls back to slog.Default() when nil.
	Logger *slog.Logger

	// Metrics may be nil to disable collection.
	Metrics *Metrics

	// RetryConfig overrides the conflict-retry policy. Zero value uses
	// retry.DefaultConfig().
	RetryConfig retry.Config
}

// Engine builds and executes scan plans against registered modules.
type Engine struct {
	store       store.Store
	registry    *module.Registry
	storage     storage.Backend
	settings    config.Settings
	logger      *slog.Logger
	recorder    *audit.Recorder
	metrics     *Metrics
	retryCfg    retry.Config
	modTimeout  time.Duration
	limiter     *rate.Limiter
}

// New creates an engine from the given options.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil || opts.Registry == nil || opts.Storage == nil {
		return nil, errors.New("engine: store, registry and storage are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retryCfg := opts.RetryConfig
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}
	timeout, err := opts.Settings.ModuleTimeoutValue()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	limit := rate.Inf
	if opts.Settings.RateLimit > 0 {
		limit = rate.Limit(opts.Settings.RateLimit)
	}
	return &Engine{
		store:      opts.Store,
		registry:   opts.Registry,
		storage:    opts.Storage,
		settings:   opts.Settings,
		logger:     logger,
		recorder:   audit.NewRecorder(opts.Store, logger),
		metrics:    opts.Metrics,
		retryCfg:   retryCfg,
		modTimeout: timeout,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// CreateScan binds a new scan to a target, snapshotting the profile's
// capability set so later profile edits cannot change the scan's grants.
// The scan starts queued and exactly one scan.started audit row is
// written.
func (e *Engine) CreateScan(ctx context.Context, targetID string, profile capability.Profile, baselineScanID string) (*model.Scan, error) {
	target, err := e.store.GetTarget(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("engine: target %s: %w", targetID, err)
	}
	if baselineScanID != "" {
		if _, err := e.store.GetScan(ctx, baselineScanID); err != nil {
			return nil, fmt.Errorf("engine: baseline scan %s: %w", baselineScanID, err)
		}
	}

	scan, err := e.store.PutScan(ctx, model.Scan{
		TargetID:            target.ID,
		Mode:                string(profile.Mode),
		ProfileName:         profile.Name,
		ProfileCapabilities: profile.Capabilities.Sorted(),
		Status:              model.ScanQueued,
		BaselineScanID:      baselineScanID,
	})
	if err != nil {
		return nil, err
	}

	if _, err := e.recorder.Record(ctx, "system", model.AuditScanStarted, scan.ID, map[string]any{
		"target_id": target.ID,
		"profile":   profile.Name,
	}); err != nil {
		return nil, err
	}
	return scan, nil
}

// RunScan executes the requested modules against the scan. Modules run
// concurrently; each module's events are drained and persisted in
// emission order. Any module failure fails the whole scan; siblings
// already in flight are awaited, not cancelled. An empty module list
// means every registered module.
func (e *Engine) RunScan(ctx context.Context, scan *model.Scan, moduleNames []string) error {
	if len(moduleNames) == 0 {
		moduleNames = e.registry.Names()
	}

	// Resolve and capability-check every module before launching any, so
	// a denial never lets a sibling start emitting first.
	granted := capability.SetFromStrings(scan.ProfileCapabilities)
	mods := make([]module.Module, 0, len(moduleNames))
	for _, name := range moduleNames {
		m := e.registry.Get(name)
		if m == nil {
			return fmt.Errorf("%w: %q", ErrUnknownModule, name)
		}
		mods = append(mods, m)
	}

	if _, err := e.store.UpdateScanStatus(ctx, scan.ID, model.ScanRunning, model.Now()); err != nil {
		return err
	}

	for _, m := range mods {
		if err := capability.Ensure(m.RequiredCapabilities(), granted); err != nil {
			e.metrics.capabilityDenied()
			if _, rerr := e.recorder.Record(ctx, m.Name(), model.AuditModuleRun, scan.ID, map[string]any{
				"denied": true,
				"error":  err.Error(),
			}); rerr != nil {
				e.logger.ErrorContext(ctx, "audit append failed", "scan_id", scan.ID, "module", m.Name(), "error", rerr)
			}
			return e.finish(ctx, scan, fmt.Errorf("engine: module %s: %w", m.Name(), err))
		}
	}

	rc := &module.RunContext{
		Settings:           e.settings,
		Store:              e.store,
		Storage:            e.storage,
		StorageModeDefault: e.settings.StorageModeDefault,
		Limiter:            e.limiter,
		Logger:             e.logger,
	}

	var g errgroup.Group
	for _, m := range mods {
		g.Go(func() error {
			if err := e.runModule(ctx, m, scan, rc); err != nil {
				return fmt.Errorf("engine: module %s: %w", m.Name(), err)
			}
			return nil
		})
	}
	return e.finish(ctx, scan, g.Wait())
}

// finish drives the scan to its terminal status, audits the outcome and
// returns runErr unchanged.
func (e *Engine) finish(ctx context.Context, scan *model.Scan, runErr error) error {
	status := model.ScanCompleted
	params := map[string]any{"status": string(model.ScanCompleted)}
	if runErr != nil {
		status = model.ScanFailed
		params = map[string]any{"status": string(model.ScanFailed), "error": runErr.Error()}
	}

	if _, err := e.store.UpdateScanStatus(ctx, scan.ID, status, model.Now()); err != nil {
		e.logger.ErrorContext(ctx, "scan status transition failed", "scan_id", scan.ID, "status", string(status), "error", err)
		if runErr == nil {
			return err
		}
	}
	e.metrics.scanFinished(string(status))
	if _, err := e.recorder.Record(ctx, "system", model.AuditScanCompleted, scan.ID, params); err != nil {
		e.logger.ErrorContext(ctx, "audit append failed", "scan_id", scan.ID, "action", string(model.AuditScanCompleted), "error", err)
	}
	return runErr
}

// runModule starts one module and drains its event stream, persisting
// each event in emission order. The module's run is bounded by the
// configured per-module timeout.
func (e *Engine) runModule(ctx context.Context, m module.Module, scan *model.Scan, rc *module.RunContext) error {
	if e.modTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.modTimeout)
		defer cancel()
	}

	events, err := m.Run(ctx, scan, rc)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := e.persistEvent(ctx, ev); err != nil {
				return err
			}
		}
	}
}
