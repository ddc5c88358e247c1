package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/config"
	"github.com/scanforge/scanforge/pkg/engine"
	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/module"
	"github.com/scanforge/scanforge/pkg/modules"
	"github.com/scanforge/scanforge/pkg/storage"
	"github.com/scanforge/scanforge/pkg/store"
)

// scanExport is what a run leaves on disk for the diff and audit
// commands to consume.
type scanExport struct {
	Scan     *model.Scan        `json:"scan"`
	Findings []model.Finding    `json:"findings"`
	Audit    []model.AuditEvent `json:"audit"`
}

func runScanCmd() {
	flags := flag.NewFlagSet("scan", flag.ExitOnError)
	targetURL := flags.String("u", "", "Target base URL (required)")
	env := flags.String("env", "staging", "Target environment label")
	mode := flags.String("mode", "passive", "Capability profile: passive, active or intrusive")
	moduleList := flags.String("modules", "", "Comma-separated module names (default: all granted)")
	baselineID := flags.String("baseline", "", "Baseline scan ID for later diffing")
	configPath := flags.String("config", "", "Settings YAML file")
	outDir := flags.String("o", "", "Export directory (default: the artifact base)")
	verbose := flags.Bool("verbose", false, "Debug logging")
	flags.Parse(os.Args[2:])

	if *targetURL == "" {
		fmt.Fprintln(os.Stderr, "scan: -u is required")
		flags.Usage()
		os.Exit(2)
	}

	settings := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		settings = loaded
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	profile, ok := capability.BuiltinProfile(capability.Mode(*mode))
	if !ok {
		fatal(fmt.Errorf("scan: unknown mode %q", *mode))
	}

	backend, err := storage.Open(settings.ArtifactBase)
	if err != nil {
		fatal(err)
	}

	reg := module.NewRegistry()
	if err := modules.Register(reg); err != nil {
		fatal(err)
	}

	var metrics *engine.Metrics
	if settings.MetricsEnabled {
		metrics, err = engine.NewMetrics()
		if err != nil {
			fatal(err)
		}
	}

	st := store.NewMemory()
	eng, err := engine.New(engine.Options{
		Store:    st,
		Registry: reg,
		Storage:  backend,
		Settings: settings,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target, err := st.PutTarget(ctx, model.Target{BaseURL: *targetURL, Environment: *env})
	if err != nil {
		fatal(err)
	}

	scan, err := eng.CreateScan(ctx, target.ID, profile, *baselineID)
	if err != nil {
		fatal(err)
	}
	logger.Info("scan created", "scan_id", scan.ID, "profile", profile.Name)

	var names []string
	if *moduleList != "" {
		names = strings.Split(*moduleList, ",")
	} else {
		// Default to every module the profile's grant set allows, so a
		// passive run doesn't trip over record-only modules.
		names = reg.FilterByCapabilities(capability.SetFromStrings(scan.ProfileCapabilities))
	}

	runErr := eng.RunScan(ctx, scan, names)

	final, err := st.GetScan(ctx, scan.ID)
	if err != nil {
		fatal(err)
	}
	findings, err := st.ListFindings(ctx)
	if err != nil {
		fatal(err)
	}
	auditRows, err := st.ListAudit(ctx, scan.ID)
	if err != nil {
		fatal(err)
	}

	export := scanExport{Scan: final, Findings: findings, Audit: auditRows}
	dir := *outDir
	if dir == "" {
		dir = localExportDir(settings.ArtifactBase, scan.ID)
	}
	if err := writeExport(dir, export); err != nil {
		fatal(err)
	}

	if err := json.NewEncoder(os.Stdout).Encode(export); err != nil {
		fatal(err)
	}

	if runErr != nil {
		logger.Error("scan failed", "scan_id", scan.ID, "error", runErr)
		if errors.Is(runErr, capability.ErrPermissionDenied) {
			os.Exit(3)
		}
		os.Exit(1)
	}
	logger.Info("scan completed", "scan_id", scan.ID, "findings", len(findings))
}

// localExportDir resolves the artifact base URI to a per-scan export
// directory. Non-local bases fall back to the working directory.
func localExportDir(base, scanID string) string {
	backend, err := storage.Open(base)
	if err == nil {
		if local, ok := backend.(*storage.Local); ok {
			return filepath.Join(local.BasePath, scanID)
		}
	}
	return scanID
}

func writeExport(dir string, export scanExport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("scan: create export dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, "findings.json"), export.Findings); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "audit.json"), export.Audit); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "scan.json"), export.Scan)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("scan: marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("scan: write %s: %w", path, err)
	}
	return nil
}
