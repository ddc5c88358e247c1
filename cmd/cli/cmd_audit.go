package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/scanforge/scanforge/pkg/model"
)

func runAuditCmd() {
	flags := flag.NewFlagSet("audit", flag.ExitOnError)
	file := flags.String("file", "", "Audit JSON export from a scan run (required)")
	action := flags.String("action", "", "Filter by action, e.g. module.run")
	actor := flags.String("actor", "", "Filter by actor")
	asJSON := flags.Bool("json", false, "Emit rows as JSON instead of text")
	flags.Parse(os.Args[2:])

	if *file == "" {
		fmt.Fprintln(os.Stderr, "audit: -file is required")
		flags.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fatal(fmt.Errorf("audit: read %s: %w", *file, err))
	}
	var rows []model.AuditEvent
	if err := json.Unmarshal(data, &rows); err != nil {
		fatal(fmt.Errorf("audit: parse %s: %w", *file, err))
	}

	var filtered []model.AuditEvent
	for _, row := range rows {
		if *action != "" && string(row.Action) != *action {
			continue
		}
		if *actor != "" && row.Actor != *actor {
			continue
		}
		filtered = append(filtered, row)
	}

	if *asJSON {
		if err := json.NewEncoder(os.Stdout).Encode(filtered); err != nil {
			fatal(err)
		}
		return
	}
	for _, row := range filtered {
		fmt.Printf("%s  %-20s actor=%s scan=%s\n", row.CreatedAt.Format("2006-01-02T15:04:05Z"), row.Action, row.Actor, row.ScanID)
	}
	fmt.Fprintf(os.Stderr, "%d row(s)\n", len(filtered))
}
