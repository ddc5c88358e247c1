package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/scanforge/scanforge/pkg/baseline"
	"github.com/scanforge/scanforge/pkg/model"
)

func runDiffCmd() {
	flags := flag.NewFlagSet("diff", flag.ExitOnError)
	currentPath := flags.String("current", "", "Findings JSON of the current run (required)")
	previousPath := flags.String("previous", "", "Findings JSON of the baseline run (required)")
	flags.Parse(os.Args[2:])

	if *currentPath == "" || *previousPath == "" {
		fmt.Fprintln(os.Stderr, "diff: -current and -previous are required")
		flags.Usage()
		os.Exit(2)
	}

	current, err := readFindings(*currentPath)
	if err != nil {
		fatal(err)
	}
	previous, err := readFindings(*previousPath)
	if err != nil {
		fatal(err)
	}

	result := baseline.Diff(current, previous)
	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "new=%d fixed=%d still_present=%d\n",
		len(result.New), len(result.Fixed), len(result.StillPresent))
}

func readFindings(path string) ([]model.Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("diff: read %s: %w", path, err)
	}
	var out []model.Finding
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("diff: parse %s: %w", path, err)
	}
	return out, nil
}
