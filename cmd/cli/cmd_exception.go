package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/scanforge/scanforge/pkg/model"
)

// Exceptions live in a JSON file so they survive across CLI runs; every
// mutation rewrites the file after the engine-side bookkeeping.

func runExceptionCmd() {
	flags := flag.NewFlagSet("exception", flag.ExitOnError)
	file := flags.String("file", "exceptions.json", "Exception store file")
	findingKey := flags.String("finding-key", "", "Dedupe key of the excepted finding (required for add)")
	ticket := flags.String("ticket", "", "Tracking ticket reference")
	approver := flags.String("approver", "", "Approving identity (required for add)")
	ttl := flags.Duration("ttl", 30*24*time.Hour, "How long the exception stays valid")
	list := flags.Bool("list", false, "List recorded exceptions instead of adding")
	expire := flags.Bool("expire", false, "Sweep expired records instead of adding")
	flags.Parse(os.Args[2:])

	recs, err := readExceptions(*file)
	if err != nil {
		fatal(err)
	}

	switch {
	case *list:
		if err := json.NewEncoder(os.Stdout).Encode(recs); err != nil {
			fatal(err)
		}
	case *expire:
		now := model.Now()
		expired := 0
		for i := range recs {
			if recs[i].Status == model.ExceptionApproved && recs[i].Expired(now) {
				recs[i].Status = model.ExceptionExpired
				recs[i].Touch()
				expired++
			}
		}
		if err := writeExceptions(*file, recs); err != nil {
			fatal(err)
		}
		fmt.Printf("expired %d exception(s)\n", expired)
	default:
		if *findingKey == "" || *approver == "" {
			fmt.Fprintln(os.Stderr, "exception: -finding-key and -approver are required")
			flags.Usage()
			os.Exit(2)
		}
		rec := model.ExceptionRecord{
			FindingKey: *findingKey,
			Ticket:     *ticket,
			Approver:   *approver,
			Status:     model.ExceptionApproved,
			ExpiresAt:  model.Now().Add(*ttl),
		}
		rec.Meta = model.NewMeta()
		recs = append(recs, rec)
		if err := writeExceptions(*file, recs); err != nil {
			fatal(err)
		}
		if err := json.NewEncoder(os.Stdout).Encode(rec); err != nil {
			fatal(err)
		}
	}
}

func readExceptions(path string) ([]model.ExceptionRecord, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("exception: read %s: %w", path, err)
	}
	var out []model.ExceptionRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("exception: parse %s: %w", path, err)
	}
	return out, nil
}

func writeExceptions(path string, recs []model.ExceptionRecord) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("exception: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("exception: write %s: %w", path, err)
	}
	return nil
}
