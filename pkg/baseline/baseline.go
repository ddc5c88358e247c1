// Package baseline classifies the findings of a scan against a prior
// scan of the same target.
//
// The diff is a pure function over two finding collections keyed by
// dedupe key. Callers decide what to do with the Fixed bucket, e.g.
// transition those findings and stamp FixedAt.
package baseline

import (
	"slices"
	"strings"

	"github.com/scanforge/scanforge/pkg/model"
)

// Result contains the outcome of comparing current findings against a
// baseline set. Buckets are sorted by dedupe key for stable output.
type Result struct {
	// New contains findings present now but absent from the baseline.
	New []model.Finding `json:"new"`

	// Fixed contains baseline findings no longer observed.
	Fixed []model.Finding `json:"fixed"`

	// StillPresent contains findings present in both sets.
	StillPresent []model.Finding `json:"still_present"`
}

// Diff classifies current against previous by dedupe key. Neither input
// is mutated.
func Diff(current, previous []model.Finding) Result {
	prevByKey := make(map[string]model.Finding, len(previous))
	for _, f := range previous {
		prevByKey[f.DedupeKey] = f
	}
	curKeys := make(map[string]struct{}, len(current))

	var res Result
	for _, f := range current {
		curKeys[f.DedupeKey] = struct{}{}
		if _, ok := prevByKey[f.DedupeKey]; ok {
			res.StillPresent = append(res.StillPresent, f)
		} else {
			res.New = append(res.New, f)
		}
	}
	for _, f := range previous {
		if _, ok := curKeys[f.DedupeKey]; !ok {
			res.Fixed = append(res.Fixed, f)
		}
	}

	byKey := func(a, b model.Finding) int { return strings.Compare(a.DedupeKey, b.DedupeKey) }
	slices.SortFunc(res.New, byKey)
	slices.SortFunc(res.Fixed, byKey)
	slices.SortFunc(res.StillPresent, byKey)
	return res
}
