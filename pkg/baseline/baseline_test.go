package baseline

import (
	"testing"

	"github.com/scanforge/scanforge/pkg/model"
)

func finding(key string) model.Finding {
	return model.Finding{DedupeKey: key, Type: "t", Severity: model.SeverityLow}
}

func keys(fs []model.Finding) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.DedupeKey
	}
	return out
}

func TestDiff(t *testing.T) {
	previous := []model.Finding{finding("A"), finding("B")}
	current := []model.Finding{finding("B"), finding("C")}

	res := Diff(current, previous)

	if got := keys(res.New); len(got) != 1 || got[0] != "C" {
		t.Errorf("New = %v, want [C]", got)
	}
	if got := keys(res.Fixed); len(got) != 1 || got[0] != "A" {
		t.Errorf("Fixed = %v, want [A]", got)
	}
	if got := keys(res.StillPresent); len(got) != 1 || got[0] != "B" {
		t.Errorf("StillPresent = %v, want [B]", got)
	}
}

func TestDiff_EmptySets(t *testing.T) {
	res := Diff(nil, nil)
	if len(res.New)+len(res.Fixed)+len(res.StillPresent) != 0 {
		t.Errorf("Diff(nil, nil) = %+v, want empty", res)
	}

	res = Diff([]model.Finding{finding("A")}, nil)
	if len(res.New) != 1 || len(res.Fixed) != 0 {
		t.Errorf("all current should be new: %+v", res)
	}

	res = Diff(nil, []model.Finding{finding("A")})
	if len(res.Fixed) != 1 || len(res.New) != 0 {
		t.Errorf("all previous should be fixed: %+v", res)
	}
}

func TestDiff_SortedOutput(t *testing.T) {
	current := []model.Finding{finding("z"), finding("a"), finding("m")}

	res := Diff(current, nil)

	got := keys(res.New)
	if got[0] != "a" || got[1] != "m" || got[2] != "z" {
		t.Errorf("New not sorted by key: %v", got)
	}
}

func TestDiff_DoesNotMutateInputs(t *testing.T) {
	current := []model.Finding{finding("b"), finding("a")}
	Diff(current, nil)

	if current[0].DedupeKey != "b" {
		t.Error("Diff reordered its input slice")
	}
}
