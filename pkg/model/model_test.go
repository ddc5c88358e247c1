package model

import (
	"testing"
	"time"
)

func TestScanStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from, to ScanStatus
		want     bool
	}{
		{ScanPending, ScanQueued, true},
		{ScanQueued, ScanRunning, true},
		{ScanRunning, ScanCompleted, true},
		{ScanRunning, ScanFailed, true},
		{ScanQueued, ScanCompleted, true}, // skipping forward is legal
		{ScanRunning, ScanQueued, false},
		{ScanCompleted, ScanRunning, false},
		{ScanFailed, ScanCompleted, false},
		{ScanRunning, ScanRunning, false},
		{ScanStatus("bogus"), ScanRunning, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s → %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestScanStatus_Terminal(t *testing.T) {
	if ScanRunning.Terminal() {
		t.Error("running should not be terminal")
	}
	if !ScanCompleted.Terminal() || !ScanFailed.Terminal() {
		t.Error("completed and failed should be terminal")
	}
}

func TestSeverity_Score(t *testing.T) {
	if SeverityCritical.Score() <= SeverityHigh.Score() {
		t.Error("critical should outrank high")
	}
	if Severity("bogus").Score() != 0 {
		t.Error("unknown severity should score 0")
	}
	if !SeverityInfo.IsValid() || Severity("warn").IsValid() {
		t.Error("IsValid mismatch")
	}
}

func TestParamsHash(t *testing.T) {
	if got := ParamsHash(nil); got != NoParamsHash {
		t.Errorf("ParamsHash(nil) = %q, want %q", got, NoParamsHash)
	}

	a := ParamsHash(map[string][]string{"q": {"1"}, "page": {"2"}})
	b := ParamsHash(map[string][]string{"page": {"99"}, "q": {"abc"}})
	if a != b {
		t.Errorf("same parameter shape hashed differently: %q vs %q", a, b)
	}

	c := ParamsHash(map[string][]string{"q": {"1"}})
	if a == c {
		t.Error("different parameter shapes should hash differently")
	}
}

func TestExceptionRecord_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := ExceptionRecord{ExpiresAt: now.Add(time.Hour)}

	if rec.Expired(now) {
		t.Error("record should not be expired before expires_at")
	}
	if !rec.Expired(now.Add(2 * time.Hour)) {
		t.Error("record should be expired after expires_at")
	}
}

func TestEndpointKey(t *testing.T) {
	e := Endpoint{ScanID: "s1", Method: "GET", URL: "https://x/api", ParamsHash: "na"}
	k := e.Key()

	if k != (EndpointKey{"s1", "GET", "https://x/api", "na"}) {
		t.Errorf("Key() = %+v", k)
	}
}
