package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Strategy: Constant}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Errorf("Do() = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Do() = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("Do() = %v, want boom", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_StopShortCircuits(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		calls++
		return Stop(permanent)
	})

	if !errors.Is(err, permanent) {
		t.Errorf("Do() = %v, want permanent", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry after Stop)", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(3), func() error { return errors.New("x") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() = %v, want context.Canceled", err)
	}
}

func TestDo_ZeroAttemptsIsNoop(t *testing.T) {
	called := false
	if err := Do(context.Background(), Config{}, func() error { called = true; return nil }); err != nil {
		t.Errorf("Do() = %v", err)
	}
	if called {
		t.Error("fn should not run with zero attempts")
	}
}

func TestDelay_Strategies(t *testing.T) {
	exp := Config{InitDelay: time.Millisecond, MaxDelay: time.Second, Strategy: Exponential}
	if exp.delay(2) != 4*time.Millisecond {
		t.Errorf("exponential delay(2) = %v", exp.delay(2))
	}

	lin := Config{InitDelay: time.Millisecond, MaxDelay: time.Second, Strategy: Linear}
	if lin.delay(2) != 3*time.Millisecond {
		t.Errorf("linear delay(2) = %v", lin.delay(2))
	}

	capped := Config{InitDelay: time.Second, MaxDelay: 2 * time.Second, Strategy: Exponential}
	if capped.delay(5) != 2*time.Second {
		t.Errorf("delay should cap at MaxDelay, got %v", capped.delay(5))
	}
}
