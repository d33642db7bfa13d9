package rate

import (
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	coreerrors "github.com/go-core-stack/slowmode/errors"
)

func TestLimitManagerNewLimiter(t *testing.T) {
	mgr := NewLimitManager(1)

	lim, err := mgr.NewLimiter("channel-1", 0.5, 2)
	if err != nil {
		t.Fatalf("unexpected error creating limiter: %v", err)
	}
	if lim.mgr != mgr {
		t.Fatalf("limiter manager mismatch: got %p want %p", lim.mgr, mgr)
	}
	if lim.Key() != "channel-1" {
		t.Fatalf("limiter key mismatch: got %q want %q", lim.Key(), "channel-1")
	}
	if lim.Limit() != rate.Limit(0.5) {
		t.Fatalf("initial limiter limit incorrect: got %v want %v", lim.Limit(), rate.Limit(0.5))
	}

	_, err = mgr.NewLimiter("channel-1", 0.5, 2)
	if err == nil {
		t.Fatalf("expected duplicate limiter creation to fail")
	}
	if !coreerrors.IsAlreadyExists(err) {
		t.Fatalf("expected AlreadyExists error, got %v", err)
	}
}

// TestLimitManagerUpdateInUseRedistributes ensures the budget is shared in
// proportion to nominal rates and that limits reset when a limiter leaves
// the active set.
func TestLimitManagerUpdateInUseRedistributes(t *testing.T) {
	mgr := NewLimitManager(1)

	l1, err := mgr.NewLimiter("alpha", 1, 1)
	if err != nil {
		t.Fatalf("unexpected error creating limiter: %v", err)
	}
	l2, err := mgr.NewLimiter("beta", 3, 1)
	if err != nil {
		t.Fatalf("unexpected error creating limiter: %v", err)
	}

	l1.SetInUse(true)
	l2.SetInUse(true)

	if got := l1.Limit(); got != rate.Limit(0.25) {
		t.Fatalf("unexpected limit for alpha: got %v want %v", got, rate.Limit(0.25))
	}
	if got := l2.Limit(); got != rate.Limit(0.75) {
		t.Fatalf("unexpected limit for beta: got %v want %v", got, rate.Limit(0.75))
	}

	l1.SetInUse(false)

	if got := l1.Limit(); got != rate.Limit(1) {
		t.Fatalf("released limiter should reset to base rate: got %v want %v", got, rate.Limit(1))
	}
	if got := l2.Limit(); got != rate.Limit(1) {
		t.Fatalf("remaining limiter should consume full capacity: got %v want %v", got, rate.Limit(1))
	}
}

func TestLimitManagerUnboundedBudget(t *testing.T) {
	mgr := NewLimitManager(0)
	l, err := mgr.NewLimiter("solo", 2, 1)
	if err != nil {
		t.Fatalf("unexpected error creating limiter: %v", err)
	}
	l.SetInUse(true)
	if got := l.Limit(); got != rate.Limit(2) {
		t.Fatalf("unbounded budget must keep nominal rate: got %v", got)
	}
}

// TestNewLimiterInvalidArguments verifies validation of burst and rate.
func TestNewLimiterInvalidArguments(t *testing.T) {
	mgr := NewLimitManager(1)

	tests := []struct {
		name  string
		rate  float64
		burst int
	}{
		{"zero burst", 1, 0},
		{"negative burst", 1, -1},
		{"zero rate", 0, 1},
		{"negative rate", -0.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.NewLimiter("test", tt.rate, tt.burst)
			if err == nil {
				t.Fatalf("expected error for rate=%v burst=%d, got nil", tt.rate, tt.burst)
			}
			if !coreerrors.IsInvalidArgument(err) {
				t.Fatalf("expected InvalidArgument error, got %v", err)
			}
		})
	}
}

func TestLimiterAllowAt(t *testing.T) {
	mgr := NewLimitManager(0)
	l, err := mgr.NewLimiter("c", 0.1, 2)
	if err != nil {
		t.Fatalf("unexpected error creating limiter: %v", err)
	}

	now := time.Now()
	if !l.AllowAt(now) || !l.AllowAt(now) {
		t.Fatalf("burst of two should be allowed")
	}
	if l.AllowAt(now) {
		t.Fatalf("third immediate edit should be denied")
	}
	if !l.AllowAt(now.Add(15 * time.Second)) {
		t.Fatalf("a token should be refilled after 15s at 0.1/s")
	}
}

func TestLimitManagerLocateAndRemove(t *testing.T) {
	mgr := NewLimitManager(1)

	var wg sync.WaitGroup
	got := make([]*Limiter, 10)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lim, err := mgr.Locate("shared", 0.5, 1)
			if err != nil {
				t.Errorf("locate failed: %v", err)
				return
			}
			got[i] = lim
		}(i)
	}
	wg.Wait()
	for _, lim := range got {
		if lim != got[0] {
			t.Fatalf("concurrent Locate must return a single limiter")
		}
	}
	if mgr.Len() != 1 {
		t.Fatalf("expected one limiter, got %d", mgr.Len())
	}

	other, _ := mgr.Locate("other", 0.5, 1)
	got[0].SetInUse(true)
	other.SetInUse(true)
	if got := other.Limit(); got != rate.Limit(0.5) {
		t.Fatalf("expected even split of the budget, got %v", got)
	}

	if err := mgr.Remove("shared"); err != nil {
		t.Fatalf("unexpected error removing limiter: %v", err)
	}
	if got := other.Limit(); got != rate.Limit(1) {
		t.Fatalf("remaining limiter should get the whole budget, got %v", got)
	}
	if err := mgr.Remove("shared"); !coreerrors.IsNotFound(err) {
		t.Fatalf("expected NotFound on second remove, got %v", err)
	}
	if _, err := mgr.Get("shared"); !coreerrors.IsNotFound(err) {
		t.Fatalf("expected NotFound from Get, got %v", err)
	}
}
