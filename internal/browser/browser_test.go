package browser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

func TestIdleTrackerWaitsForQuiet(t *testing.T) {
	tr := newIdleTracker()
	tr.handle(&network.EventRequestWillBeSent{RequestID: "a"})
	tr.handle(&network.EventRequestWillBeSent{RequestID: "b"})
	tr.handle(&network.EventRequestWillBeSent{RequestID: "c"})

	go func() {
		time.Sleep(30 * time.Millisecond)
		tr.handle(&network.EventLoadingFinished{RequestID: "a"})
	}()

	start := time.Now()
	if err := tr.wait(context.Background(), 2, 40*time.Millisecond, 5*time.Millisecond); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Errorf("Expected to wait for the request to finish plus quiet period, took %v", elapsed)
	}
	if tr.count() != 2 {
		t.Errorf("Expected 2 requests in flight, got %d", tr.count())
	}
}

func TestIdleTrackerFailedRequestsCount(t *testing.T) {
	tr := newIdleTracker()
	tr.handle(&network.EventRequestWillBeSent{RequestID: "a"})
	tr.handle(&network.EventLoadingFailed{RequestID: "a"})
	if tr.count() != 0 {
		t.Errorf("Failed request should leave the in-flight set, got %d", tr.count())
	}
}

func TestIdleTrackerTimeout(t *testing.T) {
	tr := newIdleTracker()
	for _, id := range []network.RequestID{"a", "b", "c"} {
		tr.started(id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := tr.wait(ctx, 2, 10*time.Millisecond, 5*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestIdleTrackerReset(t *testing.T) {
	tr := newIdleTracker()
	tr.started("a")
	tr.started("b")
	tr.reset()
	if tr.count() != 0 {
		t.Errorf("Expected empty tracker after reset, got %d", tr.count())
	}
}

func TestBuildGuardScript(t *testing.T) {
	script := buildGuardScript([]string{" India.gov.in ", ""})
	if strings.Contains(script, "__BLOCKED_HOSTS__") {
		t.Fatal("Placeholder was not replaced")
	}
	if !strings.Contains(script, `["india.gov.in"]`) {
		t.Errorf("Expected normalized host list in script")
	}
}

func TestBlocked(t *testing.T) {
	hosts := []string{"india.gov.in"}
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.india.gov.in/", true},
		{"https://INDIA.GOV.IN/topics", true},
		{"https://www.dgft.gov.in/CP/", false},
		{"about:blank", false},
	}

	for _, tt := range tests {
		if got := blocked(tt.url, hosts); got != tt.want {
			t.Errorf("blocked(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestURLPattern(t *testing.T) {
	if got := urlPattern("india.gov.in"); got != "*india.gov.in*" {
		t.Errorf("urlPattern = %q", got)
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected canceled, got %v", err)
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Zero sleep should return nil, got %v", err)
	}
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	s := &Session{closed: true}
	if _, _, err := s.scope(context.Background(), time.Second); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}
