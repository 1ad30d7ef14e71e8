package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2)
	rl.now = func() time.Time { return now }

	if !rl.allow() || !rl.allow() {
		t.Fatal("first two messages should pass")
	}
	if rl.allow() {
		t.Fatal("third message in the window should be rejected")
	}

	now = now.Add(time.Minute)
	if !rl.allow() {
		t.Fatal("new window should reset the budget")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0)
	for range 1000 {
		if !rl.allow() {
			t.Fatal("zero limit must disable limiting")
		}
	}
}

func TestIPLimiterIsPerAddress(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") || !l.allow("10.0.0.2") {
		t.Fatal("each address gets its own budget")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("second request from the same address should be limited")
	}

	now = now.Add(2 * time.Minute)
	if !l.allow("10.0.0.1") {
		t.Fatal("budget should refill after the window")
	}
	if len(l.buckets) != 1 {
		t.Fatalf("expired buckets should be pruned, have %d", len(l.buckets))
	}
}

func TestIPLimiterPrunesOncePerWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	l := newIPLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	if !l.pruned.Equal(start) {
		t.Fatalf("first bucket should trigger a scan, pruned at %v", l.pruned)
	}

	now = start.Add(30 * time.Second)
	for _, ip := range []string{"10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		l.allow(ip)
	}
	if !l.pruned.Equal(start) {
		t.Fatalf("new addresses inside the window must not rescan, pruned at %v", l.pruned)
	}
	if len(l.buckets) != 4 {
		t.Fatalf("expected 4 buckets, have %d", len(l.buckets))
	}

	now = start.Add(75 * time.Second)
	l.allow("10.0.0.5")
	if !l.pruned.Equal(now) {
		t.Fatalf("a scan is due after a full window, pruned at %v", l.pruned)
	}
	if _, ok := l.buckets["10.0.0.1"]; ok {
		t.Fatal("expired bucket should be pruned")
	}
	if len(l.buckets) != 4 {
		t.Fatalf("live buckets should survive, have %d", len(l.buckets))
	}
}
