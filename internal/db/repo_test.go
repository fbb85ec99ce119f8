package db

import (
	"strings"
	"testing"
	"time"
)

func TestNewRequestID(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	id := newRequestID(ts)
	if id != "REQ-20250314092653-589793" {
		t.Fatalf("newRequestID = %q", id)
	}
}

func TestNewRequestIDUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	local := time.Date(2025, 3, 14, 14, 26, 53, 0, loc)
	id := newRequestID(local)
	if !strings.HasPrefix(id, "REQ-20250314092653-") {
		t.Fatalf("expected UTC timestamp in id, got %q", id)
	}
}

func TestNewRequestIDDistinctAcrossMicroseconds(t *testing.T) {
	base := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	a := newRequestID(base)
	b := newRequestID(base.Add(time.Microsecond))
	if a == b {
		t.Fatalf("ids within the same second must differ by microsecond: %q", a)
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 50},  // default
		{-5, 50}, // nonsense falls back to default
		{1, 1},
		{100, 100},
		{101, 100}, // hard cap
		{500, 100},
	}
	for _, tt := range tests {
		if got := normalizeLimit(tt.in); got != tt.want {
			t.Fatalf("normalizeLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNullIfEmpty(t *testing.T) {
	if got := nullIfEmpty(""); got != nil {
		t.Fatalf("nullIfEmpty(\"\") = %v, want nil", got)
	}
	if got := nullIfEmpty("cardiology"); got != "cardiology" {
		t.Fatalf("nullIfEmpty(cardiology) = %v", got)
	}
}
