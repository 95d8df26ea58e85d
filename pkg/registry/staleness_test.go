package registry

import (
	"testing"
	"time"
)

func TestClassifyBoundaries(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	th := DefaultThresholds()

	tests := []struct {
		name string
		age  time.Duration
		want Category
	}{
		{"just published", 0, CategoryActive},
		{"one year", 1 * year, CategoryActive},
		{"second before aging boundary", 2*year - time.Second, CategoryActive},
		{"exactly aging boundary", 2 * year, CategoryAging},
		{"second past aging boundary", 2*year + time.Second, CategoryAging},
		{"four years", 4 * year, CategoryAging},
		{"second before unmaintained boundary", 5*year - time.Second, CategoryAging},
		{"exactly unmaintained boundary", 5 * year, CategoryUnmaintained},
		{"second past unmaintained boundary", 5*year + time.Second, CategoryUnmaintained},
		{"a decade", 10 * year, CategoryUnmaintained},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.Classify(now.Add(-tt.age), now)
			if got != tt.want {
				t.Errorf("Classify(now-%v) = %q, want %q", tt.age, got, tt.want)
			}
		})
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	th := Thresholds{Aging: 1 * year, Unmaintained: 3 * year}

	if got := th.Classify(now.Add(-18*30*24*time.Hour), now); got != CategoryAging {
		t.Errorf("18 months with 1y boundary = %q, want aging", got)
	}
	if got := th.Classify(now.Add(-4*year), now); got != CategoryUnmaintained {
		t.Errorf("4 years with 3y boundary = %q, want unmaintained", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	last := now.Add(-3 * year)
	th := DefaultThresholds()

	first := th.Classify(last, now)
	for range 10 {
		if got := th.Classify(last, now); got != first {
			t.Fatalf("classification changed between calls: %q then %q", first, got)
		}
	}
}
