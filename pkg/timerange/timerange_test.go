package timerange

import (
	"testing"
	"time"
)

func mustRange(t *testing.T, start, end time.Time) Range {
	t.Helper()
	r, err := New(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestNew_RejectsInverted(t *testing.T) {
	now := time.Now()
	if _, err := New(now, now); err == nil {
		t.Error("expected error for zero-length range")
	}
	if _, err := New(now, now.Add(-time.Minute)); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{
			name: "identical",
			a:    Range{base, base.Add(30 * time.Minute)},
			b:    Range{base, base.Add(30 * time.Minute)},
			want: true,
		},
		{
			name: "partial overlap",
			a:    Range{base, base.Add(30 * time.Minute)},
			b:    Range{base.Add(15 * time.Minute), base.Add(45 * time.Minute)},
			want: true,
		},
		{
			name: "containment",
			a:    Range{base, base.Add(time.Hour)},
			b:    Range{base.Add(10 * time.Minute), base.Add(20 * time.Minute)},
			want: true,
		},
		{
			name: "back to back",
			a:    Range{base, base.Add(30 * time.Minute)},
			b:    Range{base.Add(30 * time.Minute), base.Add(time.Hour)},
			want: false,
		},
		{
			name: "disjoint",
			a:    Range{base, base.Add(30 * time.Minute)},
			b:    Range{base.Add(2 * time.Hour), base.Add(3 * time.Hour)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Overlap is symmetric.
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	r := mustRange(t, base, base.Add(30*time.Minute))

	if !Contains(r, base) {
		t.Error("start instant should be contained")
	}
	if Contains(r, base.Add(30*time.Minute)) {
		t.Error("end instant should be excluded")
	}
	if !Contains(r, base.Add(15*time.Minute)) {
		t.Error("midpoint should be contained")
	}
	if Contains(r, base.Add(-time.Second)) {
		t.Error("instant before start should not be contained")
	}
}

func TestFromDuration(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	r, err := FromDuration(base, 45*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Duration() != 45*time.Minute {
		t.Errorf("expected 45m duration, got %s", r.Duration())
	}
	if _, err := FromDuration(base, 0); err == nil {
		t.Error("expected error for zero duration")
	}
}
