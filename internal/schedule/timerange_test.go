package schedule

import (
	"testing"
	"time"
)

func mustRange(t *testing.T, start, end time.Time) TimeRange {
	t.Helper()
	tr, err := NewTimeRange(start, end)
	if err != nil {
		t.Fatalf("NewTimeRange(%v, %v): %v", start, end, err)
	}
	return tr
}

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

func TestNewTimeRange_Invalid(t *testing.T) {
	if _, err := NewTimeRange(at(10, 0), at(10, 0)); err == nil {
		t.Fatalf("expected error for empty range")
	}
	if _, err := NewTimeRange(at(11, 0), at(10, 0)); err == nil {
		t.Fatalf("expected error for reversed range")
	}
	if _, err := NewTimeRange(time.Time{}, at(10, 0)); err == nil {
		t.Fatalf("expected error for zero start")
	}
}

func TestTimeRange_Overlaps(t *testing.T) {
	base := mustRange(t, at(10, 0), at(11, 0))

	cases := []struct {
		name  string
		other TimeRange
		want  bool
	}{
		{"identical", mustRange(t, at(10, 0), at(11, 0)), true},
		{"contained", mustRange(t, at(10, 15), at(10, 45)), true},
		{"overlaps start", mustRange(t, at(9, 30), at(10, 30)), true},
		{"overlaps end", mustRange(t, at(10, 30), at(11, 30)), true},
		{"covers", mustRange(t, at(9, 0), at(12, 0)), true},
		// Half-open intervals: touching ends is not an overlap.
		{"touches start", mustRange(t, at(9, 0), at(10, 0)), false},
		{"touches end", mustRange(t, at(11, 0), at(12, 0)), false},
		{"before", mustRange(t, at(8, 0), at(9, 0)), false},
		{"after", mustRange(t, at(12, 0), at(13, 0)), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Overlaps(tc.other); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			// Overlap is symmetric.
			if got := tc.other.Overlaps(base); got != tc.want {
				t.Fatalf("reverse Overlaps = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOverlapsAny(t *testing.T) {
	existing := []TimeRange{
		mustRange(t, at(9, 0), at(10, 0)),
		mustRange(t, at(12, 0), at(13, 0)),
	}

	ok, conflicts := OverlapsAny(mustRange(t, at(9, 30), at(12, 30)), existing)
	if !ok {
		t.Fatalf("expected overlap")
	}
	if len(conflicts) != 2 {
		t.Fatalf("conflicts len = %d, want 2", len(conflicts))
	}

	ok, conflicts = OverlapsAny(mustRange(t, at(10, 0), at(12, 0)), existing)
	if ok {
		t.Fatalf("touching ranges must not conflict, got %v", conflicts)
	}
}
