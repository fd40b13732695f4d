package model

import (
	"testing"
	"time"
)

func TestDateRange_Days(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int
		wantErr  bool
	}{
		{name: "单日", start: "2024-05-01", end: "2024-05-01", expected: 1},
		{name: "整月", start: "2024-05-01", end: "2024-05-31", expected: 31},
		{name: "跨月", start: "2024-04-29", end: "2024-05-02", expected: 4},
		{name: "结束早于开始", start: "2024-05-02", end: "2024-05-01", wantErr: true},
		{name: "格式错误", start: "2024/05/01", end: "2024-05-02", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewDateRange(tt.start, tt.end)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Len() != tt.expected {
				t.Errorf("Len() = %d, expected %d", r.Len(), tt.expected)
			}
			days := r.Days()
			if len(days) != tt.expected {
				t.Errorf("Days() returned %d days, expected %d", len(days), tt.expected)
			}
			if FormatDate(days[0]) != tt.start || FormatDate(days[len(days)-1]) != tt.end {
				t.Errorf("Days() bounds = %s..%s", FormatDate(days[0]), FormatDate(days[len(days)-1]))
			}
		})
	}
}

func TestDateSet_CountIn(t *testing.T) {
	r, _ := NewDateRange("2024-05-01", "2024-05-10")
	d := func(s string) time.Time {
		v, _ := ParseDate(s)
		return v
	}
	set := NewDateSet(d("2024-04-30"), d("2024-05-01"), d("2024-05-05"), d("2024-05-05"), d("2024-05-11"))

	if got := set.CountIn(r); got != 2 {
		t.Errorf("CountIn() = %d, expected 2", got)
	}
	if !set.Has(d("2024-05-05")) {
		t.Error("expected 2024-05-05 in set")
	}
	if sorted := set.Sorted(); sorted[0] != "2024-04-30" || len(sorted) != 4 {
		t.Errorf("Sorted() = %v", sorted)
	}
}

func TestTimeRange_GapTo(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	a := TimeRange{Start: base, End: base.Add(10 * time.Hour)}
	b := TimeRange{Start: base.Add(20 * time.Hour), End: base.Add(28 * time.Hour)}

	if gap := a.GapTo(b); gap != 10*time.Hour {
		t.Errorf("GapTo() = %v, expected 10h", gap)
	}
	if a.Overlaps(b) {
		t.Error("ranges should not overlap")
	}
}
