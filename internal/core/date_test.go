package core

import "testing"

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2024 || int(d.Month()) != 5 || d.Day() != 31 {
		t.Fatalf("parsed wrong date: %v", d)
	}
	if d.String() != "2024-05-31" {
		t.Fatalf("round trip = %q", d.String())
	}

	for _, bad := range []string{"", "2024-5-1", "31/05/2024", "2024-13-01"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) expected error", bad)
		}
	}
}

func TestMonthHelpers(t *testing.T) {
	d := NewDate(2024, 6, 15)
	if got := d.MonthKey(); got != "2024-06" {
		t.Errorf("MonthKey = %q", got)
	}
	if got := d.PrevMonth().MonthLabel(); got != "May 2024" {
		t.Errorf("PrevMonth label = %q", got)
	}
	if got := d.FirstOfMonth().String(); got != "2024-06-01" {
		t.Errorf("FirstOfMonth = %q", got)
	}
	if got := d.PrevMonth().LastOfMonth().String(); got != "2024-05-31" {
		t.Errorf("prev month end = %q", got)
	}
	// Year boundary
	jan := NewDate(2025, 1, 10)
	if got := jan.PrevMonth().MonthKey(); got != "2024-12" {
		t.Errorf("Dec key = %q", got)
	}
}

func TestSameMonth(t *testing.T) {
	a := NewDate(2024, 5, 1)
	b := NewDate(2024, 5, 31)
	c := NewDate(2024, 6, 1)
	if !a.SameMonth(b) {
		t.Error("expected same month")
	}
	if a.SameMonth(c) {
		t.Error("expected different month")
	}
}

func TestWeekRange(t *testing.T) {
	cases := []struct {
		year, week int
		start, end string
	}{
		{2024, 20, "2024-05-13", "2024-05-19"},
		{2024, 1, "2024-01-01", "2024-01-07"},
		{2021, 1, "2021-01-04", "2021-01-10"}, // Jan 1-3 belong to week 53 of 2020
	}
	for _, tc := range cases {
		start, end := WeekRange(tc.year, tc.week)
		if start.String() != tc.start || end.String() != tc.end {
			t.Errorf("WeekRange(%d, %d) = %s..%s, want %s..%s",
				tc.year, tc.week, start, end, tc.start, tc.end)
		}
	}
}
