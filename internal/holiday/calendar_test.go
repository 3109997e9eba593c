package holiday

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

func TestDefaultCalendarParses(t *testing.T) {
	cal := Default()
	if len(cal.workdays) == 0 || len(cal.holidays) == 0 {
		t.Fatal("embedded calendar is empty")
	}
}

func TestIsHoliday(t *testing.T) {
	cal := Default()

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"regular weekday", date(2025, time.March, 10), false},   // Monday
		{"regular saturday", date(2025, time.March, 15), true},
		{"regular sunday", date(2025, time.March, 16), true},
		{"national day weekday", date(2025, time.October, 1), true}, // Wednesday
		{"spring festival span", date(2025, time.February, 3), true},
		{"shifted workday sunday", date(2025, time.January, 26), false},
		{"shifted workday saturday", date(2025, time.October, 11), false},
		{"labour day 2024", date(2024, time.May, 1), true},
		{"dragon boat 2024", date(2024, time.June, 10), true},
		{"new year 2025", date(2025, time.January, 1), true},
		{"day after holiday span", date(2025, time.October, 8), false}, // Wednesday
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.IsHoliday(tt.date); got != tt.want {
				t.Errorf("IsHoliday(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestWorkdayOverridesHolidaySpan(t *testing.T) {
	cal, err := Parse([]byte(`
workdays:
  - date: "2025-10-04"
    name: override
holidays:
  - start: "2025-10-01"
    end: "2025-10-07"
    name: test
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// Saturday inside the span, but listed as a working day.
	if cal.IsHoliday(date(2025, time.October, 4)) {
		t.Error("shifted workday inside a holiday span must not be a holiday")
	}
	if !cal.IsHoliday(date(2025, time.October, 3)) {
		t.Error("span day without override must be a holiday")
	}
}

func TestName(t *testing.T) {
	cal := Default()

	if name, ok := cal.Name(date(2025, time.October, 1)); !ok || name != "国庆节、中秋节" {
		t.Errorf("unexpected name %q (ok=%v)", name, ok)
	}
	if _, ok := cal.Name(date(2025, time.March, 10)); ok {
		t.Error("plain weekday should have no name")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "workdays: ["},
		{"bad workday date", "workdays:\n  - date: \"not-a-date\""},
		{"bad holiday start", "holidays:\n  - start: \"nope\"\n    end: \"2025-01-02\""},
		{"inverted span", "holidays:\n  - start: \"2025-01-05\"\n    end: \"2025-01-02\"\n    name: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/calendar.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
