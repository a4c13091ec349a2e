package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name      string
		anchor    time.Time
		frequency string
		end       *time.Time
		want      time.Time
		wantOK    bool
	}{
		{
			name:      "daily",
			anchor:    date(2025, time.March, 15),
			frequency: FrequencyDaily,
			want:      date(2025, time.March, 16),
			wantOK:    true,
		},
		{
			name:      "daily across month boundary",
			anchor:    date(2025, time.January, 31),
			frequency: FrequencyDaily,
			want:      date(2025, time.February, 1),
			wantOK:    true,
		},
		{
			name:      "weekly",
			anchor:    date(2025, time.March, 28),
			frequency: FrequencyWeekly,
			want:      date(2025, time.April, 4),
			wantOK:    true,
		},
		{
			name:      "monthly simple",
			anchor:    date(2025, time.March, 15),
			frequency: FrequencyMonthly,
			want:      date(2025, time.April, 15),
			wantOK:    true,
		},
		{
			name:      "monthly Jan 31 clips to Feb 28",
			anchor:    date(2025, time.January, 31),
			frequency: FrequencyMonthly,
			want:      date(2025, time.February, 28),
			wantOK:    true,
		},
		{
			name:      "monthly Jan 31 clips to Feb 29 in leap year",
			anchor:    date(2024, time.January, 31),
			frequency: FrequencyMonthly,
			want:      date(2024, time.February, 29),
			wantOK:    true,
		},
		{
			name:      "monthly clipped day does not stick",
			anchor:    date(2025, time.February, 28),
			frequency: FrequencyMonthly,
			want:      date(2025, time.March, 28),
			wantOK:    true,
		},
		{
			name:      "monthly Dec wraps year",
			anchor:    date(2025, time.December, 31),
			frequency: FrequencyMonthly,
			want:      date(2026, time.January, 31),
			wantOK:    true,
		},
		{
			name:      "yearly",
			anchor:    date(2025, time.June, 10),
			frequency: FrequencyYearly,
			want:      date(2026, time.June, 10),
			wantOK:    true,
		},
		{
			name:      "yearly Feb 29 clips to Feb 28",
			anchor:    date(2024, time.February, 29),
			frequency: FrequencyYearly,
			want:      date(2025, time.February, 28),
			wantOK:    true,
		},
		{
			name:      "end date reached",
			anchor:    date(2025, time.March, 15),
			frequency: FrequencyMonthly,
			end:       timePtr(date(2025, time.March, 31)),
			wantOK:    false,
		},
		{
			name:      "end date exactly on next occurrence",
			anchor:    date(2025, time.March, 15),
			frequency: FrequencyMonthly,
			end:       timePtr(date(2025, time.April, 15)),
			want:      date(2025, time.April, 15),
			wantOK:    true,
		},
		{
			name:      "unknown frequency",
			anchor:    date(2025, time.March, 15),
			frequency: "fortnightly",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextOccurrence(tt.anchor, tt.frequency, tt.end)
			if ok != tt.wantOK {
				t.Fatalf("NextOccurrence() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrenceNormalizesTimeOfDay(t *testing.T) {
	anchor := time.Date(2025, time.May, 3, 17, 45, 12, 0, time.UTC)
	got, ok := NextOccurrence(anchor, FrequencyDaily, nil)
	if !ok {
		t.Fatal("expected ok")
	}
	if want := date(2025, time.May, 4); !got.Equal(want) {
		t.Errorf("NextOccurrence() = %v, want %v", got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", date(2025, time.March, 15), date(2025, time.March, 15), 0},
		{"future", date(2025, time.March, 15), date(2025, time.March, 20), 5},
		{"past", date(2025, time.March, 15), date(2025, time.March, 10), -5},
		{"across leap day", date(2024, time.February, 28), date(2024, time.March, 1), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsValidFrequency(t *testing.T) {
	for _, f := range []string{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly} {
		if !IsValidFrequency(f) {
			t.Errorf("IsValidFrequency(%q) = false, want true", f)
		}
	}
	if IsValidFrequency("hourly") {
		t.Error("IsValidFrequency(\"hourly\") = true, want false")
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
