package services

import (
	"testing"
	"time"
)

func TestHolidayService_KnownHolidays(t *testing.T) {
	holidays := NewHolidayService()

	cases := []struct {
		region string
		date   time.Time
		want   bool
	}{
		{"US", time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC), true},
		{"US", time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC), true},
		{"US", time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), false},
		{"GB", time.Date(2026, time.December, 26, 0, 0, 0, 0, time.UTC), true},
		{"FR", time.Date(2026, time.July, 14, 0, 0, 0, 0, time.UTC), true},
		{"DE", time.Date(2026, time.October, 3, 0, 0, 0, 0, time.UTC), true},
		{"JP", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		if got := holidays.IsHoliday(tc.date, tc.region); got != tc.want {
			t.Errorf("IsHoliday(%s, %s) = %v, expected %v",
				tc.date.Format("2006-01-02"), tc.region, got, tc.want)
		}
	}
}

func TestHolidayService_ChinaStatutoryTable(t *testing.T) {
	holidays := NewHolidayService()

	// Spring Festival day one is a statutory holiday.
	if !holidays.IsHoliday(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), "CN") {
		t.Error("Spring Festival should be a holiday in CN")
	}
	// The compensatory working Sunday before it is not.
	if holidays.IsHoliday(time.Date(2024, time.February, 4, 0, 0, 0, 0, time.UTC), "CN") {
		t.Error("a compensatory working day must not count as a holiday")
	}
}

func TestHolidayService_UnknownRegion(t *testing.T) {
	holidays := NewHolidayService()

	if holidays.IsHoliday(time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC), "XX") {
		t.Error("unknown regions must report no holidays")
	}
}

func TestHolidayService_SupportedRegions(t *testing.T) {
	holidays := NewHolidayService()

	regions := holidays.GetSupportedRegions()
	if len(regions) == 0 {
		t.Fatal("expected a non-empty region list")
	}

	seen := make(map[string]bool)
	for _, r := range regions {
		if r.Code == "" || r.Name == "" {
			t.Errorf("region entry %+v is incomplete", r)
		}
		seen[r.Code] = true
	}
	// Every calendar-backed region plus the statutory CN table is listed.
	for _, code := range []string{"US", "GB", "DE", "FR", "JP", "CN", "AU", "CA", "IT", "ES", "NL"} {
		if !seen[code] {
			t.Errorf("region %s missing from the supported list", code)
		}
	}
}
