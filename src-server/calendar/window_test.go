package calendar_test

import (
	"testing"
	"time"

	"advisordesk/src-server/calendar"
)

func mustDate(t *testing.T, s string) calendar.Date {
	t.Helper()
	d, err := calendar.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestComputeShape(t *testing.T) {
	anchors := []string{
		"2024-01-01", "2024-02-20", "2024-02-29", "2023-02-28",
		"2024-12-31", "2025-03-01", "2024-07-15", "2000-02-10",
	}
	for _, s := range anchors {
		anchor := mustDate(t, s)
		for _, g := range []calendar.Granularity{calendar.Month, calendar.Week, calendar.Day} {
			dates := calendar.Compute(anchor, g)

			want := map[calendar.Granularity]int{
				calendar.Day:   1,
				calendar.Week:  7,
				calendar.Month: calendar.DaysIn(anchor.Year, anchor.Month),
			}[g]
			if len(dates) != want {
				t.Errorf("%s/%s: got %d dates, want %d", s, g, len(dates), want)
				continue
			}
			for i := 1; i < len(dates); i++ {
				if dates[i-1].AddDays(1) != dates[i] {
					t.Errorf("%s/%s: %s is not followed by %s", s, g, dates[i-1], dates[i])
				}
			}

			found := false
			for _, d := range dates {
				if d == anchor {
					found = true
				}
			}
			if !found {
				t.Errorf("%s/%s: window doesn't contain the anchor", s, g)
			}
		}
	}
}

func TestComputeWeekStartsMonday(t *testing.T) {
	// 2024-02-20 is a Tuesday
	dates := calendar.Compute(mustDate(t, "2024-02-20"), calendar.Week)
	if dates[0] != mustDate(t, "2024-02-19") || dates[6] != mustDate(t, "2024-02-25") {
		t.Errorf("got %s..%s, want 2024-02-19..2024-02-25", dates[0], dates[6])
	}
	if dates[0].Weekday() != time.Monday {
		t.Errorf("week starts on %s", dates[0].Weekday())
	}

	// a Monday anchor starts its own week, a Sunday anchor ends it
	if got := calendar.WeekStart(mustDate(t, "2024-02-19")); got != mustDate(t, "2024-02-19") {
		t.Errorf("monday anchor: got %s", got)
	}
	if got := calendar.WeekStart(mustDate(t, "2024-02-25")); got != mustDate(t, "2024-02-19") {
		t.Errorf("sunday anchor: got %s", got)
	}

	// weeks crossing a year boundary
	dates = calendar.Compute(mustDate(t, "2025-01-01"), calendar.Week)
	if dates[0] != mustDate(t, "2024-12-30") || dates[6] != mustDate(t, "2025-01-05") {
		t.Errorf("got %s..%s, want 2024-12-30..2025-01-05", dates[0], dates[6])
	}
}

func TestComputeMonthStaysInMonth(t *testing.T) {
	dates := calendar.Compute(mustDate(t, "2024-12-31"), calendar.Month)
	if dates[0] != mustDate(t, "2024-12-01") || dates[len(dates)-1] != mustDate(t, "2024-12-31") {
		t.Errorf("got %s..%s", dates[0], dates[len(dates)-1])
	}
	if len(calendar.Compute(mustDate(t, "2024-02-10"), calendar.Month)) != 29 {
		t.Error("leap february should have 29 days")
	}
	if len(calendar.Compute(mustDate(t, "2100-02-10"), calendar.Month)) != 28 {
		t.Error("2100 is not a leap year")
	}
}

func TestNavigate(t *testing.T) {
	for _, s := range []string{"2024-02-20", "2024-12-31", "2024-01-01", "2024-02-29"} {
		anchor := mustDate(t, s)
		for _, g := range []calendar.Granularity{calendar.Week, calendar.Day} {
			next := calendar.Navigate(anchor, g, calendar.Next)
			if back := calendar.Navigate(next, g, calendar.Previous); back != anchor {
				t.Errorf("%s/%s: next then previous gave %s", s, g, back)
			}
		}
	}

	cases := []struct {
		anchor string
		g      calendar.Granularity
		dir    calendar.Direction
		want   string
	}{
		{"2024-02-20", calendar.Day, calendar.Next, "2024-02-21"},
		{"2024-12-31", calendar.Day, calendar.Next, "2025-01-01"},
		{"2024-03-01", calendar.Day, calendar.Previous, "2024-02-29"},
		{"2024-02-20", calendar.Week, calendar.Next, "2024-02-27"},
		{"2024-01-03", calendar.Week, calendar.Previous, "2023-12-27"},
		{"2024-01-31", calendar.Month, calendar.Next, "2024-02-29"},
		{"2023-01-31", calendar.Month, calendar.Next, "2023-02-28"},
		{"2024-03-31", calendar.Month, calendar.Previous, "2024-02-29"},
		{"2024-12-15", calendar.Month, calendar.Next, "2025-01-15"},
		{"2024-01-15", calendar.Month, calendar.Previous, "2023-12-15"},
		{"2024-05-31", calendar.Month, calendar.Next, "2024-06-30"},
	}
	for _, c := range cases {
		got := calendar.Navigate(mustDate(t, c.anchor), c.g, c.dir)
		if got != mustDate(t, c.want) {
			t.Errorf("Navigate(%s, %s, %s) = %s, want %s", c.anchor, c.g, c.dir, got, c.want)
		}
	}

	// month round trip holds up to clamping
	anchor := mustDate(t, "2024-01-31")
	back := calendar.Navigate(calendar.Navigate(anchor, calendar.Month, calendar.Next), calendar.Month, calendar.Previous)
	if back.Year != anchor.Year || back.Month != anchor.Month || back.Day != 29 {
		t.Errorf("month round trip gave %s", back)
	}
}

func TestViewState(t *testing.T) {
	v := calendar.NewViewState(mustDate(t, "2024-02-20"), calendar.Week)
	v.SetGranularity(calendar.Month)
	if v.Anchor() != mustDate(t, "2024-02-20") {
		t.Error("switching granularity moved the anchor")
	}
	v.Navigate(calendar.Next)
	if v.Anchor() != mustDate(t, "2024-03-20") {
		t.Errorf("got %s", v.Anchor())
	}
	v.SetGranularity(calendar.Day)
	v.Navigate(calendar.Previous)
	if v.Anchor() != mustDate(t, "2024-03-19") {
		t.Errorf("got %s", v.Anchor())
	}
	if dates := v.VisibleDates(); len(dates) != 1 || dates[0] != v.Anchor() {
		t.Errorf("day view shows %v", dates)
	}
}

func TestDateText(t *testing.T) {
	d := mustDate(t, "2024-02-05")
	text, _ := d.MarshalText()
	if string(text) != "2024-02-05" {
		t.Errorf("got %s", text)
	}
	var back calendar.Date
	if err := back.UnmarshalText(text); err != nil || back != d {
		t.Errorf("got %v, %v", back, err)
	}
	if err := back.UnmarshalText([]byte("20/02/2024")); err == nil {
		t.Error("expected error for a non ISO date")
	}
	if _, err := calendar.ParseDate("2024-02-30"); err == nil {
		t.Error("expected error for february 30")
	}
}
