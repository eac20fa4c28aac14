package ical

import (
	"strings"
	"time"

	"advisordesk/src-server/calendar"

	ics "github.com/arran4/golang-ical"
)

const ProdID = "-//advisordesk//calendar//EN"

// UID is the VEVENT uid of an event id.
func UID(id string) string {
	return id + "@advisordesk"
}

// Export renders events as an iCalendar document. Events with a readable
// time of day become timed events in loc; the rest are all-day events.
func Export(name string, events []calendar.Event, loc *time.Location, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProdID)
	if name != "" {
		cal.SetName(name)
	}

	for _, e := range events {
		ev := cal.AddEvent(UID(e.ID))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(e.Title)
		if desc := description(e); desc != "" {
			ev.SetDescription(desc)
		}
		if e.Type != "" {
			ev.SetProperty(ics.ComponentPropertyCategories, e.Type)
		}

		minutes, timed := calendar.ClockMinutes(e.Time)
		if !timed {
			ev.SetAllDayStartAt(e.Date.In(loc))
			ev.SetAllDayEndAt(e.Date.AddDays(1).In(loc))
			continue
		}
		start := e.Date.At(minutes, loc)
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(time.Duration(e.Duration) * time.Minute))
	}

	return cal.Serialize()
}

func description(e calendar.Event) string {
	lines := make([]string, 0, 2)
	if e.Client != "" {
		lines = append(lines, "Client: "+e.Client)
	}
	if e.Description != "" {
		lines = append(lines, e.Description)
	}
	return strings.Join(lines, "\n")
}
