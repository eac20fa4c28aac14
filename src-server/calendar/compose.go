package calendar

// DayEvents is one rendered cell: a visible date and its events.
type DayEvents struct {
	Date   Date    `json:"date"`
	Events []Event `json:"events"`
}

// Compose pairs every visible date with q.EventsOn(date), keeping the
// order of dates. It reads q on every call and keeps nothing.
func Compose(dates []Date, q EventQuery) []DayEvents {
	out := make([]DayEvents, len(dates))
	for i, d := range dates {
		out[i] = DayEvents{Date: d, Events: q.EventsOn(d)}
	}
	return out
}
