package calendar

import "sort"

// EventQuery answers "which events fall on day d".
type EventQuery interface {
	EventsOn(d Date) []Event
}

// Index is a read-only, day-keyed projection of an event collection.
// It is rebuilt from the collection and never written to directly.
type Index struct {
	byDate map[Date][]Event
}

// NewIndex buckets events by date. Within a day events are ordered by
// time ascending; events whose time doesn't parse go last. Ties keep
// the input order.
func NewIndex(events []Event) *Index {
	idx := &Index{byDate: make(map[Date][]Event)}
	for _, e := range events {
		idx.byDate[e.Date] = append(idx.byDate[e.Date], e)
	}
	for _, bucket := range idx.byDate {
		sort.SliceStable(bucket, func(i, j int) bool {
			return timeLess(bucket[i].Time, bucket[j].Time)
		})
	}
	return idx
}

// EventsOn never returns nil; days without events give an empty slice.
func (idx *Index) EventsOn(d Date) []Event {
	if idx == nil {
		return []Event{}
	}
	bucket := idx.byDate[d]
	out := make([]Event, len(bucket))
	copy(out, bucket)
	return out
}

func timeLess(a, b string) bool {
	am, aok := ClockMinutes(a)
	bm, bok := ClockMinutes(b)
	switch {
	case aok && bok:
		return am < bm
	case aok:
		return true
	default:
		return false
	}
}
