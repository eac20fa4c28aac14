package calendar

import (
	"strconv"
	"strings"
)

// Event is one scheduled appointment. Time and Duration are advisory.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        Date   `json:"date"`
	Time        string `json:"time"`
	Duration    int    `json:"duration"` // minutes
	Type        string `json:"type"`
	Client      string `json:"client,omitempty"`
	Description string `json:"description,omitempty"`
}

func (e Event) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(e.Title) == "" {
		verr.Add("title", "title is required")
	}
	if e.Date.IsZero() {
		verr.Add("date", "date is required")
	}
	if e.Duration < 0 {
		verr.Add("duration", "duration can't be negative")
	}
	return verr.OrNil()
}

// EventPatch holds the fields of a submitted edit form. Nil fields were
// not submitted and keep their previous value on merge.
type EventPatch struct {
	Title       *string `json:"title,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Duration    *int    `json:"duration,omitempty"`
	Type        *string `json:"type,omitempty"`
	Client      *string `json:"client,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Apply merges p over base and validates the result. base.ID is kept as is.
func (p EventPatch) Apply(base Event) (Event, error) {
	out := base
	verr := &ValidationError{}
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Date != nil {
		switch strings.TrimSpace(*p.Date) {
		case "":
			out.Date = Date{}
		default:
			d, err := ParseDate(strings.TrimSpace(*p.Date))
			if err != nil {
				verr.Add("date", "date must be formatted as YYYY-MM-DD")
			}
			out.Date = d
		}
	}
	if p.Time != nil {
		out.Time = strings.TrimSpace(*p.Time)
	}
	if p.Duration != nil {
		out.Duration = *p.Duration
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Client != nil {
		out.Client = *p.Client
	}
	if p.Description != nil {
		out.Description = *p.Description
	}

	if err := out.Validate(); err != nil {
		verr.Merge(err.(*ValidationError))
	}
	if err := verr.OrNil(); err != nil {
		return base, err
	}
	return out, nil
}

// ClockMinutes parses "H:MM", "HH:MM" or "HH:MM:SS" into minutes after midnight.
func ClockMinutes(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) > 2 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, false
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 || len(parts[2]) != 2 {
			return 0, false
		}
	}
	return h*60 + m, true
}
