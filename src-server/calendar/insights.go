package calendar

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type ClientSummary struct {
	Client   string `json:"client"`
	Meetings int    `json:"meetings"`
	// NextMeeting is the earliest event on or after today; zero if none.
	NextMeeting Date `json:"nextMeeting"`
}

type Insights struct {
	Clients  []ClientSummary `json:"clients"`
	ByType   map[string]int  `json:"byType"`
	Upcoming int             `json:"upcoming"`
	Total    int             `json:"total"`
}

// ClientInsights summarizes the collection for the sidebar. Clients are
// ordered by name using English collation, ignoring case.
func ClientInsights(events []Event, today Date) Insights {
	out := Insights{ByType: make(map[string]int), Total: len(events)}
	byClient := make(map[string]*ClientSummary)

	for _, e := range events {
		upcoming := !e.Date.Before(today)
		if upcoming {
			out.Upcoming++
		}
		if e.Type != "" {
			out.ByType[e.Type]++
		}

		name := strings.TrimSpace(e.Client)
		if name == "" {
			continue
		}
		summary, ok := byClient[name]
		if !ok {
			summary = &ClientSummary{Client: name}
			byClient[name] = summary
		}
		summary.Meetings++
		if upcoming && (summary.NextMeeting.IsZero() || e.Date.Before(summary.NextMeeting)) {
			summary.NextMeeting = e.Date
		}
	}

	names := make([]string, 0, len(byClient))
	for name := range byClient {
		names = append(names, name)
	}
	// names equal under collation keep byte order
	col := collate.New(language.English, collate.IgnoreCase)
	sort.Slice(names, func(i, j int) bool {
		if c := col.CompareString(names[i], names[j]); c != 0 {
			return c < 0
		}
		return names[i] < names[j]
	})

	out.Clients = make([]ClientSummary, len(names))
	for i, name := range names {
		out.Clients[i] = *byClient[name]
	}
	return out
}
