package calendar

import (
	"fmt"
	"strings"
)

type Granularity int

const (
	Month Granularity = iota
	Week
	Day
)

func (g Granularity) String() string {
	switch g {
	case Month:
		return "month"
	case Week:
		return "week"
	case Day:
		return "day"
	}
	return fmt.Sprintf("Granularity(%d)", int(g))
}

func (g Granularity) Valid() bool {
	return g == Month || g == Week || g == Day
}

func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month":
		return Month, nil
	case "week":
		return Week, nil
	case "day":
		return Day, nil
	}
	return 0, fmt.Errorf("ParseGranularity: unknown granularity %q", s)
}

func (g Granularity) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("(Granularity).MarshalText: invalid value %d", int(g))
	}
	return []byte(g.String()), nil
}

func (g *Granularity) UnmarshalText(text []byte) error {
	parsed, err := ParseGranularity(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

type Direction int

const (
	Previous Direction = iota
	Next
)

func (d Direction) String() string {
	if d == Next {
		return "next"
	}
	return "previous"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prev", "previous":
		return Previous, nil
	case "next":
		return Next, nil
	}
	return 0, fmt.Errorf("ParseDirection: unknown direction %q", s)
}
