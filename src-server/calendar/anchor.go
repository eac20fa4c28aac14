package calendar

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// AnchorParser turns user input such as "2024-02-20", "next friday" or
// "in 2 weeks" into an anchor date.
type AnchorParser struct {
	when *when.Parser
}

func NewAnchorParser() *AnchorParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &AnchorParser{when: w}
}

// Parse resolves text relative to today. Anything it can't read is a
// ValidationError on the "anchor" field.
func (p *AnchorParser) Parse(text string, today Date) (Date, error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "today") {
		return today, nil
	}
	if d, err := ParseDate(text); err == nil {
		return d, nil
	}

	// noon keeps "tomorrow"-style offsets away from midnight edges
	base := time.Date(today.Year, today.Month, today.Day, 12, 0, 0, 0, time.UTC)
	result, err := p.when.Parse(text, base)
	if err != nil || result == nil {
		verr := &ValidationError{}
		verr.Add("anchor", "can't understand date "+`"`+text+`"`)
		return Date{}, verr
	}
	return DateOf(result.Time), nil
}
