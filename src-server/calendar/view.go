package calendar

// ViewState is the granularity and anchor of one view session.
// The visible dates are derived on every read.
type ViewState struct {
	granularity Granularity
	anchor      Date
}

func NewViewState(today Date, g Granularity) *ViewState {
	if !g.Valid() {
		g = Week
	}
	return &ViewState{granularity: g, anchor: today}
}

func (v *ViewState) Granularity() Granularity { return v.granularity }
func (v *ViewState) Anchor() Date             { return v.anchor }

// SetGranularity leaves the anchor where it is.
func (v *ViewState) SetGranularity(g Granularity) {
	if g.Valid() {
		v.granularity = g
	}
}

// GoTo jumps to an arbitrary anchor.
func (v *ViewState) GoTo(anchor Date) {
	if !anchor.IsZero() {
		v.anchor = anchor
	}
}

func (v *ViewState) Navigate(dir Direction) Date {
	v.anchor = Navigate(v.anchor, v.granularity, dir)
	return v.anchor
}

func (v *ViewState) VisibleDates() []Date {
	return Compute(v.anchor, v.granularity)
}
