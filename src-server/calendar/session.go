package calendar

import "context"

// Session is one user's calendar screen: a view window over the
// collection owned by its lifecycle controller.
type Session struct {
	View       *ViewState
	Controller *Controller
}

func NewSession(ctx context.Context, repo Repository, today Date, g Granularity, opts ...Option) (*Session, error) {
	ctrl, err := NewController(ctx, repo, opts...)
	if err != nil {
		return nil, err
	}
	return &Session{
		View:       NewViewState(today, g),
		Controller: ctrl,
	}, nil
}

// Render composes the visible window against the current collection.
func (s *Session) Render() []DayEvents {
	return Compose(s.View.VisibleDates(), s.Controller.Index())
}
