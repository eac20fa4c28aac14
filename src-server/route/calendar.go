package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"advisordesk/src-server/calendar"
	"advisordesk/src-server/ical"
	"advisordesk/src-server/metric"
	"advisordesk/src-server/model"
	"advisordesk/src-server/utils"
)

const sessionIdleTimeout = 30 * time.Minute

// lockedSession serializes the requests of one user so every
// transition runs to completion before the next one starts.
type lockedSession struct {
	mu       sync.Mutex
	session  *calendar.Session
	lastUsed time.Time
}

type calendarSessions struct {
	mu       sync.Mutex
	sessions map[string]*lockedSession
}

func newCalendarSessions(as *utils.AppState) *calendarSessions {
	cs := &calendarSessions{sessions: make(map[string]*lockedSession)}

	// drop idle sessions, they are rebuilt from the store on next use
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(sessionIdleTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				return
			case <-ticker.C:
				cs.evictIdle(time.Now())
			}
		}
	}()

	return cs
}

func (cs *calendarSessions) evictIdle(now time.Time) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for userID, ls := range cs.sessions {
		if !ls.mu.TryLock() {
			continue
		}
		if now.Sub(ls.lastUsed) > sessionIdleTimeout {
			delete(cs.sessions, userID)
			slog.Debug("calendar session evicted", "user_id", userID)
		}
		ls.mu.Unlock()
	}
}

// acquire returns the locked session of userID, loading it on first use.
// The caller must unlock it.
func (cs *calendarSessions) acquire(ctx context.Context, as *utils.AppState, userID string) (*lockedSession, error) {
	cs.mu.Lock()
	ls, ok := cs.sessions[userID]
	if !ok {
		session, err := calendar.NewSession(ctx,
			model.NewEventStore(as.BunDB, userID, metric.ObserveStore),
			as.Config.Today(),
			as.Config.GetDefaultGranularity(),
			calendar.WithObserver(metric.ObserveTransition),
		)
		if err != nil {
			cs.mu.Unlock()
			return nil, fmt.Errorf("(*calendarSessions).acquire: %w", err)
		}
		ls = &lockedSession{session: session}
		cs.sessions[userID] = ls
	}
	// guarded by cs.mu, not ls.mu
	ls.lastUsed = time.Now()
	cs.mu.Unlock()

	ls.mu.Lock()
	return ls, nil
}

// forget drops the session of userID; the next request reloads it.
func (cs *calendarSessions) forget(userID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.sessions, userID)
}

type ViewRespBody struct {
	Granularity   calendar.Granularity `json:"granularity"`
	Anchor        calendar.Date        `json:"anchor"`
	Today         calendar.Date        `json:"today"`
	ModalMode     calendar.ModalMode   `json:"modalMode"`
	Creating      bool                 `json:"creating"`
	SelectedEvent *calendar.Event      `json:"selectedEvent"`
	Days          []calendar.DayEvents `json:"days"`
}

func viewOf(s *calendar.Session, today calendar.Date) ViewRespBody {
	state := s.Controller.State()
	body := ViewRespBody{
		Granularity: s.View.Granularity(),
		Anchor:      s.View.Anchor(),
		Today:       today,
		ModalMode:   state.Mode(),
		Days:        s.Render(),
	}
	if selected, ok := state.Selected(); ok {
		body.SelectedEvent = &selected
	}
	if editing, ok := state.(calendar.Editing); ok {
		body.Creating = editing.Creating()
	}
	return body
}

func Calendar(muxer *http.ServeMux, as *utils.AppState, sessions *calendarSessions) {
	// withSession runs fn while holding the caller's calendar session.
	// A nil error answers with the composed view.
	withSession := func(fn func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error) func(http.ResponseWriter, *http.Request) {
		return AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFrom(r)
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get user from middleware"))
				return
			}
			ls, err := sessions.acquire(r.Context(), as, user.UserID)
			if err != nil {
				writeError(w, err)
				return
			}
			defer ls.mu.Unlock()

			if err := fn(w, r, ls.session); err != nil {
				if !errors.Is(err, errAnswered) {
					writeError(w, err)
				}
				return
			}
			writeJSON(w, http.StatusOK, viewOf(ls.session, as.Config.Today()))
		})
	}

	type ViewReqBody struct {
		Granularity *string `json:"granularity"`
		Anchor      *string `json:"anchor"`
	}

	type NavigateReqBody struct {
		Direction string `json:"direction"`
	}

	// #region - view window
	muxer.HandleFunc("GET /calendar/view", withSession(
		func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error {
			return nil
		}))

	muxer.HandleFunc("POST /calendar/view", withSession(
		func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error {
			var reqBody ViewReqBody
			if !decodeBody(w, r, &reqBody) {
				return errAnswered
			}

			// parse both before touching the view
			verr := &calendar.ValidationError{}
			granularity := s.View.Granularity()
			if reqBody.Granularity != nil {
				g, err := calendar.ParseGranularity(*reqBody.Granularity)
				if err != nil {
					verr.Add("granularity", "granularity must be month, week or day")
				}
				granularity = g
			}
			anchor := s.View.Anchor()
			if reqBody.Anchor != nil {
				a, err := as.AnchorParser.Parse(*reqBody.Anchor, as.Config.Today())
				var anchorErr *calendar.ValidationError
				switch {
				case errors.As(err, &anchorErr):
					verr.Merge(anchorErr)
				case err != nil:
					verr.Add("anchor", err.Error())
				}
				anchor = a
			}
			if err := verr.OrNil(); err != nil {
				return err
			}

			s.View.SetGranularity(granularity)
			s.View.GoTo(anchor)
			return nil
		}))

	muxer.HandleFunc("POST /calendar/navigate", withSession(
		func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error {
			var reqBody NavigateReqBody
			if !decodeBody(w, r, &reqBody) {
				return errAnswered
			}
			dir, err := calendar.ParseDirection(reqBody.Direction)
			if err != nil {
				verr := &calendar.ValidationError{}
				verr.Add("direction", "direction must be previous or next")
				return verr
			}
			s.View.Navigate(dir)
			return nil
		}))
	// #endregion

	// #region - event lifecycle
	muxer.HandleFunc("POST /calendar/events/{id}/open", withSession(
		func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error {
			return s.Controller.Open(r.PathValue("id"))
		}))

	muxer.HandleFunc("POST /calendar/edit", withSession(
		func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error {
			return s.Controller.Edit()
		}))

	muxer.HandleFunc("POST /calendar/new", withSession(
		func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error {
			s.Controller.New()
			return nil
		}))

	muxer.HandleFunc("POST /calendar/submit", withSession(
		func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error {
			var patch calendar.EventPatch
			if !decodeBody(w, r, &patch) {
				return errAnswered
			}
			if patch.Client != nil {
				client := utils.CleanupString(*patch.Client)
				patch.Client = &client
			}
			_, err := s.Controller.Submit(r.Context(), patch)
			return err
		}))

	muxer.HandleFunc("POST /calendar/close", withSession(
		func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error {
			return s.Controller.Close()
		}))

	muxer.HandleFunc("POST /calendar/cancel", withSession(
		func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error {
			return s.Controller.Cancel()
		}))

	muxer.HandleFunc("POST /calendar/delete", withSession(
		func(w http.ResponseWriter, r *http.Request, s *calendar.Session) error {
			return s.Controller.Delete(r.Context())
		}))
	// #endregion

	// #region - read-only projections
	muxer.HandleFunc("GET /calendar/insights", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get user from middleware"))
			return
		}
		ls, err := sessions.acquire(r.Context(), as, user.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		insights := calendar.ClientInsights(ls.session.Controller.Events(), as.Config.Today())
		ls.mu.Unlock()

		writeJSON(w, http.StatusOK, insights)
	}))

	muxer.HandleFunc("GET /calendar/ics", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get user from middleware"))
			return
		}
		ls, err := sessions.acquire(r.Context(), as, user.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		events := make([]calendar.Event, 0)
		for _, day := range ls.session.Render() {
			events = append(events, day.Events...)
		}
		ls.mu.Unlock()

		name := user.Email
		userModel, err := model.UserByID(r.Context(), as.BunDB, user.UserID)
		switch {
		case err != nil:
			slog.Warn("can't find token owner, naming calendar by email", "user_id", user.UserID, "err", err)
		case userModel.FullName != "":
			name = userModel.FullName
		}

		body := ical.Export(name, events, as.Config.GetLocation(), time.Now())
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(body)); err != nil {
			slog.Warn("can't write to response", "where", "route/calendar.go", "err", err)
		}
	}))
	// #endregion
}
