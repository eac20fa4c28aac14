package route

import (
	"log/slog"
	"net/http"

	"advisordesk/src-server/calendar"
	"advisordesk/src-server/metric"
	"advisordesk/src-server/model"
	"advisordesk/src-server/utils"

	"github.com/google/uuid"
)

// Events is the plain REST surface over the caller's records. Listing
// keeps insertion order.
func Events(muxer *http.ServeMux, as *utils.AppState, sessions *calendarSessions) {
	muxer.HandleFunc("GET /events", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get user from middleware"))
			return
		}

		events, err := model.NewEventStore(as.BunDB, user.UserID, metric.ObserveStore).List(r.Context())
		if err != nil {
			slog.Error("can't list events", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorRespBody{Error: "Can't get events"})
			return
		}
		writeJSON(w, http.StatusOK, events)
	}))

	muxer.HandleFunc("POST /events", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get user from middleware"))
			return
		}

		var patch calendar.EventPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		if patch.Client != nil {
			client := utils.CleanupString(*patch.Client)
			patch.Client = &client
		}
		candidate, err := patch.Apply(calendar.Event{ID: uuid.NewString()})
		if err != nil {
			writeError(w, err)
			return
		}

		// hold the session so its view can't interleave with the write
		ls, err := sessions.acquire(r.Context(), as, user.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		defer ls.mu.Unlock()

		created, err := model.NewEventStore(as.BunDB, user.UserID, metric.ObserveStore).Create(r.Context(), candidate)
		if err != nil {
			slog.Error("can't create event", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorRespBody{Error: "Failed to create event"})
			return
		}
		if err := ls.session.Controller.Reload(r.Context()); err != nil {
			slog.Warn("can't refresh calendar session, dropping it", "user_id", user.UserID, "error", err)
			sessions.forget(user.UserID)
		}

		writeJSON(w, http.StatusCreated, created)
	}))
}
