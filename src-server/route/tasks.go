package route

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"advisordesk/src-server/calendar"
	"advisordesk/src-server/model"
	"advisordesk/src-server/utils"

	"github.com/google/uuid"
)

func Tasks(muxer *http.ServeMux, as *utils.AppState) {
	type TaskReqBody struct {
		Title     string `json:"title"`
		Due       string `json:"due"`
		Priority  string `json:"priority"`
		Completed bool   `json:"completed"`
	}

	// get all tasks
	muxer.HandleFunc("GET /tasks", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get user from middleware"))
			return
		}

		tasks, err := model.TasksOf(r.Context(), as.BunDB, user.UserID)
		if err != nil {
			slog.Error("can't list tasks", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorRespBody{Error: "Can't get tasks"})
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	}))

	// create a task
	muxer.HandleFunc("POST /tasks", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get user from middleware"))
			return
		}

		var reqBody TaskReqBody
		if !decodeBody(w, r, &reqBody) {
			return
		}

		// #region - validate
		verr := &calendar.ValidationError{}
		title := utils.CleanupString(reqBody.Title)
		if title == "" {
			verr.Add("title", "title is required")
		}
		due := strings.TrimSpace(reqBody.Due)
		if due != "" {
			if _, err := calendar.ParseDate(due); err != nil {
				verr.Add("due", "due must be formatted as YYYY-MM-DD")
			}
		}
		if err := verr.OrNil(); err != nil {
			writeError(w, err)
			return
		}
		// #endregion

		taskModel := &model.Task{
			ID:        uuid.NewString(),
			UserID:    user.UserID,
			Title:     title,
			Due:       due,
			Priority:  strings.TrimSpace(reqBody.Priority),
			Completed: reqBody.Completed,
			CreatedAt: time.Now().UTC().UnixNano(),
		}
		if err := taskModel.Upsert(r.Context(), as.BunDB); err != nil {
			slog.Error("can't create task", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorRespBody{Error: "Can't create task"})
			return
		}
		writeJSON(w, http.StatusCreated, taskModel)
	}))
}
