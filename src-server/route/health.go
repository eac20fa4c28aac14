package route

import (
	"net/http"

	"advisordesk/src-server/utils"
)

func Health(muxer *http.ServeMux, as *utils.AppState) {
	type HealthRespBody struct {
		Status   string `json:"status"`
		Database bool   `json:"database"`
	}

	muxer.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthRespBody{
			Status:   "ok",
			Database: as.RawDB.PingContext(r.Context()) == nil,
		})
	})
}
