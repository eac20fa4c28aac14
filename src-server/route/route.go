package route

import (
	"net/http"

	"advisordesk/src-server/utils"
)

// Register mounts every route on muxer. The static web client goes last
// since it catches all remaining GET paths.
func Register(muxer *http.ServeMux, as *utils.AppState) {
	sessions := newCalendarSessions(as)

	Health(muxer, as)
	Auth(muxer, as)
	Events(muxer, as, sessions)
	Tasks(muxer, as)
	Calendar(muxer, as, sessions)
	SPA(muxer, as)
}

// Wrap applies the middleware shared by every route. Preflights are
// answered before they count against the rate limit.
func Wrap(as *utils.AppState, handler http.Handler) http.Handler {
	return CORS(as, NewRateLimiter(as).Middleware(LimitBody(handler)))
}
