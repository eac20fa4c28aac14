package route

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"advisordesk/src-server/jwt"
	"advisordesk/src-server/utils"

	"golang.org/x/time/rate"
)

type UserCtxKeyType string

const (
	UserCtxKey UserCtxKeyType = "user"

	maxBodyBytes = 10 << 10
)

// AuthMiddleware accepts "Authorization: Bearer <token>" and puts the
// token payload into the request context under UserCtxKey.
func AuthMiddleware(as *utils.AppState, next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		token := func() string {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
				return ""
			}
			return strings.TrimSpace(header[7:])
		}()
		if token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Access token required"))
			return
		}

		payload, err := jwt.Decode(token, as.Config.GetJWTSecret())
		if err != nil {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("Invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), UserCtxKey, payload)
		next(w, r.WithContext(ctx))
	}
}

func userFrom(r *http.Request) (*jwt.Payload, bool) {
	payload, ok := r.Context().Value(UserCtxKey).(*jwt.Payload)
	return payload, ok && payload != nil
}

// CORS allows the configured web client origin and answers preflights.
func CORS(as *utils.AppState, next http.Handler) http.Handler {
	origin := as.Config.GetFrontendURL()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Origin") == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LimitBody caps request bodies at 10kb.
func LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows each client address RATE_LIMIT_REQUESTS requests per
// RATE_LIMIT_WINDOW, refilled evenly across the window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	every   rate.Limit
	burst   int
	window  time.Duration
}

func NewRateLimiter(as *utils.AppState) *RateLimiter {
	requests, window := as.Config.GetRateLimitRequests(), as.Config.GetRateLimitWindow()
	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		burst:   requests,
		window:  window,
	}
	if requests == 0 {
		return rl
	}
	rl.every = rate.Every(window / time.Duration(requests))

	// a client idle for a whole window is back to a full bucket anyway
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				return
			case now := <-ticker.C:
				rl.forgetIdle(now)
			}
		}
	}()
	return rl
}

func (rl *RateLimiter) forgetIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for addr, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.window {
			delete(rl.clients, addr)
		}
	}
}

func (rl *RateLimiter) allow(addr string, now time.Time) bool {
	rl.mu.Lock()
	c, ok := rl.clients[addr]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.clients[addr] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()
	return c.limiter.AllowN(now, 1)
}

// one token's refill time, rounded up
func (rl *RateLimiter) retryAfterSeconds() int {
	return int(math.Ceil((rl.window / time.Duration(rl.burst)).Seconds()))
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl.burst == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			addr = r.RemoteAddr
		}
		if !rl.allow(addr, time.Now()) {
			slog.Debug("rate limited", "addr", addr, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			writeJSON(w, http.StatusTooManyRequests, errorRespBody{Error: "Too many requests, please try again later"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
