package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const sessionContextKey contextKey = "session"

func sessionFrom(ctx context.Context) *session {
	sess, _ := ctx.Value(sessionContextKey).(*session)
	return sess
}

// requestID tags every request with an id for log correlation
func (h *handlers) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		id := req.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		res.Header().Set("X-Request-ID", id)
		next.ServeHTTP(res, req.WithContext(
			context.WithValue(req.Context(), contextKey("requestID"), id)))
	})
}

// accessLog logs every handled request
func (h *handlers) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(res, req)
		log.Infof("%s %s (%s)", req.Method, req.URL.Path, time.Since(start))
	})
}

// withSession resolves the session cookie and rejects requests
// without a valid session
func (h *handlers) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		cookie, err := req.Cookie(sessionCookie)
		if err != nil {
			writeError(res, http.StatusUnauthorized, "auth", "not logged in")
			return
		}
		sess, err := h.sessions.resolve(cookie.Value)
		if err != nil {
			writeError(res, http.StatusUnauthorized, "auth", "session expired, log in again")
			return
		}
		next.ServeHTTP(res, req.WithContext(
			context.WithValue(req.Context(), sessionContextKey, sess)))
	})
}
