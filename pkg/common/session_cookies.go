package common

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const SessionCookieName = "sid"

// SessionTracker is told about sessions that did not carry a cookie.
type SessionTracker interface {
	TrackSession(sessionId string, r *http.Request)
}

func generateSessionId() string {
	return uuid.NewString()
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionId string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionId,
		Domain:   strings.TrimPrefix(hostname(r.Host), "."),
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 30,
		Path:     "/",
	})
}

func hostname(host string) string {
	if h, _, found := strings.Cut(host, ":"); found {
		return h
	}
	return host
}

// HandleSessionCookie returns the session id of the request, issuing a new cookie
// when it is missing or malformed.
func HandleSessionCookie(tracker SessionTracker, w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	sessionId := generateSessionId()
	if tracker != nil {
		go tracker.TrackSession(sessionId, r)
	}
	setSessionCookie(w, r, sessionId)
	return sessionId
}
