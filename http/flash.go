package http

import (
	"encoding/base64"
	"net/http"
	"time"
)

const flashCookie = "flash"

// setFlash queues a one-shot user-facing message for the next rendered page.
// It survives exactly one redirect, the way framework message queues do.
func setFlash(w http.ResponseWriter, message string) {
	cookie := http.Cookie{
		Name:     flashCookie,
		Value:    base64.URLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HttpOnly: true,
	}
	http.SetCookie(w, &cookie)
}

// popFlash returns the queued message, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	expired := http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now(),
		HttpOnly: true,
	}
	http.SetCookie(w, &expired)
	message, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(message)
}
