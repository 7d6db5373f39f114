package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "flash"

const (
	flashSuccess = "success"
	flashError   = "error"
	flashInfo    = "info"
)

type flashMessage struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// setFlash queues a message for the next page render. Only one message is
// kept per redirect.
func setFlash(w http.ResponseWriter, kind, message string) {
	raw, err := json.Marshal(flashMessage{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the queued message, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *flashMessage {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var msg flashMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}
	return &msg
}
