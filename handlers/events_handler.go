package handlers

import (
	"log"
	"net/http"
	"strings"

	"streetLearnAPI/internal/subscribe"

	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsHandler streams change-feed events over a websocket so clients
// can re-fetch the collections they render instead of polling.
type EventsHandler struct {
	broker *subscribe.Broker
}

func NewEventsHandler(broker *subscribe.Broker) *EventsHandler {
	return &EventsHandler{broker: broker}
}

// Subscribe upgrades the connection and forwards events for the
// collections in ?collections=a,b,c (all collections when omitted).
// The Clerk token rides in ?token= because browsers cannot set headers
// on a websocket handshake. The subscription is cancelled when the
// socket closes.
func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token query parameter required", http.StatusUnauthorized)
		return
	}
	if _, err := jwt.Verify(r.Context(), &jwt.VerifyParams{Token: token}); err != nil {
		log.Printf("EventsHandler: token verification failed: %v", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var collections []string
	if v := r.URL.Query().Get("collections"); v != "" {
		collections = strings.Split(v, ",")
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("EventsHandler: could not upgrade connection: %v", err)
		return
	}

	sub := h.broker.Subscribe(collections...)

	// Reader goroutine: its only job is detecting the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		sub.Cancel()
		ws.Close()
	}()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := ws.WriteJSON(ev); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
