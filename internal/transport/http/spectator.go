// Package http exposes the read-only spectator surface: a health probe and
// a websocket feed of session snapshots. Nothing here feeds events back
// into the game engine.
package http

import (
	"log"
	"net/http"

	"udp-trivia-service/internal/watch"

	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *watch.Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *watch.Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// Router builds the spectator mux.
func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/watch", h.ServeWatch)
	return mux
}

// ServeWatch upgrades the request and streams snapshots until the client
// disconnects.
func (h *Handler) ServeWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("watch upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "snapshot", Payload: snap}); err != nil {
				log.Printf("watch write error: %v", err)
				return
			}
		case <-readerDone:
			return
		}
	}
}
