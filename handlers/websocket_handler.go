package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/kfupm-ics/soccer-tournament/live"
)

type WebSocketHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler builds the live subscription endpoint. The websocket
// handshake enforces the same origin allowlist as the CORS layer; requests
// without an Origin header (non-browser clients) are let through.
func NewWebSocketHandler(hub *live.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[strings.TrimSuffix(origin, "/")] = true
	}

	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || wildcard {
					return true
				}
				return allowed[strings.TrimSuffix(origin, "/")]
			},
		},
	}
}

// Subscribe attaches the client to a tournament's live room:
// GET /ws/tournaments/{trID}
func (h *WebSocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, fmt.Sprintf("tr-%d", trID))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
