package livefeed

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rasheed893/biotime-live-view/internal/logging"
)

// NewUpgrader accepts browser connections whose Origin is listed in
// origins. "*" allows any origin; a missing Origin is always refused.
func NewUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				logging.Warn().Msg("websocket connection rejected: missing Origin header")
				return false
			}
			if slices.Contains(origins, "*") || slices.Contains(origins, origin) {
				return true
			}
			logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
			return false
		},
	}
}

// Handler upgrades the request and attaches the connection to h. initial,
// when set, supplies the first message the client receives.
func (h *Hub) Handler(up websocket.Upgrader, initial func() Message) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		var first *Message
		if initial != nil {
			m := initial()
			first = &m
		}
		NewClient(h, conn).Start(first)
	}
}
