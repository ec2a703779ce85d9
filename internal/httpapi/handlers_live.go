package httpapi

import (
	"errors"
	"net/http"

	"github.com/Rasheed893/biotime-live-view/internal/livefeed"
)

func (s *Server) requireLive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.live == nil {
			writeJSON(w, http.StatusNotFound, errorBody{Message: "live feed disabled"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLiveSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.live.Snapshot())
}

func (s *Server) handleLivePause(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.live.Pause())
}

func (s *Server) handleLiveResume(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.live.Resume())
}

func (s *Server) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		fail(w, r, errors.New("live stream not configured"))
		return
	}
	up := livefeed.NewUpgrader(s.origins)
	s.hub.Handler(up, func() livefeed.Message {
		return livefeed.Message{Type: livefeed.MessageTypeSnapshot, Data: s.live.Snapshot()}
	})(w, r)
}
