package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dixieflatline76/rngpaper/config"
	"github.com/dixieflatline76/rngpaper/pkg/wallpaper"
	"github.com/dixieflatline76/rngpaper/util/log"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	stats := s.changer.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "running",
		"version":   config.AppVersion,
		"pending":   stats.Pending,
		"in_flight": stats.InFlight,
		"applied":   stats.Applied,
	})
}

// handleChange queues a wallpaper change.
func (s *Server) handleChange(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if !s.changer.Trigger(wallpaper.SourceAPI) {
		writeError(w, http.StatusServiceUnavailable, "change queue is full")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// handleCacheEmpty removes every cached wallpaper.
func (s *Server) handleCacheEmpty(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.changer.EmptyCache(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCacheList lists the cached wallpapers.
func (s *Server) handleCacheList(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	entries, err := s.cache.Entries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []wallpaper.CacheEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dir":     s.cache.Dir(),
		"entries": entries,
	})
}

// handleHistory returns the most recent changes, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not available")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleWebSocket upgrades the connection and keeps it registered until the client leaves.
// Clients may send {"type":"ping"} and {"type":"change"}.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	c := s.register(conn)
	defer s.unregister(c)

	for {
		var msg Event
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		var reply Event
		switch msg.Type {
		case "ping":
			reply = Event{Type: "pong"}
		case "change":
			reply = Event{Type: "rejected"}
			if s.changer.Trigger(wallpaper.SourceAPI) {
				reply = Event{Type: "queued"}
			}
		default:
			log.Debugf("Ignoring websocket message %q", msg.Type)
			continue
		}
		if !c.enqueue(reply) {
			log.Printf("Dropping %s reply for a slow websocket client", reply.Type)
		}
	}
}
