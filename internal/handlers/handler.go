package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/relay"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	relay        *relay.Relay
	bridge       *relay.FileBridge
	store        store.MessageStore
	log          zerolog.Logger
	writeTimeout time.Duration
}

// NewHandler creates a new Handler.
func NewHandler(r *relay.Relay, bridge *relay.FileBridge, st store.MessageStore, log zerolog.Logger, writeTimeout time.Duration) *Handler {
	return &Handler{
		relay:        r,
		bridge:       bridge,
		store:        st,
		log:          log,
		writeTimeout: writeTimeout,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
