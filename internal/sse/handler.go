package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lunch-voting/internal/clock"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"
	"lunch-voting/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Broker *Broker
	Clock  clock.Clock
	Log    *logger.Logger
}

func NewHandler(broker *Broker, clk clock.Clock, log *logger.Logger) *Handler {
	return &Handler{Broker: broker, Clock: clk, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events/votes", h.StreamVotes)
}

// StreamVotes pushes every vote committed for ?date= (default today) until the
// client disconnects.
func (h *Handler) StreamVotes(w http.ResponseWriter, r *http.Request) {
	date := h.Clock.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := clock.ParseDate(raw)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = parsed
	}
	day := date.Format(models.DateLayout)

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Streams outlive the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	setupSSEHeaders(w)
	ctx := r.Context()
	events := h.Broker.Subscribe(ctx, day)

	fmt.Fprintf(w, "event: connected\ndata: {\"date\":%q}\n\n", day)
	flusher.Flush()
	h.Log.Debug("SSE", "client subscribed to votes for "+day)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.Log.Error("SSE", fmt.Sprintf("failed to encode vote %d: %v", ev.VoteID, err))
				continue
			}
			fmt.Fprintf(w, "event: vote\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ctx.Done():
			h.Log.Debug("SSE", "client left votes stream for "+day)
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
