package vote_api

import (
	"fmt"
	"net/http"

	"lunch-voting/internal/auth"
	"lunch-voting/internal/clock"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"
	"lunch-voting/internal/utils"
	"lunch-voting/internal/vote"

	"github.com/go-chi/chi/v5"
)

// Messages shown to clients for each rejection reason.
var rejections = map[vote.Reason]struct {
	status int
	detail string
}{
	vote.ReasonMenuNotFound: {http.StatusBadRequest, "The menu does not exist."},
	vote.ReasonAlreadyVoted: {http.StatusConflict, "You have already voted for this menu."},
	vote.ReasonVotingClosed: {http.StatusBadRequest, "Voting for this menu is closed."},
}

type Handler struct {
	Gate  *vote.Gate
	Tally *vote.Tally
	Log   *logger.Logger
}

func NewHandler(gate *vote.Gate, tally *vote.Tally, log *logger.Logger) *Handler {
	return &Handler{Gate: gate, Tally: tally, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/vote", func(r chi.Router) {
		r.Post("/", h.CastVote)
		r.Get("/", h.Statistics)
		r.Get("/statistics", h.Statistics)
		r.Get("/today", h.TodayWinners)
	})
}

func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.VoteRequest
	if err := utils.DecodeStrict(r.Body, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MenuID <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "menu is required")
		return
	}

	res, err := h.Gate.Cast(r.Context(), userID, req.MenuID)
	if err != nil {
		h.Log.Error("VOTE", fmt.Sprintf("vote by %s for menu %d failed: %v", userID, req.MenuID, err))
		utils.WriteError(w, http.StatusServiceUnavailable, "vote could not be recorded, try again")
		return
	}

	if !res.Accepted() {
		rej, ok := rejections[res.Reason]
		if !ok {
			rej.status, rej.detail = http.StatusBadRequest, string(res.Reason)
		}
		utils.WriteJSON(w, rej.status, utils.ErrorBody{Error: rej.detail, Reason: string(res.Reason)})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, models.VoteResponse{
		ID:     res.VoteID,
		UserID: userID,
		MenuID: req.MenuID,
	})
}

// Statistics reports today's tally, or the tally of ?date=YYYY-MM-DD.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	date := h.Tally.Clock.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := clock.ParseDate(raw)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = parsed
	}

	stats, err := h.Tally.Statistics(r.Context(), date)
	if err != nil {
		h.serverError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) TodayWinners(w http.ResponseWriter, r *http.Request) {
	menus, err := h.Tally.TodayWinners(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.MenusToResponse(menus))
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.Log.Error("VOTE", fmt.Sprintf("tally failed: %v", err))
	utils.WriteError(w, http.StatusInternalServerError, "statistics unavailable")
}
