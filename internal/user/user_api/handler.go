package user_api

import (
	"errors"
	"fmt"
	"net/http"

	"lunch-voting/internal/auth"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"
	"lunch-voting/internal/user"
	"lunch-voting/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *user.Service
	Log     *logger.Logger
}

func NewHandler(svc *user.Service, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Log: log}
}

// RegisterRoutes mounts /auth. requireAuth guards admin registration.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.With(requireAuth, auth.RequireAdmin).Post("/register/admin", h.RegisterAdmin)
		r.Post("/token", h.Token)
		r.Post("/token/refresh", h.Refresh)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, false)
}

func (h *Handler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, true)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, admin bool) {
	var req models.RegisterRequest
	if err := utils.DecodeStrict(r.Body, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.Service.Register(r.Context(), req, admin)
	var verr *user.ValidationError
	switch {
	case err == nil:
		utils.WriteJSON(w, http.StatusCreated, resp)
	case errors.As(err, &verr):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorBody{Error: "Invalid data", Errors: verr.Fields})
	case errors.Is(err, user.ErrUsernameTaken):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorBody{Error: "Invalid data", Errors: map[string]string{"username": err.Error()}})
	case errors.Is(err, user.ErrEmailTaken):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorBody{Error: "Invalid data", Errors: map[string]string{"email": err.Error()}})
	default:
		h.Log.Error("USER", fmt.Sprintf("registration failed: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := utils.DecodeStrict(r.Body, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.Service.Login(r.Context(), req)
	switch {
	case err == nil:
		utils.WriteJSON(w, http.StatusOK, pair)
	case errors.Is(err, user.ErrInvalidCredentials):
		utils.WriteError(w, http.StatusUnauthorized, err.Error())
	default:
		h.Log.Error("USER", fmt.Sprintf("login failed: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := utils.DecodeStrict(r.Body, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.Service.Refresh(req)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	utils.WriteJSON(w, http.StatusOK, pair)
}
