package restaurant_api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"lunch-voting/internal/auth"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"
	"lunch-voting/internal/restaurant"
	"lunch-voting/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *restaurant.Service
	Log     *logger.Logger
}

func NewHandler(svc *restaurant.Service, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Log: log}
}

// RegisterRoutes mounts the restaurant and menu endpoints. The router must
// already carry auth.Middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/restaurants", func(r chi.Router) {
		r.Get("/", h.ListRestaurants)
		r.With(auth.RequireAdmin).Post("/", h.CreateRestaurant)
		r.Get("/menu", h.TodayMenus)
		r.Get("/{restaurantId}/menu", h.ListMenus)
		r.Post("/{restaurantId}/menu", h.CreateMenu)
	})
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, restaurant.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, restaurant.ErrForbidden):
		utils.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, restaurant.ErrInvalid), errors.Is(err, utils.ErrUnexpectedFields):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, restaurant.ErrMenuExists), errors.Is(err, restaurant.ErrRestaurantExists):
		utils.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.Log.Error("RESTAURANT", fmt.Sprintf("%s %s failed: %v", r.Method, r.URL.Path, err))
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func restaurantID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "restaurantId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: restaurant id must be a positive integer", restaurant.ErrInvalid)
	}
	return id, nil
}

func (h *Handler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListRestaurants(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var req models.RestaurantRequest
	if err := utils.DecodeStrict(r.Body, &req); err != nil {
		if errors.Is(err, utils.ErrUnexpectedFields) {
			utils.WriteError(w, http.StatusBadRequest, "Unexpected fields")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.Service.CreateRestaurant(r.Context(), req)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantID(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	var req models.MenuRequest
	if err := utils.DecodeStrict(r.Body, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	menu, err := h.Service.CreateMenu(r.Context(), id, req, p.UserID, p.Admin)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, menu.ToResponse())
}

func (h *Handler) ListMenus(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantID(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	menus, err := h.Service.ByRestaurant(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if len(menus) == 0 {
		utils.WriteError(w, http.StatusNotFound, "No menus for this restaurant")
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.MenusToResponse(menus))
}

func (h *Handler) TodayMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.Service.Today(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.MenusToResponse(menus))
}
