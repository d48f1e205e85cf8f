package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/service"
)

// RentalHandler exposes the rental lifecycle over HTTP
type RentalHandler struct {
	rentals service.RentalService
}

func NewRentalHandler(rentals service.RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

type createRentalRequest struct {
	LocationID    string `json:"location_id"`
	SizeClass     string `json:"size_class"`
	PlanTier      string `json:"plan_tier"`
	DurationClass string `json:"duration_class"`
}

type listRentalsResponse struct {
	Rentals []domain.Rental `json:"rentals"`
	Total   int32           `json:"total"`
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createRentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("bad request body: %w", domain.ErrValidation))
		return
	}

	rt, err := h.rentals.RequestRental(r.Context(), userID, req.LocationID,
		domain.SizeClass(req.SizeClass), domain.PlanTier(req.PlanTier), domain.DurationClass(req.DurationClass))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *RentalHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.rentals.ActivateRental)
}

func (h *RentalHandler) End(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.rentals.EndRental)
}

func (h *RentalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.rentals.CancelRental)
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.rentals.GetRental)
}

func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	status := r.URL.Query().Get("status")
	page := queryInt32(r, "page", 1)
	pageSize := queryInt32(r, "page_size", 20)

	rentals, total, err := h.rentals.ListRentals(r.Context(), userID, status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listRentalsResponse{Rentals: rentals, Total: total})
}

type rentalOp func(ctx context.Context, userID string, rentalID uuid.UUID) (*domain.Rental, error)

func (h *RentalHandler) transition(w http.ResponseWriter, r *http.Request, op rentalOp) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	rentalID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, fmt.Errorf("bad rental id: %w", domain.ErrValidation))
		return
	}

	rt, err := op(r.Context(), userID, rentalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func queryInt32(r *http.Request, name string, def int32) int32 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return def
	}
	return int32(val)
}
