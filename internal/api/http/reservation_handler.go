package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/service"
)

// ReservationHandler exposes advance booking over HTTP
type ReservationHandler struct {
	reservations service.ReservationService
}

func NewReservationHandler(reservations service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

type createReservationRequest struct {
	LocationID string   `json:"location_id"`
	SizeClass  string   `json:"size_class"`
	Dates      []string `json:"dates"`
}

type convertReservationRequest struct {
	PlanTier      string `json:"plan_tier"`
	DurationClass string `json:"duration_class"`
}

type listReservationsResponse struct {
	Reservations []domain.Reservation `json:"reservations"`
	Total        int32                `json:"total"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("bad request body: %w", domain.ErrValidation))
		return
	}

	res, err := h.reservations.CreateReservation(r.Context(), userID, req.LocationID,
		domain.SizeClass(req.SizeClass), req.Dates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, reservationID, err := h.identify(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.reservations.ConfirmReservation(r.Context(), userID, reservationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, reservationID, err := h.identify(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.reservations.CancelReservation(r.Context(), userID, reservationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Convert turns a confirmed reservation into a live rental on arrival.
func (h *ReservationHandler) Convert(w http.ResponseWriter, r *http.Request) {
	userID, reservationID, err := h.identify(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req convertReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("bad request body: %w", domain.ErrValidation))
		return
	}

	rt, err := h.reservations.ConvertToRental(r.Context(), userID, reservationID,
		domain.PlanTier(req.PlanTier), domain.DurationClass(req.DurationClass))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, reservationID, err := h.identify(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.reservations.GetReservation(r.Context(), userID, reservationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	status := r.URL.Query().Get("status")
	page := queryInt32(r, "page", 1)
	pageSize := queryInt32(r, "page_size", 20)

	reservations, total, err := h.reservations.ListReservations(r.Context(), userID, status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listReservationsResponse{Reservations: reservations, Total: total})
}

func (h *ReservationHandler) identify(r *http.Request) (string, uuid.UUID, error) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		return "", uuid.Nil, err
	}
	reservationID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("bad reservation id: %w", domain.ErrValidation)
	}
	return userID, reservationID, nil
}
