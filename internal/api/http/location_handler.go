package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/repository"
	"lockerhub-backend/internal/service"
)

// LocationHandler serves the location directory and live availability.
type LocationHandler struct {
	locationRepo repository.LocationRepository
	inventory    service.InventoryService
}

func NewLocationHandler(locationRepo repository.LocationRepository, inventory service.InventoryService) *LocationHandler {
	return &LocationHandler{locationRepo: locationRepo, inventory: inventory}
}

type availabilityResponse struct {
	LocationID string                     `json:"location_id"`
	Available  map[domain.SizeClass]int64 `json:"available"`
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locationRepo.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"locations": locations})
}

func (h *LocationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	locationID := mux.Vars(r)["id"]
	if _, err := h.locationRepo.GetByID(r.Context(), locationID); err != nil {
		writeError(w, err)
		return
	}

	counts, err := h.inventory.AvailableCounts(r.Context(), locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{LocationID: locationID, Available: counts})
}
