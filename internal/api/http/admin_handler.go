package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"lockerhub-backend/internal/domain"
	"lockerhub-backend/internal/service"
)

// AdminHandler serves operator-facing statistics and maintenance endpoints.
type AdminHandler struct {
	stats     service.StatisticsService
	inventory service.InventoryService
}

func NewAdminHandler(stats service.StatisticsService, inventory service.InventoryService) *AdminHandler {
	return &AdminHandler{stats: stats, inventory: inventory}
}

func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.stats.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// RebuildStatistics recounts everything from the source of truth and
// returns the fresh snapshot.
func (h *AdminHandler) RebuildStatistics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.stats.Rebuild(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type maintenanceRequest struct {
	On bool `json:"on"`
}

// SetMaintenance pulls a locker out of service or restores it.
func (h *AdminHandler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("bad request body: %w", domain.ErrValidation))
		return
	}

	if err := h.inventory.SetMaintenance(r.Context(), mux.Vars(r)["id"], req.On); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"maintenance": req.On})
}
