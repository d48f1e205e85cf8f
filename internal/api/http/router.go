package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"lockerhub-backend/internal/security"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Rentals      *RentalHandler
	Reservations *ReservationHandler
	Locations    *LocationHandler
	Admin        *AdminHandler
	Health       http.HandlerFunc
}

// NewRouter wires the full route table. Everything under /v1 requires a
// bearer token; /healthz stays open for probes.
func NewRouter(h Handlers, tokens security.TokenManager) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(AuthMiddleware(tokens))

	v1.HandleFunc("/rentals", h.Rentals.Create).Methods(http.MethodPost)
	v1.HandleFunc("/rentals", h.Rentals.List).Methods(http.MethodGet)
	v1.HandleFunc("/rentals/{id}", h.Rentals.Get).Methods(http.MethodGet)
	v1.HandleFunc("/rentals/{id}/activate", h.Rentals.Activate).Methods(http.MethodPost)
	v1.HandleFunc("/rentals/{id}/end", h.Rentals.End).Methods(http.MethodPost)
	v1.HandleFunc("/rentals/{id}/cancel", h.Rentals.Cancel).Methods(http.MethodPost)

	v1.HandleFunc("/reservations", h.Reservations.Create).Methods(http.MethodPost)
	v1.HandleFunc("/reservations", h.Reservations.List).Methods(http.MethodGet)
	v1.HandleFunc("/reservations/{id}", h.Reservations.Get).Methods(http.MethodGet)
	v1.HandleFunc("/reservations/{id}/confirm", h.Reservations.Confirm).Methods(http.MethodPost)
	v1.HandleFunc("/reservations/{id}/cancel", h.Reservations.Cancel).Methods(http.MethodPost)
	v1.HandleFunc("/reservations/{id}/convert", h.Reservations.Convert).Methods(http.MethodPost)

	v1.HandleFunc("/locations", h.Locations.List).Methods(http.MethodGet)
	v1.HandleFunc("/locations/{id}/availability", h.Locations.Availability).Methods(http.MethodGet)

	v1.HandleFunc("/admin/statistics", h.Admin.Statistics).Methods(http.MethodGet)
	v1.HandleFunc("/admin/statistics/rebuild", h.Admin.RebuildStatistics).Methods(http.MethodPost)
	v1.HandleFunc("/admin/lockers/{id}/maintenance", h.Admin.SetMaintenance).Methods(http.MethodPost)

	return r
}

// HealthHandler reports liveness of the two backing stores.
func HealthHandler(pingers ...func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, ping := range pingers {
			if err := ping(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
