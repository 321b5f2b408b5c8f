package endpoints

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/doodlesbykumbi/pawguardian/pkg/monitor"
	"github.com/doodlesbykumbi/pawguardian/pkg/pet"
	"github.com/doodlesbykumbi/pawguardian/pkg/server"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/store"
)

// DefaultVersion is reported when the build doesn't set one
const DefaultVersion = "0.1.0"

// dashboardRuns is the number of recent runs listed on the dashboard
const dashboardRuns = 10

// HealthResponse represents the response from /healthz
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RegisterStatusEndpoints registers the dashboard and health endpoints
func RegisterStatusEndpoints(s *server.Server) {
	version := s.Version
	if version == "" {
		version = DefaultVersion
	}

	// GET / - Dashboard (no auth required)
	s.Router.HandleFunc("/", handleStatus(s.Monitor, version, s.JWTMiddleware.Enabled())).Methods("GET")

	// GET /healthz - Liveness and database connectivity
	s.Router.HandleFunc("/healthz", handleHealth(s.HealthStore)).Methods("GET")
}

func handleStatus(m *monitor.Monitor, version string, tokenRequired bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Check if JSON is requested via Accept header or format query param
		accept := r.Header.Get("Accept")
		format := r.URL.Query().Get("format")
		if format == "json" || strings.Contains(accept, "application/json") {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"version": version})
			return
		}

		catalog := m.Scenarios()
		runs, _, err := m.List(r.Context(), dashboardRuns, 0)
		if err != nil {
			log.Printf("dashboard: failed to list runs: %v", err)
			runs = nil
		}

		renderHTML(w, dashboardTemplate, dashboardData{
			Version:       version,
			Scenarios:     catalog.All(),
			Default:       catalog.Default().Key,
			Pet:           pet.Default(),
			Breeds:        pet.BreedChoices,
			Bounds:        formBounds(),
			Runs:          runs,
			TokenRequired: tokenRequired,
		})
	}
}

func handleHealth(healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if healthStore != nil {
			if err := healthStore.CheckConnectivity(r.Context()); err != nil {
				respondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{
					Status: "error",
					Error:  "database connectivity check failed",
				})
				return
			}
		}
		respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
