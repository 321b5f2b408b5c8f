package endpoints

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/pawguardian/pkg/identity"
	"github.com/doodlesbykumbi/pawguardian/pkg/monitor"
	"github.com/doodlesbykumbi/pawguardian/pkg/pet"
	"github.com/doodlesbykumbi/pawguardian/pkg/server"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/store"
)

// Pagination defaults for GET /api/runs
const (
	DefaultRunsLimit = 20
	MaxRunsLimit     = 100
)

// maxRunRequestBytes bounds the POST /api/runs body
const maxRunRequestBytes = 64 << 10

// RunRequest is the body of POST /api/runs. Omitted fields, including
// single fields of pet, take the dashboard defaults.
type RunRequest struct {
	Scenario string       `json:"scenario"`
	CarTemp  *int         `json:"car_temp"`
	Pet      *pet.Profile `json:"pet"`
}

// RunsResponse represents the response from GET /api/runs
type RunsResponse struct {
	Runs   []*monitor.Report `json:"runs"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// RegisterRunsEndpoints registers the monitoring run endpoints
func RegisterRunsEndpoints(s *server.Server) {
	m := s.Monitor

	// POST /api/runs - Start a run (API token required when configured)
	s.Router.Handle("/api/runs", s.JWTMiddleware.Middleware(handleCreateRun(m))).Methods("POST")

	s.Router.HandleFunc("/api/runs", handleListRuns(m)).Methods("GET")
	s.Router.HandleFunc("/api/runs/{id}", handleGetRun(m)).Methods("GET")

	// GET /runs/{id} - Rendered report
	s.Router.HandleFunc("/runs/{id}", handleRunPage(m)).Methods("GET")
}

// newRunRequest seeds the decode target so a partial pet object only
// overrides the fields it names
func newRunRequest() RunRequest {
	def := pet.Default()
	return RunRequest{Pet: &def}
}

func (req RunRequest) toMonitorRequest() monitor.Request {
	out := monitor.Request{
		ScenarioKey: req.Scenario,
		CarTemp:     monitor.DefaultCarTemp,
		Pet:         pet.Default(),
	}
	if req.CarTemp != nil {
		out.CarTemp = *req.CarTemp
	}
	if req.Pet != nil {
		out.Pet = *req.Pet
	}
	return out
}

func handleCreateRun(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := newRunRequest()
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRunRequestBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		req := body.toMonitorRequest()
		if id, ok := identity.Get(r.Context()); ok {
			if id.RemoteIP != nil {
				req.ClientIP = id.RemoteIP.String()
			}
			if !id.Anonymous() {
				log.Printf("run requested by %s", id.Subject)
			}
		}

		report, err := m.Run(r.Context(), req)
		if err != nil {
			if errors.Is(err, monitor.ErrInvalidRequest) {
				respondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondWithJSON(w, http.StatusCreated, report)
	}
}

func handleListRuns(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(r, "limit", DefaultRunsLimit)
		if !ok || limit == 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit > MaxRunsLimit {
			limit = MaxRunsLimit
		}
		offset, ok := queryInt(r, "offset", 0)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}

		runs, total, err := m.List(r.Context(), limit, offset)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondWithJSON(w, http.StatusOK, RunsResponse{
			Runs:   runs,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		})
	}
}

func handleGetRun(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := m.Fetch(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			if errors.Is(err, store.ErrRunNotFound) {
				respondWithError(w, http.StatusNotFound, err.Error())
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, report)
	}
}

func handleRunPage(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := m.Fetch(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			if errors.Is(err, store.ErrRunNotFound) {
				http.NotFound(w, r)
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		final, err := renderMarkdown(report.FinalReport)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		renderHTML(w, reportTemplate, reportData{
			Report:      report,
			Duration:    report.Duration(),
			FinalReport: final,
		})
	}
}
