package endpoints

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/pawguardian/pkg/monitor"
	"github.com/doodlesbykumbi/pawguardian/pkg/scenario"
	"github.com/doodlesbykumbi/pawguardian/pkg/server"
)

// ScenariosResponse represents the response from /api/scenarios
type ScenariosResponse struct {
	Default   string              `json:"default"`
	Scenarios []scenario.Scenario `json:"scenarios"`
}

// VideoResponse represents the response from /api/scenarios/{key}/video
type VideoResponse struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
}

// RegisterScenariosEndpoints registers the scenario catalog endpoints
func RegisterScenariosEndpoints(s *server.Server) {
	s.Router.HandleFunc("/api/scenarios", handleListScenarios(s.Monitor)).Methods("GET")
	s.Router.HandleFunc("/api/scenarios/{key}/video", handleScenarioVideo(s.Monitor, s.Signer)).Methods("GET")
}

func handleListScenarios(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog := m.Scenarios()
		respondWithJSON(w, http.StatusOK, ScenariosResponse{
			Default:   catalog.Default().Key,
			Scenarios: catalog.All(),
		})
	}
}

func handleScenarioVideo(m *monitor.Monitor, signer server.VideoSigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]

		sc, err := m.Scenarios().Lookup(key)
		if err != nil {
			if errors.Is(err, scenario.ErrUnknownScenario) {
				respondWithError(w, http.StatusNotFound, err.Error())
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		url, err := signer.URLFor(r.Context(), sc.URI)
		if err != nil {
			log.Printf("video: failed to sign %s: %v", sc.URI, err)
			respondWithError(w, http.StatusBadGateway, "ビデオの読み込みに失敗しました")
			return
		}

		respondWithJSON(w, http.StatusOK, VideoResponse{
			Key:      sc.Key,
			URL:      url,
			MIMEType: scenario.VideoMIMEType,
		})
	}
}
