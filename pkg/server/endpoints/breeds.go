package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/pawguardian/pkg/pet"
	"github.com/doodlesbykumbi/pawguardian/pkg/server"
)

// BreedsResponse represents the response from /api/breeds
type BreedsResponse struct {
	Breeds  []string    `json:"breeds"`
	Custom  string      `json:"custom"`
	Default pet.Profile `json:"default"`
	Bounds  Bounds      `json:"bounds"`
}

// RegisterBreedsEndpoints registers the pet profile form endpoint
func RegisterBreedsEndpoints(s *server.Server) {
	s.Router.HandleFunc("/api/breeds", handleBreeds()).Methods("GET")
}

func handleBreeds() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, BreedsResponse{
			Breeds:  pet.BreedChoices,
			Custom:  pet.BreedCustom,
			Default: pet.Default(),
			Bounds:  formBounds(),
		})
	}
}
