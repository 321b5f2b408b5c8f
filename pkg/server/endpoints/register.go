package endpoints

import (
	"github.com/doodlesbykumbi/pawguardian/pkg/server"
)

// RegisterAll registers all endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)
	RegisterScenariosEndpoints(srv)
	RegisterBreedsEndpoints(srv)
	RegisterRunsEndpoints(srv)

	// Static files
	RegisterStaticFiles(srv)
}
