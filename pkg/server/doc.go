// Package server provides the HTTP server for PawGuardian.
//
// It uses gorilla/mux for routing and gorilla/handlers for access logging
// and, when enabled, CORS. Same-origin checks on state-changing requests are
// applied when XSRF protection is enabled.
//
// # Server Setup
//
//	srv := server.NewServer(cfg, monitor, signer, healthStore, "0.0.0.0", "8080")
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - / - dashboard (JSON version with Accept: application/json)
//   - /healthz - liveness and database connectivity
//   - /api/scenarios, /api/scenarios/{key}/video - surveillance scenarios
//   - /api/breeds - pet profile choices and bounds
//   - /api/runs, /api/runs/{id} - start and inspect monitoring runs
//   - /runs/{id} - rendered run report
package server
