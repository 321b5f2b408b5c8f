// Package endpoints registers the PawGuardian HTTP handlers on a
// server.Server. Handlers are closures over the dependencies they use so
// they can be tested with httptest and an in-memory store.
package endpoints
