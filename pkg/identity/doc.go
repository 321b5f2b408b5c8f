// Package identity describes the caller of an API request.
//
// When an API token key is configured, POST /api/runs requires an HS256
// bearer token issued by `pawguardian token issue`. The middleware verifies
// it and stores an Identity in the request context:
//
//	id, ok := identity.Get(r.Context())
//	if ok && !id.Anonymous() {
//	    log.Printf("run requested by %s", id.Subject)
//	}
package identity
