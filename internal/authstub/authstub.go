// Package authstub names the authentication boundary this module hands
// to an external collaborator rather than implementing: token-based
// HTTP auth in front of the WebSocket upgrade, and any auth beyond the
// single shared SSH password already built into sshbridge. Non-goal per
// spec.md §1 — these interfaces exist so a caller can wire a real
// implementation without reaching into internal packages.
package authstub

import "net/http"

// TokenValidator checks a bearer token carried on an HTTP request
// (e.g. the WebSocket upgrade's Authorization header or ?token= query
// parameter) before the request reaches the session registry.
type TokenValidator interface {
	Validate(r *http.Request) (subject string, ok bool)
}

// PasswordAuthenticator checks a username/password pair, for deployments
// that need more than sshbridge's single shared password.
type PasswordAuthenticator interface {
	Authenticate(username, password string) bool
}
