// Package server exposes an API client over HTTP.
//
// # Endpoints
//
//   - GET  /authenticate  starts authentication; the WebServer flow redirects
//     to the login server, the UserPassword flow authenticates in place
//   - GET  /callback      completes the WebServer flow
//   - POST /revoke        revokes the stored token
//   - ANY  /api/...       forwards to the API with the stored token, the
//     remainder of the path resolved against the instance URL
//   - GET  /events        recently fired events
//   - GET  /metrics       Prometheus metrics
//   - GET  /health        liveness
//
// Paths other than /health and /events come from the server section of the
// configuration. Every route runs inside web.Middleware, so the session of
// the request is available to session-backed token storage.
package server
