// Package auth implements the two OAuth flows an API client can be built
// with, and the authenticated request both of them share.
//
// # Flows
//
// WebServer is the authorization-code flow. Authenticate redirects the
// browser to the login server's authorize endpoint; Callback completes the
// flow when the browser comes back with a code. The state parameter carries
// the login URL, a one-time nonce and caller supplied options. PKCE (S256)
// protects the code exchange.
//
// UserPassword is the resource-owner password flow. Authenticate exchanges
// the configured username and password directly; it never redirects.
//
// # Token persistence
//
// Tokens live in the storage.Handle the flow was built with. The access
// token is stored as sealed JSON under "token" and the refresh token
// separately under "refresh_token". With session storage every call must
// carry the request context, because the handle resolves the session from it.
//
// # Requests
//
// Request resolves relative resource paths against the instance URL of the
// token (or the configured override), prefixes them with the versioned data
// path, and retries once with a refreshed token when the server answers 401.
// Every response is fired as a forrest.response event.
package auth
