// Package web adapts net/http to the collaborators an authentication flow
// expects from its host: an input source (query and form values), a redirect
// sink and a per-request session.
//
// A request is bound to its context by Middleware (or WithRequest for hosts
// that manage their own writer). Session mutations are collected on the
// binding and saved once, just before the response header goes out.
package web
