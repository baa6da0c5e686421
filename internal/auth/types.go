package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"forrest/internal/config"
	"forrest/internal/events"
	"forrest/internal/storage"
)

// Flow names, as returned by Client.Flow.
const (
	FlowWebServer    = config.AuthenticationWebServer
	FlowUserPassword = config.AuthenticationUserPassword
)

// Client is an authenticated API client.
type Client interface {
	// Authenticate starts (WebServer) or completes (UserPassword) authentication.
	Authenticate(ctx context.Context, opts ...AuthenticateOption) error

	// Refresh renews the stored access token.
	Refresh(ctx context.Context) error

	// Revoke revokes the stored token at the login server and forgets it.
	Revoke(ctx context.Context) error

	// Token returns the stored token.
	Token(ctx context.Context) (*Token, error)

	// Request performs an authenticated API request.
	Request(ctx context.Context, path string, opts ...RequestOption) (*Response, error)

	// Flow returns the flow name.
	Flow() string
}

// CallbackHandler is implemented by flows that complete in a browser callback.
type CallbackHandler interface {
	// Callback exchanges the authorization code of the current request and
	// returns the options passed to Authenticate.
	Callback(ctx context.Context) (map[string]any, error)
}

// Input reads a request parameter.
type Input interface {
	Get(ctx context.Context, name string) string
}

// Redirector sends the current response elsewhere.
type Redirector interface {
	To(ctx context.Context, url string) error
}

// Dependencies are the collaborators a flow is built from.
type Dependencies struct {
	HTTPClient *http.Client
	Event      events.Emitter
	Input      Input
	Redirect   Redirector
	Storage    storage.Handle
	Settings   *config.ForrestConfig
}

// Token is the stored OAuth token.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"-"`
	InstanceURL  string    `json:"instance_url,omitempty"`
	ID           string    `json:"id,omitempty"`
	IssuedAt     string    `json:"issued_at,omitempty"`
	Signature    string    `json:"signature,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

func tokenFromOAuth2(t *oauth2.Token) *Token {
	tok := &Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
	tok.InstanceURL, _ = t.Extra("instance_url").(string)
	tok.ID, _ = t.Extra("id").(string)
	tok.IssuedAt, _ = t.Extra("issued_at").(string)
	tok.Signature, _ = t.Extra("signature").(string)
	tok.Scope, _ = t.Extra("scope").(string)
	return tok
}

// Response is the result of Request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals a JSON body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}
