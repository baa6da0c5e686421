package events

import (
	"context"
	"time"
)

// Name identifies an event.
type Name string

const (
	// Response is fired for every response the API client receives.
	Response Name = "forrest.response"

	// Authenticated is fired once a flow obtained and stored a token.
	Authenticated Name = "forrest.authenticated"

	// TokenRefreshed is fired after the access token was renewed.
	TokenRefreshed Name = "forrest.token.refreshed"

	// TokenRevoked is fired after the token was revoked and forgotten.
	TokenRevoked Name = "forrest.token.revoked"

	// AuthenticateRedirect is fired before the browser is sent to the authorization page.
	AuthenticateRedirect Name = "forrest.authenticate.redirect"
)

// Type is the severity of an event.
type Type string

const (
	TypeNormal  Type = "Normal"
	TypeWarning Type = "Warning"
)

// Data holds the contextual information of an event.
type Data struct {
	// Flow is the authentication flow that fired the event.
	Flow string

	// Method, URL and Status describe an API exchange.
	Method string
	URL    string
	Status int

	// Duration of the exchange, if measured.
	Duration time.Duration

	// Error is set on failures.
	Error string

	// Attributes carries event specific values, for example the
	// instance URL returned with a token.
	Attributes map[string]any
}

// Event is what listeners receive.
type Event struct {
	Name    Name
	Type    Type
	Message string
	Data    Data
	Time    time.Time
}

// Emitter is the event sink injected into an authentication flow.
type Emitter interface {
	Fire(ctx context.Context, name Name, data Data)
}

// Listener handles a fired event.
type Listener func(ctx context.Context, event Event)

// typeOf returns the severity of an event.
func typeOf(name Name, data Data) Type {
	if data.Error != "" {
		return TypeWarning
	}
	if name == Response && data.Status >= 400 {
		return TypeWarning
	}
	return TypeNormal
}
