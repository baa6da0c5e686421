package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotAuthenticated is returned when no token has been stored yet.
	ErrNotAuthenticated = errors.New("auth: not authenticated")

	// ErrMissingRefreshToken is returned by Refresh when no refresh token is stored.
	ErrMissingRefreshToken = errors.New("auth: missing refresh token")

	// ErrInvalidState is returned by Callback when the state parameter does not
	// match the flow that was started.
	ErrInvalidState = errors.New("auth: invalid state parameter")

	// ErrNoInstanceURL is returned when a relative path cannot be resolved.
	ErrNoInstanceURL = errors.New("auth: no instance URL to resolve request against")
)

// APIErrorItem is one entry of the error list the API returns.
type APIErrorItem struct {
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Fields    []string `json:"fields,omitempty"`
}

// APIError is returned by Request for non-2xx responses.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Errors     []APIErrorItem
	Body       []byte
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.ErrorCode != "" {
			msgs = append(msgs, item.ErrorCode+": "+item.Message)
		} else {
			msgs = append(msgs, item.Message)
		}
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, strings.Join(msgs, "; "))
}

// HasCode reports whether the response carried the given error code.
func (e *APIError) HasCode(code string) bool {
	for _, item := range e.Errors {
		if item.ErrorCode == code {
			return true
		}
	}
	return false
}

// CallbackError is returned by Callback when the authorization server
// reported an error or the callback is incomplete.
type CallbackError struct {
	Code        string
	Description string
}

func (e *CallbackError) Error() string {
	if e.Description == "" {
		return "authorization failed: " + e.Code
	}
	return fmt.Sprintf("authorization failed: %s: %s", e.Code, e.Description)
}

// ErrMissingDependency is returned when a flow was built without a
// collaborator the called method needs.
var ErrMissingDependency = errors.New("auth: missing dependency")

func missingDependency(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingDependency, name)
}
