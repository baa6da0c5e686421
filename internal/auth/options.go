package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// AuthenticateOption customizes Authenticate.
type AuthenticateOption func(*authenticateOptions)

type authenticateOptions struct {
	loginURL string
	state    map[string]any
}

// WithLoginURL authenticates against another login server, for example a
// sandbox or a custom domain.
func WithLoginURL(loginURL string) AuthenticateOption {
	return func(o *authenticateOptions) {
		o.loginURL = strings.TrimSuffix(loginURL, "/")
	}
}

// WithState carries values through the authorization round trip. Callback
// returns them.
func WithState(values map[string]any) AuthenticateOption {
	return func(o *authenticateOptions) {
		if o.state == nil {
			o.state = make(map[string]any, len(values))
		}
		for k, v := range values {
			o.state[k] = v
		}
	}
}

// RequestOption customizes Request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	method          string
	format          string
	body            any
	header          http.Header
	query           url.Values
	compression     bool
	compressionType string
}

// WithMethod sets the HTTP method.
func WithMethod(method string) RequestOption {
	return func(o *requestOptions) { o.method = strings.ToUpper(method) }
}

// WithFormat sets the body format: json, xml, urlencoded or none.
func WithFormat(format string) RequestOption {
	return func(o *requestOptions) { o.format = strings.ToLower(format) }
}

// WithBody sets the request body. Strings and byte slices are sent as they
// are; anything else is encoded according to the format.
func WithBody(body any) RequestOption {
	return func(o *requestOptions) { o.body = body }
}

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) { o.header.Add(key, value) }
}

// WithQuery adds a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(o *requestOptions) { o.query.Add(key, value) }
}

// WithCompression asks for a compressed response; kind is gzip or deflate.
func WithCompression(kind string) RequestOption {
	return func(o *requestOptions) {
		o.compression = kind != ""
		o.compressionType = strings.ToLower(kind)
	}
}
