package web

import "context"

// RequestInput reads request parameters from the bound request.
type RequestInput struct{}

// Get returns the named query parameter, falling back to the posted form
// value. It returns "" when neither is present or no request is bound.
func (RequestInput) Get(ctx context.Context, name string) string {
	r, ok := Request(ctx)
	if !ok || r == nil {
		return ""
	}
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return r.PostFormValue(name)
}
