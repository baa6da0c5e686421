package web

import (
	"context"
	"net/http"
)

// ResponseRedirector redirects the bound response.
type ResponseRedirector struct{}

// To writes a 302 redirect to url.
func (ResponseRedirector) To(ctx context.Context, url string) error {
	b, ok := fromContext(ctx)
	if !ok || b.w == nil {
		return ErrNotBound
	}
	http.Redirect(b.w, b.r, url, http.StatusFound)
	return nil
}
