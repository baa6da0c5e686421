package web

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"forrest/pkg/logging"
)

// ErrNotBound is returned when the context carries no request.
var ErrNotBound = errors.New("web: no request bound to context")

type bindingKey struct{}

type binding struct {
	w http.ResponseWriter
	r *http.Request

	mu      sync.Mutex
	pending map[string]func() error
	flushed bool
}

// WithRequest binds w and r to ctx. Pending session writes are saved by
// Flush; Middleware calls it automatically.
func WithRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	return context.WithValue(ctx, bindingKey{}, &binding{w: w, r: r})
}

func fromContext(ctx context.Context) (*binding, bool) {
	b, ok := ctx.Value(bindingKey{}).(*binding)
	return b, ok && b != nil
}

// Request returns the request bound to ctx.
func Request(ctx context.Context) (*http.Request, bool) {
	b, ok := fromContext(ctx)
	if !ok {
		return nil, false
	}
	return b.r, true
}

// Flush saves every session modified during the request.
func Flush(ctx context.Context) error {
	b, ok := fromContext(ctx)
	if !ok {
		return ErrNotBound
	}
	return b.flush()
}

func (b *binding) schedule(name string, save func() error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.flushed {
		logging.Warn("Server", "Session %s modified after the response header was written; change dropped", name)
		return
	}
	if b.pending == nil {
		b.pending = make(map[string]func() error)
	}
	b.pending[name] = save
}

func (b *binding) flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.flushed = true
	var errs []error
	for name, save := range b.pending {
		if err := save(); err != nil {
			logging.Error("Server", err, "Failed to save session %s", name)
			errs = append(errs, err)
		}
	}
	b.pending = nil
	return errors.Join(errs...)
}

// Middleware binds each request to its context and saves modified
// sessions before the first byte of the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := &binding{}
		rw := &responseWriter{ResponseWriter: w, binding: b}
		r = r.WithContext(context.WithValue(r.Context(), bindingKey{}, b))
		b.w = rw
		b.r = r

		next.ServeHTTP(rw, r)

		if !rw.wroteHeader {
			_ = b.flush()
		}
	})
}

type responseWriter struct {
	http.ResponseWriter
	binding     *binding
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
		_ = rw.binding.flush()
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(p)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
