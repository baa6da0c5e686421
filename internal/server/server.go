package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"forrest/internal/auth"
	"forrest/internal/config"
	"forrest/internal/events"
	"forrest/internal/web"
	"forrest/pkg/logging"
	pkgstrings "forrest/pkg/strings"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default timeout for writing responses.
	DefaultWriteTimeout = 120 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second

	// maxProxyBody bounds request bodies forwarded to the API.
	maxProxyBody = 10 << 20
)

// ClientSource returns the API client; *forrest.Provider satisfies it.
type ClientSource interface {
	Client() (auth.Client, error)
}

// Options are the optional collaborators of a Server.
type Options struct {
	// Metrics is served on the metrics path when set.
	Metrics http.Handler

	// Recorder backs /events when set.
	Recorder *events.Recorder
}

// Server routes browser and API traffic to the API client.
type Server struct {
	cfg     *config.ForrestConfig
	clients ClientSource
	opts    Options

	httpServer *http.Server
}

// New creates a server. Nothing listens until Start.
func New(cfg *config.ForrestConfig, clients ClientSource, opts Options) *Server {
	return &Server{cfg: cfg, clients: clients, opts: opts}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
}

// Handler returns the routes wrapped in the session middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	sc := s.cfg.Server

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET "+sc.AuthenticatePath, s.handleAuthenticate)
	mux.HandleFunc("GET "+sc.CallbackPath, s.handleCallback)
	mux.HandleFunc("POST "+sc.RevokePath, s.handleRevoke)
	mux.Handle(ensureTrailingSlash(sc.APIPrefix), http.HandlerFunc(s.handleAPI))

	if s.opts.Recorder != nil {
		mux.HandleFunc("GET /events", s.handleEvents)
	}
	if s.opts.Metrics != nil && sc.MetricsPath != "" {
		mux.Handle("GET "+sc.MetricsPath, s.opts.Metrics)
	}

	return web.Middleware(mux)
}

// Start listens on the configured address and serves in the background.
// The returned channel receives the serve error, if any.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logging.Info("Server", "Listening on http://%s", ln.Addr())
	return errCh, nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) client(w http.ResponseWriter) (auth.Client, bool) {
	client, err := s.clients.Client()
	if err != nil {
		logging.Error("Server", err, "API client unavailable")
		writeJSON(w, http.StatusInternalServerError, errorBody("client_unavailable", err.Error()))
		return nil, false
	}
	return client, true
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	client, ok := s.client(w)
	if !ok {
		return
	}

	var opts []auth.AuthenticateOption
	if returnTo := r.URL.Query().Get("returnTo"); isLocalPath(returnTo) {
		opts = append(opts, auth.WithState(map[string]any{"returnTo": returnTo}))
	}

	if err := client.Authenticate(r.Context(), opts...); err != nil {
		logging.Warn("Server", "Authentication with %s flow failed: %v", client.Flow(), err)
		renderErrorPage(w, http.StatusBadGateway, "The login server rejected the request.")
		return
	}

	// the WebServer flow has already redirected
	if _, redirects := client.(auth.CallbackHandler); redirects {
		return
	}
	s.finish(w, r, r.URL.Query().Get("returnTo"))
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	client, ok := s.client(w)
	if !ok {
		return
	}
	handler, ok := client.(auth.CallbackHandler)
	if !ok {
		http.NotFound(w, r)
		return
	}

	opts, err := handler.Callback(r.Context())
	if err != nil {
		var cbErr *auth.CallbackError
		switch {
		case errors.As(err, &cbErr):
			logging.Warn("Server", "OAuth callback received error: %v", err)
			msg := cbErr.Description
			if msg == "" {
				msg = cbErr.Code
			}
			renderErrorPage(w, http.StatusBadRequest, msg)
		case errors.Is(err, auth.ErrInvalidState):
			logging.Warn("Server", "OAuth callback with invalid state: %v", err)
			renderErrorPage(w, http.StatusBadRequest, "Authentication session expired. Please try again.")
		default:
			logging.Error("Server", err, "OAuth callback failed")
			renderErrorPage(w, http.StatusBadGateway, "Failed to complete authentication.")
		}
		return
	}

	// save now so a failed write still reaches the browser as an error page
	if err := web.Flush(r.Context()); err != nil {
		logging.Error("Server", err, "Failed to save session after OAuth callback")
		renderErrorPage(w, http.StatusInternalServerError, "Failed to save the authentication session.")
		return
	}

	returnTo, _ := opts["returnTo"].(string)
	s.finish(w, r, returnTo)
}

// finish sends the browser on after a completed authentication.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, returnTo string) {
	target := s.cfg.AuthRedirect
	if isLocalPath(returnTo) {
		target = returnTo
	}
	if target == "" {
		renderSuccessPage(w)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	client, ok := s.client(w)
	if !ok {
		return
	}

	err := client.Revoke(r.Context())
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody("not_authenticated", "no token to revoke"))
	default:
		writeAPIError(w, err)
	}
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	client, ok := s.client(w)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, strings.TrimSuffix(s.cfg.Server.APIPrefix, "/"))
	opts := []auth.RequestOption{auth.WithMethod(r.Method)}
	for key, values := range r.URL.Query() {
		for _, v := range values {
			opts = append(opts, auth.WithQuery(key, v))
		}
	}
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxProxyBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid_body", err.Error()))
			return
		}
		if len(body) > 0 {
			opts = append(opts, auth.WithBody(body))
		}
	}

	resp, err := client.Request(r.Context(), path, opts...)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	found := s.opts.Recorder.Query(events.QueryOptions{
		Name:  events.Name(q.Get("name")),
		Type:  events.Type(q.Get("type")),
		Limit: limit,
	})

	type eventView struct {
		Name    events.Name `json:"name"`
		Type    events.Type `json:"type"`
		Message string      `json:"message"`
		Time    time.Time   `json:"time"`
	}
	out := make([]eventView, 0, len(found))
	for _, e := range found {
		out = append(out, eventView{Name: e.Name, Type: e.Type, Message: e.Message, Time: e.Time})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeAPIError(w http.ResponseWriter, err error) {
	var apiErr *auth.APIError
	switch {
	case errors.As(err, &apiErr):
		logging.Warn("Server", "Upstream %s %s returned %d: %s", apiErr.Method, apiErr.URL, apiErr.StatusCode,
			pkgstrings.Truncate(string(apiErr.Body), pkgstrings.DefaultLogBodyMaxLen))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apiErr.StatusCode)
		if len(apiErr.Body) > 0 {
			_, _ = w.Write(apiErr.Body)
		}
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody("not_authenticated", "authenticate first"))
	default:
		logging.Error("Server", err, "API request failed")
		writeJSON(w, http.StatusBadGateway, errorBody("upstream_error", err.Error()))
	}
}

func errorBody(code, description string) map[string]string {
	return map[string]string{"error": code, "error_description": description}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Server", err, "Failed to encode response")
	}
}

// isLocalPath accepts only same-origin paths, never "//host" or absolute URLs.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}

func ensureTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
