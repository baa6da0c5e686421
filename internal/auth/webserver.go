package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"forrest/internal/events"
	"forrest/internal/storage"
	"forrest/pkg/logging"
)

// WebServer is the authorization-code flow.
type WebServer struct {
	base
}

var (
	_ Client          = (*WebServer)(nil)
	_ CallbackHandler = (*WebServer)(nil)
)

// NewWebServer builds the flow. Dependencies are not validated here; a
// missing one is reported by the method that needs it.
func NewWebServer(deps Dependencies) *WebServer {
	w := &WebServer{}
	w.init(FlowWebServer, deps, w.Refresh)
	return w
}

// Authenticate redirects the browser to the authorization page.
func (w *WebServer) Authenticate(ctx context.Context, opts ...AuthenticateOption) error {
	settings, err := w.settings()
	if err != nil {
		return err
	}
	store, err := w.store()
	if err != nil {
		return err
	}
	if w.deps.Redirect == nil {
		return missingDependency("Redirect")
	}

	o := authenticateOptions{loginURL: settings.Credentials.LoginURL}
	for _, opt := range opts {
		opt(&o)
	}
	if settings.Parameters.State != "" {
		if _, ok := o.state["state"]; !ok {
			WithState(map[string]any{"state": settings.Parameters.State})(&o)
		}
	}

	nonce := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	state, err := encodeState(stateData{LoginURL: o.loginURL, Nonce: nonce, Options: o.state})
	if err != nil {
		return err
	}

	if err := store.Put(ctx, keyStateNonce, []byte(nonce)); err != nil {
		return fmt.Errorf("failed to store state nonce: %w", err)
	}
	if err := store.Put(ctx, keyCodeVerifier, []byte(verifier)); err != nil {
		return fmt.Errorf("failed to store code verifier: %w", err)
	}
	if err := store.Put(ctx, keyLoginURL, []byte(o.loginURL)); err != nil {
		return fmt.Errorf("failed to store login URL: %w", err)
	}

	params := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	if p := settings.Parameters; p.Display != "" {
		params = append(params, oauth2.SetAuthURLParam("display", p.Display))
	}
	if settings.Parameters.Immediate {
		params = append(params, oauth2.SetAuthURLParam("immediate", "true"))
	}
	if p := settings.Parameters; p.Prompt != "" {
		params = append(params, oauth2.SetAuthURLParam("prompt", p.Prompt))
	}

	authURL := w.oauthConfig(o.loginURL).AuthCodeURL(state, params...)

	logging.Debug("OAuth", "Redirecting to authorization page (login=%s, nonce=%s)", o.loginURL, logging.TruncateSessionID(nonce))
	w.fire(ctx, events.AuthenticateRedirect, events.Data{URL: authURL})

	return w.deps.Redirect.To(ctx, authURL)
}

// Callback completes the flow started by Authenticate.
func (w *WebServer) Callback(ctx context.Context) (map[string]any, error) {
	if _, err := w.settings(); err != nil {
		return nil, err
	}
	store, err := w.store()
	if err != nil {
		return nil, err
	}
	if w.deps.Input == nil {
		return nil, missingDependency("Input")
	}

	in := w.deps.Input
	if code := in.Get(ctx, "error"); code != "" {
		cbErr := &CallbackError{Code: code, Description: in.Get(ctx, "error_description")}
		w.authenticationFailed(ctx, "code_exchange", "", cbErr)
		return nil, cbErr
	}

	code := in.Get(ctx, "code")
	if code == "" {
		cbErr := &CallbackError{Code: "invalid_request", Description: "authorization code missing"}
		w.authenticationFailed(ctx, "code_exchange", "", cbErr)
		return nil, cbErr
	}

	state, err := decodeState(in.Get(ctx, "state"))
	if err != nil {
		w.authenticationFailed(ctx, "code_exchange", "", err)
		return nil, err
	}
	if err := w.checkState(ctx, store, state); err != nil {
		w.authenticationFailed(ctx, "code_exchange", "", err)
		return nil, err
	}

	var exchangeOpts []oauth2.AuthCodeOption
	if verifier, err := store.Get(ctx, keyCodeVerifier); err == nil {
		exchangeOpts = append(exchangeOpts, oauth2.VerifierOption(string(verifier)))
	}
	_ = store.Forget(ctx, keyCodeVerifier)

	fresh, err := w.oauthConfig(state.LoginURL).Exchange(w.oauthContext(ctx), code, exchangeOpts...)
	if err != nil {
		w.authenticationFailed(ctx, "code_exchange", state.LoginURL, err)
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	tok := tokenFromOAuth2(fresh)
	if err := w.saveToken(ctx, tok, state.LoginURL); err != nil {
		return nil, err
	}

	w.fire(ctx, events.Authenticated, events.Data{
		Attributes: map[string]any{"instance_url": tok.InstanceURL},
	})
	logging.Audit(logging.AuditEvent{Action: "code_exchange", Outcome: "success", Flow: w.flow, Target: tok.InstanceURL})

	if state.Options == nil {
		return map[string]any{}, nil
	}
	return state.Options, nil
}

// checkState consumes the stored nonce and verifies the state against it.
// The login URL must be the one the flow was started with, so a forged
// state cannot redirect the code exchange elsewhere.
func (w *WebServer) checkState(ctx context.Context, store storage.Handle, state stateData) error {
	nonce, err := store.Get(ctx, keyStateNonce)
	if errors.Is(err, storage.ErrMissingKey) {
		return fmt.Errorf("%w: no authentication in progress", ErrInvalidState)
	}
	if err != nil {
		return fmt.Errorf("failed to load state nonce: %w", err)
	}
	if err := store.Forget(ctx, keyStateNonce); err != nil {
		return fmt.Errorf("failed to clear state nonce: %w", err)
	}

	if string(nonce) != state.Nonce {
		logging.Warn("OAuth", "State nonce %s does not match the stored one", logging.TruncateSessionID(state.Nonce))
		return fmt.Errorf("%w: nonce mismatch", ErrInvalidState)
	}
	if loginURL, err := store.Get(ctx, keyLoginURL); err == nil && string(loginURL) != state.LoginURL {
		return fmt.Errorf("%w: login URL mismatch", ErrInvalidState)
	}
	return nil
}

// Refresh renews the access token with the stored refresh token.
func (w *WebServer) Refresh(ctx context.Context) error {
	if _, err := w.settings(); err != nil {
		return err
	}
	refreshToken, err := w.storedRefreshToken(ctx)
	if err != nil {
		return err
	}

	loginURL := w.loginURL(ctx)
	fresh, err := w.exchange(exchangeKey(w.flow, loginURL, refreshToken), func() (*oauth2.Token, error) {
		src := w.oauthConfig(loginURL).TokenSource(w.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
		return src.Token()
	})
	if err != nil {
		return w.refreshFailed(ctx, err)
	}

	return w.storeRefreshed(ctx, fresh, refreshToken, loginURL)
}
