package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"forrest/internal/config"
	"forrest/internal/events"
	"forrest/internal/storage"
	"forrest/pkg/logging"
	pkgstrings "forrest/pkg/strings"
)

const (
	authorizePath = "/services/oauth2/authorize"
	tokenPath     = "/services/oauth2/token"
	revokePath    = "/services/oauth2/revoke"
)

// base is shared by both flows: token persistence, revocation and requests.
type base struct {
	flow   string
	deps   Dependencies
	sealer *storage.Sealer

	// refresh is the flow's Refresh, used to retry unauthorized requests.
	refresh func(ctx context.Context) error

	// refreshGroup deduplicates concurrent token exchanges for the same grant.
	refreshGroup singleflight.Group

	now func() time.Time
}

func (b *base) init(flow string, deps Dependencies, refresh func(context.Context) error) {
	b.flow = flow
	b.deps = deps
	b.refresh = refresh
	b.now = time.Now
	if deps.Settings != nil {
		b.sealer = storage.NewSealer(deps.Settings.Storage.EncryptionKey)
	}
}

// Flow returns the flow name.
func (b *base) Flow() string {
	return b.flow
}

// Dependencies returns the collaborators the flow was built with.
func (b *base) Dependencies() Dependencies {
	return b.deps
}

// Settings returns the configuration the flow was built with.
func (b *base) Settings() *config.ForrestConfig {
	return b.deps.Settings
}

func (b *base) settings() (*config.ForrestConfig, error) {
	if b.deps.Settings == nil {
		return nil, missingDependency("Settings")
	}
	return b.deps.Settings, nil
}

func (b *base) store() (storage.Handle, error) {
	if b.deps.Storage == nil {
		return nil, missingDependency("Storage")
	}
	return b.deps.Storage, nil
}

func (b *base) httpClient() (*http.Client, error) {
	if b.deps.HTTPClient == nil {
		return nil, missingDependency("HTTPClient")
	}
	return b.deps.HTTPClient, nil
}

func (b *base) fire(ctx context.Context, name events.Name, data events.Data) {
	if b.deps.Event == nil {
		return
	}
	if data.Flow == "" {
		data.Flow = b.flow
	}
	b.deps.Event.Fire(ctx, name, data)
}

// oauthContext makes golang.org/x/oauth2 use the injected client.
func (b *base) oauthContext(ctx context.Context) context.Context {
	if b.deps.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, b.deps.HTTPClient)
}

func (b *base) oauthConfig(loginURL string) *oauth2.Config {
	s := b.deps.Settings
	loginURL = strings.TrimSuffix(loginURL, "/")
	return &oauth2.Config{
		ClientID:     s.Credentials.ConsumerKey,
		ClientSecret: s.Credentials.ConsumerSecret,
		RedirectURL:  s.Credentials.CallbackURI,
		Scopes:       strings.Fields(s.Parameters.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:   loginURL + authorizePath,
			TokenURL:  loginURL + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// loginURL returns the login server the stored token came from, falling
// back to the configured one.
func (b *base) loginURL(ctx context.Context) string {
	if b.deps.Storage != nil {
		if raw, err := b.deps.Storage.Get(ctx, keyLoginURL); err == nil && len(raw) > 0 {
			return string(raw)
		}
	}
	if b.deps.Settings == nil {
		return ""
	}
	return strings.TrimSuffix(b.deps.Settings.Credentials.LoginURL, "/")
}

// Token returns the stored token.
func (b *base) Token(ctx context.Context) (*Token, error) {
	store, err := b.store()
	if err != nil {
		return nil, err
	}

	sealed, err := store.Get(ctx, keyToken)
	if errors.Is(err, storage.ErrMissingKey) {
		return nil, fmt.Errorf("%w: %w", ErrNotAuthenticated, storage.ErrMissingToken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	raw, err := b.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored token: %w", err)
	}

	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode stored token: %w", err)
	}

	if rt, err := b.storedRefreshToken(ctx); err == nil {
		tok.RefreshToken = rt
	}
	return &tok, nil
}

func (b *base) storedRefreshToken(ctx context.Context) (string, error) {
	store, err := b.store()
	if err != nil {
		return "", err
	}
	sealed, err := store.Get(ctx, keyRefreshToken)
	if errors.Is(err, storage.ErrMissingKey) {
		return "", ErrMissingRefreshToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to load refresh token: %w", err)
	}
	raw, err := b.sealer.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to open stored refresh token: %w", err)
	}
	return string(raw), nil
}

// saveToken stores tok and, when present, its refresh token.
func (b *base) saveToken(ctx context.Context, tok *Token, loginURL string) error {
	store, err := b.store()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	sealed, err := b.sealer.Seal(raw)
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}
	if err := store.Put(ctx, keyToken, sealed); err != nil {
		return err
	}

	if tok.RefreshToken != "" {
		sealed, err := b.sealer.Seal([]byte(tok.RefreshToken))
		if err != nil {
			return fmt.Errorf("failed to seal refresh token: %w", err)
		}
		if err := store.Put(ctx, keyRefreshToken, sealed); err != nil {
			return err
		}
	}

	if loginURL != "" {
		if err := store.Put(ctx, keyLoginURL, []byte(loginURL)); err != nil {
			return err
		}
	}
	return nil
}

func (b *base) forgetTokens(ctx context.Context) error {
	store, err := b.store()
	if err != nil {
		return err
	}
	for _, key := range []string{keyToken, keyRefreshToken, keyLoginURL} {
		if err := store.Forget(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// exchange runs fetch once per key across concurrent callers.
func (b *base) exchange(key string, fetch func() (*oauth2.Token, error)) (*oauth2.Token, error) {
	v, err, shared := b.refreshGroup.Do(key, func() (interface{}, error) {
		return fetch()
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Debug("OAuth", "Shared token exchange result for %s flow", b.flow)
	}
	return v.(*oauth2.Token), nil
}

func exchangeKey(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:16])
}

// storeRefreshed persists a renewed token, keeping the previous refresh
// token when the server did not issue a new one.
func (b *base) storeRefreshed(ctx context.Context, fresh *oauth2.Token, previousRefreshToken, loginURL string) error {
	tok := tokenFromOAuth2(fresh)
	if tok.RefreshToken == "" {
		tok.RefreshToken = previousRefreshToken
	}
	if err := b.saveToken(ctx, tok, loginURL); err != nil {
		return err
	}

	b.fire(ctx, events.TokenRefreshed, events.Data{
		Attributes: map[string]any{"instance_url": tok.InstanceURL},
	})
	logging.Audit(logging.AuditEvent{Action: "token_refresh", Outcome: "success", Flow: b.flow, Target: tok.InstanceURL})
	return nil
}

// authenticationFailed reports a failed authentication to listeners and the
// audit log.
func (b *base) authenticationFailed(ctx context.Context, action, target string, err error) {
	b.fire(ctx, events.Authenticated, events.Data{URL: target, Error: err.Error()})
	logging.Audit(logging.AuditEvent{Action: action, Outcome: "failure", Flow: b.flow, Target: target, Err: err})
}

func (b *base) refreshFailed(ctx context.Context, err error) error {
	b.fire(ctx, events.TokenRefreshed, events.Data{Error: err.Error()})
	logging.Audit(logging.AuditEvent{Action: "token_refresh", Outcome: "failure", Flow: b.flow, Err: err})
	return fmt.Errorf("token refresh failed: %w", err)
}

// Revoke revokes the stored token at the login server and forgets it.
func (b *base) Revoke(ctx context.Context) error {
	tok, err := b.Token(ctx)
	if err != nil {
		return err
	}
	client, err := b.httpClient()
	if err != nil {
		return err
	}

	revoked := tok.RefreshToken
	if revoked == "" {
		revoked = tok.AccessToken
	}

	target := b.loginURL(ctx) + revokePath
	form := url.Values{"token": {revoked}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read revoke response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{
			Method:     http.MethodPost,
			URL:        target,
			StatusCode: resp.StatusCode,
			Errors:     parseAPIErrors(body),
			Body:       body,
		}
		logging.Warn("OAuth", "Revoke rejected with %d: %s", resp.StatusCode,
			pkgstrings.Truncate(string(body), pkgstrings.DefaultLogBodyMaxLen))
		logging.Audit(logging.AuditEvent{Action: "token_revoke", Outcome: "failure", Flow: b.flow, Target: target, Err: apiErr})
		return apiErr
	}

	if err := b.forgetTokens(ctx); err != nil {
		return fmt.Errorf("token revoked but could not be forgotten: %w", err)
	}

	b.fire(ctx, events.TokenRevoked, events.Data{
		URL:        target,
		Status:     resp.StatusCode,
		Attributes: map[string]any{"revoked_at": b.now().UTC().Format(time.RFC3339)},
	})
	logging.Audit(logging.AuditEvent{Action: "token_revoke", Outcome: "success", Flow: b.flow, Target: target})
	return nil
}
