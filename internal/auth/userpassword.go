package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"forrest/internal/events"
	"forrest/pkg/logging"
)

// UserPassword is the resource-owner password flow. It holds a Redirector
// like every flow but never redirects.
type UserPassword struct {
	base
}

var _ Client = (*UserPassword)(nil)

// NewUserPassword builds the flow. Dependencies are not validated here.
func NewUserPassword(deps Dependencies) *UserPassword {
	u := &UserPassword{}
	u.init(FlowUserPassword, deps, u.Refresh)
	return u
}

// Authenticate exchanges the configured username and password for a token.
func (u *UserPassword) Authenticate(ctx context.Context, opts ...AuthenticateOption) error {
	settings, err := u.settings()
	if err != nil {
		return err
	}

	o := authenticateOptions{loginURL: settings.Credentials.LoginURL}
	for _, opt := range opts {
		opt(&o)
	}

	fresh, err := u.passwordGrant(ctx, o.loginURL)
	if err != nil {
		u.authenticationFailed(ctx, "password_grant", o.loginURL, err)
		return fmt.Errorf("password grant failed: %w", err)
	}

	tok := tokenFromOAuth2(fresh)
	if err := u.saveToken(ctx, tok, o.loginURL); err != nil {
		return err
	}

	u.fire(ctx, events.Authenticated, events.Data{
		Attributes: map[string]any{"instance_url": tok.InstanceURL},
	})
	logging.Audit(logging.AuditEvent{Action: "password_grant", Outcome: "success", Flow: u.flow, Target: tok.InstanceURL})
	return nil
}

// Refresh runs the password grant again; the flow has no refresh token.
func (u *UserPassword) Refresh(ctx context.Context) error {
	if _, err := u.settings(); err != nil {
		return err
	}

	loginURL := u.loginURL(ctx)
	fresh, err := u.passwordGrant(ctx, loginURL)
	if err != nil {
		return u.refreshFailed(ctx, err)
	}
	return u.storeRefreshed(ctx, fresh, "", loginURL)
}

func (u *UserPassword) passwordGrant(ctx context.Context, loginURL string) (*oauth2.Token, error) {
	creds := u.deps.Settings.Credentials
	return u.exchange(exchangeKey(u.flow, loginURL, creds.Username), func() (*oauth2.Token, error) {
		return u.oauthConfig(loginURL).PasswordCredentialsToken(u.oauthContext(ctx), creds.Username, creds.Password)
	})
}
