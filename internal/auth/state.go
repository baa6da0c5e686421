package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Storage keys.
const (
	keyToken        = "token"
	keyRefreshToken = "refresh_token"
	keyStateNonce   = "state_nonce"
	keyCodeVerifier = "code_verifier"
	keyLoginURL     = "login_url"
)

// stateData is what travels in the state parameter.
type stateData struct {
	LoginURL string         `json:"loginUrl"`
	Nonce    string         `json:"nonce"`
	Options  map[string]any `json:"options,omitempty"`
}

func encodeState(s stateData) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeState(encoded string) (stateData, error) {
	var s stateData
	if encoded == "" {
		return s, fmt.Errorf("%w: empty", ErrInvalidState)
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if s.Nonce == "" || s.LoginURL == "" {
		return s, fmt.Errorf("%w: incomplete", ErrInvalidState)
	}
	return s, nil
}
