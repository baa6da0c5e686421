package forrest

import (
	"fmt"

	"forrest/internal/config"
)

// StorageKind selects the token storage variant.
type StorageKind int

const (
	// StorageSession is the default.
	StorageSession StorageKind = iota
	StorageCache
)

func (k StorageKind) String() string {
	switch k {
	case StorageCache:
		return config.StorageTypeCache
	default:
		return config.StorageTypeSession
	}
}

// AuthenticationKind selects the OAuth flow.
type AuthenticationKind int

const (
	// AuthWebServer is the default.
	AuthWebServer AuthenticationKind = iota
	AuthUserPassword
)

func (k AuthenticationKind) String() string {
	switch k {
	case AuthUserPassword:
		return config.AuthenticationUserPassword
	default:
		return config.AuthenticationWebServer
	}
}

// UnknownValueError describes a configuration value that was not recognized
// and the default used instead.
type UnknownValueError struct {
	Key      string
	Value    string
	Fallback string
}

func (e *UnknownValueError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s is not set, using %q", e.Key, e.Fallback)
	}
	return fmt.Sprintf("unknown %s %q, using %q", e.Key, e.Value, e.Fallback)
}

// ParseStorageKind maps storage.type onto a StorageKind. Unrecognized or
// empty values yield StorageSession together with an *UnknownValueError;
// the returned kind is always usable.
func ParseStorageKind(s string) (StorageKind, error) {
	switch s {
	case config.StorageTypeSession:
		return StorageSession, nil
	case config.StorageTypeCache:
		return StorageCache, nil
	default:
		return StorageSession, &UnknownValueError{Key: "storage.type", Value: s, Fallback: StorageSession.String()}
	}
}

// ParseAuthenticationKind maps authentication onto an AuthenticationKind.
// Unrecognized or empty values yield AuthWebServer together with an
// *UnknownValueError.
func ParseAuthenticationKind(s string) (AuthenticationKind, error) {
	switch s {
	case config.AuthenticationWebServer:
		return AuthWebServer, nil
	case config.AuthenticationUserPassword:
		return AuthUserPassword, nil
	default:
		return AuthWebServer, &UnknownValueError{Key: "authentication", Value: s, Fallback: AuthWebServer.String()}
	}
}
