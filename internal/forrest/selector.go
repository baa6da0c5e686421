package forrest

import (
	"time"

	"forrest/internal/auth"
	"forrest/internal/storage"
)

// StorageDeps are the host subsystems a storage handle can be built over.
type StorageDeps struct {
	// Path prefixes every key.
	Path string

	// Session resolves the request session for session storage.
	Session storage.SessionSource

	// Cache and TTL back cache storage.
	Cache storage.Cache
	TTL   time.Duration
}

// SelectStorage builds the storage handle for kind. Kinds other than
// StorageCache get session storage.
func SelectStorage(kind StorageKind, deps StorageDeps) storage.Handle {
	switch kind {
	case StorageCache:
		return storage.NewCacheStorage(deps.Path, deps.Cache, deps.TTL)
	default:
		return storage.NewSessionStorage(deps.Path, deps.Session)
	}
}

// SelectAuthentication builds the flow for kind from deps, unvalidated.
// Kinds other than AuthUserPassword get the WebServer flow.
func SelectAuthentication(kind AuthenticationKind, deps auth.Dependencies) auth.Client {
	switch kind {
	case AuthUserPassword:
		return auth.NewUserPassword(deps)
	default:
		return auth.NewWebServer(deps)
	}
}
