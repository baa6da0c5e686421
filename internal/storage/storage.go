package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is returned by Get when nothing is stored under the key.
	ErrMissingKey = errors.New("storage: missing key")

	// ErrMissingToken is returned when no access token has been stored yet.
	ErrMissingToken = errors.New("storage: no token stored")

	// ErrNoSession is returned by SessionStorage when the context carries no session.
	ErrNoSession = errors.New("storage: no session bound to context")
)

// Handle is the token-storage capability injected into an authentication flow.
type Handle interface {
	// Get returns the value stored under key, or an error wrapping ErrMissingKey.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Has reports whether a value is stored under key.
	Has(ctx context.Context, key string) (bool, error)

	// Forget removes key. Forgetting a missing key is not an error.
	Forget(ctx context.Context, key string) error
}

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrMissingKey, key)
}
