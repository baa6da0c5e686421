// Package storage holds the token-storage handles an authentication flow
// persists its state through.
//
// A Handle is a small key/value capability (Get, Put, Has, Forget). Two
// variants exist:
//
//   - SessionStorage writes into the visitor's HTTP session. The session is
//     request-scoped, so it is resolved from the context of every call.
//   - CacheStorage writes into a shared cache (in-process LRU or Redis) with
//     an optional lifetime.
//
// Both prefix every key with the configured storage path so several
// applications can share one session or cache.
//
// Values are opaque bytes. Tokens are sealed with a Sealer before they are
// handed to a Handle; the handles themselves never look inside values.
package storage
