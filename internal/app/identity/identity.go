/*
Package identity resolves the display name the client presents to the chat server.

A name is loaded from a persistent Store under StorageKey; when absent, a new one
is generated from the fixed word lists and saved, so it stays stable until the
store is cleared.
*/
package identity

import (
	"strings"

	"chatterbox/internal/pkg/errs"
	"chatterbox/internal/pkg/logx"
	"chatterbox/internal/pkg/randx"
)

// StorageKey is the fixed key under which the display name is persisted.
const StorageKey = "chatUsername"

// Store is a string key/value store that survives process restarts.
type Store interface {
	// Get returns the value of key and whether it was present.
	Get(key string) (string, bool, error)

	// Set stores value under key.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Generator produces a fresh display name.
type Generator func() (string, error)

// Resolve returns the persisted display name, generating and persisting one
// with generate when the store holds none. A nil generate uses randx.Username.
func Resolve(store Store, generate Generator) (string, error) {
	if generate == nil {
		generate = randx.Username
	}

	saved, ok, err := store.Get(StorageKey)
	if err != nil {
		return "", errs.Wrap(errs.ErrIdentityStore, err)
	}

	if ok && strings.TrimSpace(saved) != "" {
		return saved, nil
	}

	name, err := generate()
	if err != nil {
		return "", errs.Wrap(errs.ErrUnknown, err)
	}

	if err := store.Set(StorageKey, name); err != nil {
		return "", errs.Wrap(errs.ErrIdentityStore, err)
	}

	logx.Info("Generated new username", "username", name)

	return name, nil
}

// Clear forgets the persisted display name; the next Resolve generates a new one.
func Clear(store Store) error {
	if err := store.Delete(StorageKey); err != nil {
		return errs.Wrap(errs.ErrIdentityStore, err)
	}
	return nil
}
