// Package store defines the secret-store boundary and its Google Secret
// Manager implementation. The engine treats every call here as already
// resilient: transient failures are retried inside the adapter and only a
// final error propagates.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a secret or version does not exist,
// and distinguishes absence from transport failure.
var ErrNotFound = errors.New("secret not found")

// SetResult reports the outcome of a write.
type SetResult struct {
	Version string
	Created bool
}

// Store is the external secret-store interface. Keys are physical keys
// produced by the naming resolver; the store knows nothing about
// environments, projects, or categories.
type Store interface {
	// Get fetches one secret value. An empty version means latest.
	Get(ctx context.Context, key, version string) (string, error)

	// Set creates the secret if needed and adds a new version.
	Set(ctx context.Context, key string, value []byte) (SetResult, error)

	// Delete removes a secret and all its versions. It reports false when
	// the secret did not exist.
	Delete(ctx context.Context, key string) (bool, error)

	// List returns the physical keys that start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// GrantAccess gives a service account the accessor role on one secret.
	GrantAccess(ctx context.Context, key, serviceAccount string) error

	// CheckAccess reports whether a service account holds the accessor role
	// on one secret.
	CheckAccess(ctx context.Context, key, serviceAccount string) (bool, error)
}
