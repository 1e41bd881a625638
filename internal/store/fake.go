package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Fake is an in-memory Store for tests. It keeps every version of every
// secret and a per-secret set of accessor bindings, and lets tests inject
// failures per key.
type Fake struct {
	mu       sync.Mutex
	versions map[string][]string
	access   map[string]map[string]bool

	// FailGet, FailSet, and FailGrant inject errors keyed by physical key.
	FailGet   map[string]error
	FailSet   map[string]error
	FailGrant map[string]error
}

// NewFake returns an empty fake store.
func NewFake() *Fake {
	return &Fake{
		versions:  make(map[string][]string),
		access:    make(map[string]map[string]bool),
		FailGet:   make(map[string]error),
		FailSet:   make(map[string]error),
		FailGrant: make(map[string]error),
	}
}

// Seed stores a value without going through Set, for test setup.
func (f *Fake) Seed(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions[key] = append(f.versions[key], value)
}

// Grant records an accessor binding directly, for test setup.
func (f *Fake) Grant(key, serviceAccount string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.access[key] == nil {
		f.access[key] = make(map[string]bool)
	}
	f.access[key][serviceAccount] = true
}

func (f *Fake) Get(ctx context.Context, key, version string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailGet[key]; err != nil {
		return "", err
	}
	versions, ok := f.versions[key]
	if !ok || len(versions) == 0 {
		return "", ErrNotFound
	}
	if version == "" || version == "latest" {
		return versions[len(versions)-1], nil
	}
	n, err := strconv.Atoi(version)
	if err != nil || n < 1 || n > len(versions) {
		return "", ErrNotFound
	}
	return versions[n-1], nil
}

func (f *Fake) Set(ctx context.Context, key string, value []byte) (SetResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailSet[key]; err != nil {
		return SetResult{}, err
	}
	_, existed := f.versions[key]
	f.versions[key] = append(f.versions[key], string(value))
	return SetResult{
		Version: fmt.Sprintf("%d", len(f.versions[key])),
		Created: !existed,
	}, nil
}

func (f *Fake) Delete(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.versions[key]; !ok {
		return false, nil
	}
	delete(f.versions, key)
	delete(f.access, key)
	return true, nil
}

func (f *Fake) List(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.versions {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *Fake) GrantAccess(ctx context.Context, key, serviceAccount string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailGrant[key]; err != nil {
		return err
	}
	if f.access[key] == nil {
		f.access[key] = make(map[string]bool)
	}
	f.access[key][serviceAccount] = true
	return nil
}

func (f *Fake) CheckAccess(ctx context.Context, key, serviceAccount string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access[key][serviceAccount], nil
}

// HasAccess reports a recorded binding, for test assertions.
func (f *Fake) HasAccess(key, serviceAccount string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access[key][serviceAccount]
}
