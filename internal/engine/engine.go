// Package engine implements the core operations over the declared schema and
// the secret store: bootstrap aggregation, validation, and bulk access
// grants. All three share one scope-enumeration rule so their view of "the
// secrets of this environment/project" never drifts apart.
package engine

import (
	"context"
	"errors"

	"github.com/botmaro/secrets-manager/internal/config"
	smerrors "github.com/botmaro/secrets-manager/internal/errors"
	"github.com/botmaro/secrets-manager/internal/logging"
	"github.com/botmaro/secrets-manager/internal/store"
)

// Engine runs schema-driven operations against one secret store.
type Engine struct {
	root   *config.Root
	store  store.Store
	logger *logging.Logger
}

// New creates an engine over a loaded schema and a store.
func New(root *config.Root, st store.Store, logger *logging.Logger) *Engine {
	return &Engine{root: root, store: st, logger: logger}
}

// scopedSecret is one declaration placed in its enumeration position, with
// the physical key and the service accounts that must be able to read it.
type scopedSecret struct {
	Decl            config.Declaration
	Category        string
	Project         string // empty for environment-level categories
	Key             string
	ServiceAccounts []string
}

// scope resolves the environment and enumerates its declarations in the
// deterministic aggregation order: environment-level categories first, then
// projects in declared order. When project is empty, every project is
// included; otherwise only the named one. The ordering is what makes the
// last-writer-wins merge of Bootstrap testable.
func (e *Engine) scope(envName, project string) (*config.Environment, []scopedSecret, error) {
	env, err := e.root.Environment(envName)
	if err != nil {
		return nil, nil, err
	}

	var scoped []scopedSecret
	appendCategories := func(categories []config.Category, projectName string, accounts []string) {
		for _, cat := range categories {
			for _, decl := range cat.Declarations {
				scoped = append(scoped, scopedSecret{
					Decl:            decl,
					Category:        cat.Name,
					Project:         projectName,
					Key:             env.SecretKey(decl.Name),
					ServiceAccounts: accounts,
				})
			}
		}
	}

	appendCategories(env.Categories, "", env.ServiceAccounts)

	projectNames := env.ProjectNames
	if project != "" {
		if _, err := env.Project(project); err != nil {
			return nil, nil, err
		}
		projectNames = []string{project}
	}
	for _, name := range projectNames {
		proj := env.Projects[name]
		appendCategories(proj.Categories, name, mergeAccounts(env.ServiceAccounts, proj.ServiceAccounts))
	}

	return env, scoped, nil
}

// mergeAccounts concatenates the environment and project account lists,
// dropping duplicates while preserving order.
func mergeAccounts(envAccounts, projectAccounts []string) []string {
	seen := make(map[string]bool, len(envAccounts)+len(projectAccounts))
	merged := make([]string, 0, len(envAccounts)+len(projectAccounts))
	for _, sa := range append(append([]string{}, envAccounts...), projectAccounts...) {
		if !seen[sa] {
			seen[sa] = true
			merged = append(merged, sa)
		}
	}
	return merged
}

// SecretSet is an ordered name-to-value mapping. Names keep the position of
// their first insertion; a later Put for the same name overwrites the value
// in place (last writer wins).
type SecretSet struct {
	names  []string
	values map[string]string
}

// NewSecretSet returns an empty set.
func NewSecretSet() *SecretSet {
	return &SecretSet{values: make(map[string]string)}
}

// Put inserts or overwrites a value.
func (s *SecretSet) Put(name, value string) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

// Get returns a value and whether it is present.
func (s *SecretSet) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the names in insertion order.
func (s *SecretSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Values returns a copy of the mapping.
func (s *SecretSet) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Len returns the number of resolved secrets.
func (s *SecretSet) Len() int {
	return len(s.values)
}

// Bootstrap fetches every declared secret in scope and merges the results.
// Categories later in the enumeration silently overwrite earlier values for
// the same name. Secrets absent from the store fall back to their declared
// default or are omitted; absence is never an error here - that judgement
// belongs to Check. Any other store failure aborts the whole bootstrap.
func (e *Engine) Bootstrap(ctx context.Context, envName, project string) (*SecretSet, error) {
	_, scoped, err := e.scope(envName, project)
	if err != nil {
		return nil, err
	}

	result := NewSecretSet()
	for _, s := range scoped {
		value, err := e.store.Get(ctx, s.Key, "")
		if errors.Is(err, store.ErrNotFound) {
			if s.Decl.Default != "" {
				result.Put(s.Decl.Name, s.Decl.Default)
			}
			continue
		}
		if err != nil {
			var fetchErr *smerrors.SecretFetchError
			if errors.As(err, &fetchErr) {
				fetchErr.Secret = s.Decl.Name
				return nil, err
			}
			return nil, &smerrors.SecretFetchError{Secret: s.Decl.Name, Key: s.Key, Err: err}
		}
		result.Put(s.Decl.Name, value)
	}

	e.logger.Debug("Bootstrapped %d secrets for %s", result.Len(), envName)
	return result, nil
}

// Entry is one declared secret with its current store state, for listings.
type Entry struct {
	Name     string
	Category string
	Project  string
	Key      string
	Value    string
	Found    bool
}

// List enumerates the declared secrets in scope and fetches each value on a
// best-effort basis: absent or unreadable secrets are reported with
// Found=false rather than failing the listing.
func (e *Engine) List(ctx context.Context, envName, project string) ([]Entry, error) {
	_, scoped, err := e.scope(envName, project)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(scoped))
	for _, s := range scoped {
		entry := Entry{
			Name:     s.Decl.Name,
			Category: s.Category,
			Project:  s.Project,
			Key:      s.Key,
		}
		value, err := e.store.Get(ctx, s.Key, "")
		switch {
		case err == nil:
			entry.Value = value
			entry.Found = true
		case errors.Is(err, store.ErrNotFound):
			// reported as absent
		default:
			e.logger.Warn("Could not read %s: %v", s.Key, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
