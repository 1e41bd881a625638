package engine

import (
	"context"
	"errors"
)

// GrantResult summarizes a bulk grant. SecretsUpdated counts only secrets
// for which every requested service account was granted; partial success on
// a secret is never reported as full success.
type GrantResult struct {
	SecretsUpdated  int
	ServiceAccounts int
}

// GrantBulk enumerates the secrets in scope, exactly as Bootstrap does but
// without fetching values, and applies an accessor grant for each secret and
// each service account. Individual failures are collected and the batch
// continues; the joined error is returned alongside the result so callers
// can still surface an accurate count.
func (e *Engine) GrantBulk(ctx context.Context, envName, project string, serviceAccounts []string) (GrantResult, error) {
	_, scoped, err := e.scope(envName, project)
	if err != nil {
		return GrantResult{}, err
	}

	result := GrantResult{ServiceAccounts: len(serviceAccounts)}
	var failures []error
	seen := make(map[string]bool, len(scoped))

	for _, s := range scoped {
		if seen[s.Key] {
			continue
		}
		seen[s.Key] = true

		granted := true
		for _, sa := range serviceAccounts {
			if err := e.store.GrantAccess(ctx, s.Key, sa); err != nil {
				granted = false
				failures = append(failures, err)
				e.logger.Warn("Grant failed on %s for %s: %v", s.Key, sa, err)
			}
		}
		if granted {
			result.SecretsUpdated++
		}
	}

	if len(failures) > 0 {
		return result, errors.Join(failures...)
	}
	return result, nil
}
