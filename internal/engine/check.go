package engine

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/botmaro/secrets-manager/internal/store"
	"github.com/botmaro/secrets-manager/internal/workflow"
)

// placeholderKeywords flag values that were clearly never filled in. The
// match is a case-insensitive substring test.
var placeholderKeywords = []string{
	"placeholder",
	"todo",
	"changeme",
	"fixme",
	"xxx",
	"replace",
}

// IsPlaceholder reports whether a value looks unfilled.
func IsPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, keyword := range placeholderKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// PlaceholderFinding pairs a secret name with its offending value.
type PlaceholderFinding struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AccessFinding pairs a secret with a service account lacking a binding.
type AccessFinding struct {
	Secret         string `json:"secret"`
	ServiceAccount string `json:"service_account"`
}

// Report is the structured result of Check. Placeholder findings are
// warnings; only missing secrets, missing access, and undefined workflow
// references count as errors.
type Report struct {
	Environment                string               `json:"environment"`
	Project                    string               `json:"project,omitempty"`
	MissingSecrets             []string             `json:"missing_secrets"`
	PlaceholderSecrets         []PlaceholderFinding `json:"placeholder_secrets"`
	PlaceholderServiceAccounts []string             `json:"placeholder_service_accounts"`
	MissingAccess              []AccessFinding      `json:"missing_sa_access"`
	WorkflowSecrets            []string             `json:"workflow_secrets"`
	UndefinedWorkflowSecrets   []string             `json:"undefined_workflow_secrets"`
}

// HasErrors reports whether the check must fail the invocation.
func (r *Report) HasErrors() bool {
	return len(r.MissingSecrets) > 0 ||
		len(r.MissingAccess) > 0 ||
		len(r.UndefinedWorkflowSecrets) > 0
}

// Check cross-references the declared schema, the live store, the
// placeholder rules, access bindings, and (when a source is given) workflow
// secret references. The dimensions are independent: a failure in one never
// aborts the others, and the report is fully assembled before any exit-code
// decision.
func (e *Engine) Check(ctx context.Context, envName, project, workflowSource string) (*Report, error) {
	_, scoped, err := e.scope(envName, project)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Environment:                envName,
		Project:                    project,
		MissingSecrets:             []string{},
		PlaceholderSecrets:         []PlaceholderFinding{},
		PlaceholderServiceAccounts: []string{},
		MissingAccess:              []AccessFinding{},
		WorkflowSecrets:            []string{},
		UndefinedWorkflowSecrets:   []string{},
	}

	declared := make(map[string]bool, len(scoped))
	seenAccounts := make(map[string]bool)
	seenMissing := make(map[string]bool)
	// A secret declared in more than one category enumerates more than once
	// but resolves to one physical key; each key is fetched once and each
	// (key, account) pair is checked once so the report carries no duplicates.
	// The fetch outcome is remembered per key because a duplicate declaration
	// may tighten required-ness.
	absent := make(map[string]bool)
	fetched := make(map[string]bool, len(scoped))
	seenPairs := make(map[string]bool)

	for _, s := range scoped {
		declared[s.Decl.Name] = true

		if !fetched[s.Key] {
			fetched[s.Key] = true
			value, err := e.store.Get(ctx, s.Key, "")
			switch {
			case errors.Is(err, store.ErrNotFound):
				absent[s.Key] = true
			case err != nil:
				// Only definitive absence is a finding; a transport failure on
				// one secret must not poison the other dimensions.
				e.logger.Warn("Could not read %s: %v", s.Key, err)
			default:
				if IsPlaceholder(value) {
					report.PlaceholderSecrets = append(report.PlaceholderSecrets, PlaceholderFinding{
						Name:  s.Decl.Name,
						Value: value,
					})
				}
			}
		}
		if absent[s.Key] && s.Decl.Required && !seenMissing[s.Decl.Name] {
			seenMissing[s.Decl.Name] = true
			report.MissingSecrets = append(report.MissingSecrets, s.Decl.Name)
		}

		for _, sa := range s.ServiceAccounts {
			if !seenAccounts[sa] {
				seenAccounts[sa] = true
				if IsPlaceholder(sa) {
					report.PlaceholderServiceAccounts = append(report.PlaceholderServiceAccounts, sa)
				}
			}
			pair := s.Key + "\x00" + sa
			if seenPairs[pair] {
				continue
			}
			seenPairs[pair] = true
			has, err := e.store.CheckAccess(ctx, s.Key, sa)
			if err != nil {
				e.logger.Warn("Could not check access on %s for %s: %v", s.Key, sa, err)
				continue
			}
			if !has {
				report.MissingAccess = append(report.MissingAccess, AccessFinding{
					Secret:         s.Decl.Name,
					ServiceAccount: sa,
				})
			}
		}
	}

	if workflowSource != "" {
		refs, err := workflow.Scan(workflowSource)
		if err != nil {
			e.logger.Warn("Could not scan workflows at %s: %v", workflowSource, err)
		} else {
			report.WorkflowSecrets = refs
			for _, ref := range refs {
				if !declared[ref] {
					report.UndefinedWorkflowSecrets = append(report.UndefinedWorkflowSecrets, ref)
				}
			}
			sort.Strings(report.UndefinedWorkflowSecrets)
		}
	}

	return report, nil
}
