package config

import (
	"fmt"
	"strings"
	"unicode"
)

// Target is a parsed addressing triple. Project and Secret may be empty.
type Target struct {
	Environment string
	Project     string
	Secret      string
}

// String renders the target back into dotted form.
func (t Target) String() string {
	parts := []string{t.Environment}
	if t.Project != "" {
		parts = append(parts, t.Project)
	}
	if t.Secret != "" {
		parts = append(parts, t.Secret)
	}
	return strings.Join(parts, ".")
}

// ParseTarget parses a dotted target reference:
//
//	"staging"                    -> (staging, -, -)
//	"staging.myproject"          -> (staging, myproject, -)
//	"staging.API_KEY"            -> (staging, -, API_KEY)
//	"staging.myapp.DATABASE_URL" -> (staging, myapp, DATABASE_URL)
//
// With two segments, the second is a secret name when it is all-uppercase or
// contains an underscore, and a project name otherwise. The heuristic is
// lossy for a project literally named like MY_APP, which parses as a secret
// name; it is kept as-is for compatibility with existing targets.
func ParseTarget(target string) (Target, error) {
	if target == "" {
		return Target{}, fmt.Errorf("empty target reference")
	}

	parts := strings.Split(target, ".")
	switch len(parts) {
	case 1:
		return Target{Environment: parts[0]}, nil
	case 2:
		if isUpper(parts[1]) || strings.Contains(parts[1], "_") {
			return Target{Environment: parts[0], Secret: parts[1]}, nil
		}
		return Target{Environment: parts[0], Project: parts[1]}, nil
	default:
		return Target{
			Environment: parts[0],
			Project:     parts[1],
			Secret:      strings.Join(parts[2:], "."),
		}, nil
	}
}

// isUpper reports whether s contains at least one letter and no lowercase
// letters, matching the uppercase heuristic of the target grammar.
func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
