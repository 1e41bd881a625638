// Package errors defines the error taxonomy shared by the CLI and the
// engine. Schema-load failures and bad target references are fatal to the
// whole invocation; store-boundary failures are fatal only to the operation
// that hit them. Validation findings are never errors - they are collected
// into a report by the engine.
package errors

import (
	"fmt"
	"strings"
)

// ConfigNotFoundError reports a missing secrets configuration file.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s\n  💡 Set SECRETS_CONFIG_PATH or pass --config with the path to your secrets.yml", e.Path)
}

// ConfigParseError reports malformed YAML or JSON in the configuration file.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("invalid syntax in %s: %v\n  💡 Check for indentation errors, missing quotes, or invalid characters", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() error {
	return e.Err
}

// ConfigSchemaError reports a structurally invalid configuration, such as an
// environment missing its name or cloud_project.
type ConfigSchemaError struct {
	Path     string
	Problems []string
}

func (e *ConfigSchemaError) Error() string {
	return fmt.Sprintf("invalid configuration in %s:\n  - %s", e.Path, strings.Join(e.Problems, "\n  - "))
}

// EnvironmentNotFoundError reports a target referencing an environment the
// configuration does not declare.
type EnvironmentNotFoundError struct {
	Name      string
	Available []string
}

func (e *EnvironmentNotFoundError) Error() string {
	msg := fmt.Sprintf("environment not found: %s", e.Name)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf("\n  💡 Available environments: %s", strings.Join(e.Available, ", "))
	} else {
		msg += "\n  💡 Declare the environment under 'environments:' in your configuration"
	}
	return msg
}

// ProjectNotFoundError reports a target referencing a project the
// environment does not declare.
type ProjectNotFoundError struct {
	Environment string
	Name        string
	Available   []string
}

func (e *ProjectNotFoundError) Error() string {
	msg := fmt.Sprintf("project not found in environment %s: %s", e.Environment, e.Name)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf("\n  💡 Available projects: %s", strings.Join(e.Available, ", "))
	}
	return msg
}

// SecretFetchError reports a store read failure. Secret carries the logical
// declaration name when the caller knows it; Key is always the physical
// secret-store key.
type SecretFetchError struct {
	Secret     string
	Key        string
	Suggestion string
	Err        error
}

func (e *SecretFetchError) Error() string {
	name := e.Key
	if e.Secret != "" {
		name = fmt.Sprintf("%s (key %s)", e.Secret, e.Key)
	}
	msg := fmt.Sprintf("failed to fetch secret %s: %v", name, e.Err)
	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}
	return msg
}

func (e *SecretFetchError) Unwrap() error {
	return e.Err
}

// SecretWriteError reports a store create, update, or delete failure.
type SecretWriteError struct {
	Key        string
	Suggestion string
	Err        error
}

func (e *SecretWriteError) Error() string {
	msg := fmt.Sprintf("failed to write secret %s: %v", e.Key, e.Err)
	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}
	return msg
}

func (e *SecretWriteError) Unwrap() error {
	return e.Err
}

// GrantError reports a failed access-binding change for one secret and one
// service account.
type GrantError struct {
	Key            string
	ServiceAccount string
	Suggestion     string
	Err            error
}

func (e *GrantError) Error() string {
	msg := fmt.Sprintf("failed to grant %s access to secret %s: %v", e.ServiceAccount, e.Key, e.Err)
	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}
	return msg
}

func (e *GrantError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether an error looks like a transient store failure
// worth retrying. Retries happen at the store-adapter boundary only.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
		"unavailable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
