package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/iam"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	smerrors "github.com/botmaro/secrets-manager/internal/errors"
	"github.com/botmaro/secrets-manager/internal/logging"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// accessorRole is the IAM role granted and checked per secret.
const accessorRole iam.RoleName = "roles/secretmanager.secretAccessor"

// GCPStore implements Store on Google Secret Manager.
type GCPStore struct {
	client    *secretmanager.Client
	projectID string
	logger    *logging.Logger
}

// GCPOptions configures the Secret Manager client.
type GCPOptions struct {
	ProjectID                 string
	CredentialsFile           string
	ImpersonateServiceAccount string
}

// NewGCPStore creates a Secret Manager-backed store. Authentication follows
// application default credentials unless a credentials file or impersonation
// target is given.
func NewGCPStore(ctx context.Context, opts GCPOptions, logger *logging.Logger) (*GCPStore, error) {
	if opts.ProjectID == "" {
		opts.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("cloud project is required: set cloud_project in the environment config or GOOGLE_CLOUD_PROJECT")
	}

	var clientOptions []option.ClientOption
	if opts.CredentialsFile != "" {
		path := opts.CredentialsFile
		if strings.HasPrefix(path, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("resolving home directory: %w", err)
			}
			path = filepath.Join(home, path[2:])
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(path))
	}
	if opts.ImpersonateServiceAccount != "" {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: opts.ImpersonateServiceAccount,
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		})
		if err != nil {
			return nil, fmt.Errorf("creating impersonated credentials: %w", err)
		}
		clientOptions = append(clientOptions, option.WithTokenSource(ts))
	}

	client, err := secretmanager.NewClient(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("creating Secret Manager client: %w", err)
	}

	return &GCPStore{client: client, projectID: opts.ProjectID, logger: logger}, nil
}

// Close releases the underlying client connection.
func (s *GCPStore) Close() error {
	return s.client.Close()
}

// Get fetches one secret version, defaulting to latest.
func (s *GCPStore) Get(ctx context.Context, key, version string) (string, error) {
	name := versionResource(s.projectID, key, version)
	s.logger.Debug("Accessing secret version: %s", logging.Secret(name))

	var result *secretmanagerpb.AccessSecretVersionResponse
	err := withRetry(ctx, s.logger, "access "+key, func() error {
		var err error
		result, err = s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", &smerrors.SecretFetchError{Key: key, Suggestion: gcpSuggestion(err), Err: err}
	}
	if result.Payload == nil || result.Payload.Data == nil {
		return "", &smerrors.SecretFetchError{Key: key, Err: fmt.Errorf("secret version has no payload")}
	}
	return string(result.Payload.Data), nil
}

// Set adds a new version, creating the secret first when it does not exist.
func (s *GCPStore) Set(ctx context.Context, key string, value []byte) (SetResult, error) {
	created := false
	addVersion := func() (*secretmanagerpb.SecretVersion, error) {
		var v *secretmanagerpb.SecretVersion
		err := withRetry(ctx, s.logger, "add version "+key, func() error {
			var err error
			v, err = s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
				Parent:  secretResource(s.projectID, key),
				Payload: &secretmanagerpb.SecretPayload{Data: value},
			})
			return err
		})
		return v, err
	}

	v, err := addVersion()
	if err != nil && isNotFound(err) {
		createErr := withRetry(ctx, s.logger, "create "+key, func() error {
			_, err := s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
				Parent:   "projects/" + s.projectID,
				SecretId: key,
				Secret: &secretmanagerpb.Secret{
					Replication: &secretmanagerpb.Replication{
						Replication: &secretmanagerpb.Replication_Automatic_{
							Automatic: &secretmanagerpb.Replication_Automatic{},
						},
					},
				},
			})
			return err
		})
		if createErr != nil {
			return SetResult{}, &smerrors.SecretWriteError{Key: key, Suggestion: gcpSuggestion(createErr), Err: createErr}
		}
		created = true
		v, err = addVersion()
	}
	if err != nil {
		return SetResult{}, &smerrors.SecretWriteError{Key: key, Suggestion: gcpSuggestion(err), Err: err}
	}

	return SetResult{Version: versionNumber(v.Name), Created: created}, nil
}

// Delete removes a secret and all its versions.
func (s *GCPStore) Delete(ctx context.Context, key string) (bool, error) {
	err := withRetry(ctx, s.logger, "delete "+key, func() error {
		return s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
			Name: secretResource(s.projectID, key),
		})
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, &smerrors.SecretWriteError{Key: key, Suggestion: gcpSuggestion(err), Err: err}
	}
	return true, nil
}

// List returns the keys in the project that start with prefix.
func (s *GCPStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := withRetry(ctx, s.logger, "list "+prefix, func() error {
		keys = keys[:0]
		it := s.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
			Parent: "projects/" + s.projectID,
		})
		for {
			secret, err := it.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return err
			}
			key := keyFromResource(secret.Name)
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
	})
	if err != nil {
		return nil, &smerrors.SecretFetchError{Key: prefix + "*", Suggestion: gcpSuggestion(err), Err: err}
	}
	return keys, nil
}

// GrantAccess adds an accessor-role binding for one service account.
func (s *GCPStore) GrantAccess(ctx context.Context, key, serviceAccount string) error {
	handle := s.client.IAM(secretResource(s.projectID, key))
	member := iamMember(serviceAccount)

	err := withRetry(ctx, s.logger, "grant "+key, func() error {
		policy, err := handle.Policy(ctx)
		if err != nil {
			return err
		}
		if policy.HasRole(member, accessorRole) {
			return nil
		}
		policy.Add(member, accessorRole)
		return handle.SetPolicy(ctx, policy)
	})
	if err != nil {
		return &smerrors.GrantError{Key: key, ServiceAccount: serviceAccount, Suggestion: gcpSuggestion(err), Err: err}
	}
	return nil
}

// CheckAccess reports whether a service account holds the accessor role.
func (s *GCPStore) CheckAccess(ctx context.Context, key, serviceAccount string) (bool, error) {
	handle := s.client.IAM(secretResource(s.projectID, key))

	var has bool
	err := withRetry(ctx, s.logger, "check access "+key, func() error {
		policy, err := handle.Policy(ctx)
		if err != nil {
			return err
		}
		has = policy.HasRole(iamMember(serviceAccount), accessorRole)
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return false, ErrNotFound
		}
		return false, &smerrors.SecretFetchError{Key: key, Suggestion: gcpSuggestion(err), Err: err}
	}
	return has, nil
}

// secretResource builds the secret resource name for a physical key.
func secretResource(projectID, key string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", projectID, key)
}

// versionResource builds the version resource name, defaulting to latest.
func versionResource(projectID, key, version string) string {
	if version == "" {
		version = "latest"
	}
	return fmt.Sprintf("%s/versions/%s", secretResource(projectID, key), version)
}

// keyFromResource extracts the physical key from projects/P/secrets/K.
func keyFromResource(resource string) string {
	idx := strings.LastIndex(resource, "/")
	if idx < 0 {
		return resource
	}
	return resource[idx+1:]
}

// versionNumber extracts the version from .../versions/N.
func versionNumber(resource string) string {
	parts := strings.Split(resource, "/")
	if len(parts) >= 6 && parts[4] == "versions" {
		return parts[5]
	}
	return "latest"
}

// iamMember formats a service account as an IAM member string, leaving
// already-prefixed members untouched.
func iamMember(serviceAccount string) string {
	if strings.Contains(serviceAccount, ":") {
		return serviceAccount
	}
	return "serviceAccount:" + serviceAccount
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// gcpSuggestion maps common Secret Manager failures to actionable hints.
func gcpSuggestion(err error) string {
	switch status.Code(err) {
	case codes.PermissionDenied:
		return "Check IAM permissions: secretmanager.secrets.get, secretmanager.versions.access, secretmanager.secrets.setIamPolicy"
	case codes.Unauthenticated:
		return "Check authentication: set GOOGLE_APPLICATION_CREDENTIALS or run 'gcloud auth application-default login'"
	case codes.NotFound:
		return "Verify the secret name and cloud project. Check that the secret exists"
	case codes.InvalidArgument:
		return "Check the secret name format and version specification"
	case codes.ResourceExhausted:
		return "Request was throttled. The call was already retried with backoff; wait and try again"
	default:
		return "Check GCP credentials, the cloud project ID, and Secret Manager IAM permissions"
	}
}
