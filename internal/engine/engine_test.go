package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/botmaro/secrets-manager/internal/config"
	smerrors "github.com/botmaro/secrets-manager/internal/errors"
	"github.com/botmaro/secrets-manager/internal/logging"
	"github.com/botmaro/secrets-manager/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRoot declares one environment with two env-level categories and two
// projects, overlapping names included, to exercise merge order.
func testRoot() *config.Root {
	return &config.Root{
		Version: "1.0",
		Environments: map[string]*config.Environment{
			"staging": {
				Name:            "staging",
				CloudProject:    "my-gcp-project",
				Prefix:          "botmaro-staging",
				ServiceAccounts: []string{"env-sa@p.iam.gserviceaccount.com"},
				Categories: []config.Category{
					{Name: "api_secrets", Declarations: []config.Declaration{
						{Name: "API_KEY", Required: true},
						{Name: "SHARED_TOKEN", Required: true},
					}},
					{Name: "database_secrets", Declarations: []config.Declaration{
						{Name: "DATABASE_URL", Required: true},
					}},
				},
				ProjectNames: []string{"myapp", "worker"},
				Projects: map[string]*config.Project{
					"myapp": {
						ProjectID:       "myapp-123",
						ServiceAccounts: []string{"myapp-sa@p.iam.gserviceaccount.com"},
						Categories: []config.Category{
							{Name: "app_secrets", Declarations: []config.Declaration{
								{Name: "SHARED_TOKEN", Required: true},
								{Name: "SESSION_KEY", Required: false, Default: "dev-session"},
							}},
						},
					},
					"worker": {
						ProjectID: "worker-456",
						Categories: []config.Category{
							{Name: "worker_secrets", Declarations: []config.Declaration{
								{Name: "QUEUE_TOKEN", Required: false},
							}},
						},
					},
				},
			},
		},
	}
}

func testEngine(t *testing.T) (*Engine, *store.Fake) {
	t.Helper()
	fake := store.NewFake()
	return New(testRoot(), fake, logging.New(false, true)), fake
}

func TestBootstrapMergesInEnumerationOrder(t *testing.T) {
	eng, fake := testEngine(t)
	fake.Seed("botmaro-staging--API_KEY", "api-value")
	fake.Seed("botmaro-staging--SHARED_TOKEN", "shared-value")
	fake.Seed("botmaro-staging--DATABASE_URL", "postgres://staging")
	fake.Seed("botmaro-staging--QUEUE_TOKEN", "queue-value")

	set, err := eng.Bootstrap(context.Background(), "staging", "")
	require.NoError(t, err)

	// SHARED_TOKEN keeps its first-insert position even though the myapp
	// category re-resolves it later.
	assert.Equal(t, []string{"API_KEY", "SHARED_TOKEN", "DATABASE_URL", "SESSION_KEY", "QUEUE_TOKEN"}, set.Names())
}

func TestBootstrapLastWriterWins(t *testing.T) {
	eng, fake := testEngine(t)
	fake.Seed("botmaro-staging--SHARED_TOKEN", "the-value")
	fake.Seed("botmaro-staging--API_KEY", "api-value")
	fake.Seed("botmaro-staging--DATABASE_URL", "db")

	// Both the env category and the myapp category resolve SHARED_TOKEN
	// against the same physical key, so the merged value is stable; the test
	// pins that the second resolution overwrites rather than duplicates.
	set, err := eng.Bootstrap(context.Background(), "staging", "")
	require.NoError(t, err)

	value, ok := set.Get("SHARED_TOKEN")
	require.True(t, ok)
	assert.Equal(t, "the-value", value)
	assert.Equal(t, 1, countOf(set.Names(), "SHARED_TOKEN"))
}

func countOf(names []string, want string) int {
	n := 0
	for _, name := range names {
		if name == want {
			n++
		}
	}
	return n
}

func TestBootstrapProjectScope(t *testing.T) {
	eng, fake := testEngine(t)
	fake.Seed("botmaro-staging--API_KEY", "api-value")
	fake.Seed("botmaro-staging--SHARED_TOKEN", "shared-value")
	fake.Seed("botmaro-staging--DATABASE_URL", "db")
	fake.Seed("botmaro-staging--QUEUE_TOKEN", "queue-value")

	set, err := eng.Bootstrap(context.Background(), "staging", "myapp")
	require.NoError(t, err)

	_, hasQueue := set.Get("QUEUE_TOKEN")
	assert.False(t, hasQueue, "other projects' secrets must not leak into a scoped bootstrap")
	_, hasAPI := set.Get("API_KEY")
	assert.True(t, hasAPI, "environment-level secrets are always in scope")
}

func TestBootstrapMissingSecretFallsBackToDefault(t *testing.T) {
	eng, fake := testEngine(t)
	fake.Seed("botmaro-staging--API_KEY", "api-value")
	fake.Seed("botmaro-staging--SHARED_TOKEN", "shared-value")
	fake.Seed("botmaro-staging--DATABASE_URL", "db")

	set, err := eng.Bootstrap(context.Background(), "staging", "myapp")
	require.NoError(t, err)

	value, ok := set.Get("SESSION_KEY")
	require.True(t, ok)
	assert.Equal(t, "dev-session", value)
}

func TestBootstrapMissingSecretWithoutDefaultIsOmitted(t *testing.T) {
	eng, fake := testEngine(t)
	fake.Seed("botmaro-staging--API_KEY", "api-value")
	fake.Seed("botmaro-staging--SHARED_TOKEN", "shared-value")

	// DATABASE_URL is required but absent; bootstrap still succeeds and just
	// omits it. Absence is check's concern.
	set, err := eng.Bootstrap(context.Background(), "staging", "")
	require.NoError(t, err)

	_, ok := set.Get("DATABASE_URL")
	assert.False(t, ok)
}

func TestBootstrapFetchErrorAborts(t *testing.T) {
	eng, fake := testEngine(t)
	fake.Seed("botmaro-staging--API_KEY", "api-value")
	fake.FailGet["botmaro-staging--DATABASE_URL"] = &smerrors.SecretFetchError{
		Key: "botmaro-staging--DATABASE_URL",
		Err: errors.New("permission denied"),
	}

	_, err := eng.Bootstrap(context.Background(), "staging", "")
	var fetchErr *smerrors.SecretFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "DATABASE_URL", fetchErr.Secret, "the error must name the logical secret")
}

func TestBootstrapUnknownEnvironment(t *testing.T) {
	eng, _ := testEngine(t)
	_, err := eng.Bootstrap(context.Background(), "nope", "")
	var notFound *smerrors.EnvironmentNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestBootstrapUnknownProject(t *testing.T) {
	eng, _ := testEngine(t)
	_, err := eng.Bootstrap(context.Background(), "staging", "nope")
	var notFound *smerrors.ProjectNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestListReportsAbsentSecrets(t *testing.T) {
	eng, fake := testEngine(t)
	fake.Seed("botmaro-staging--API_KEY", "api-value")

	entries, err := eng.List(context.Background(), "staging", "")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.True(t, byName["API_KEY"].Found)
	assert.Equal(t, "api-value", byName["API_KEY"].Value)
	assert.False(t, byName["DATABASE_URL"].Found)
	assert.Equal(t, "database_secrets", byName["DATABASE_URL"].Category)
	assert.Equal(t, "myapp", byName["SESSION_KEY"].Project)
}

func TestSecretSetOrdering(t *testing.T) {
	set := NewSecretSet()
	set.Put("A", "1")
	set.Put("B", "2")
	set.Put("A", "3")

	assert.Equal(t, []string{"A", "B"}, set.Names())
	value, _ := set.Get("A")
	assert.Equal(t, "3", value)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, map[string]string{"A": "3", "B": "2"}, set.Values())
}
