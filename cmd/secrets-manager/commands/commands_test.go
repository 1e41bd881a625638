package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/botmaro/secrets-manager/internal/engine"
	"github.com/botmaro/secrets-manager/internal/logging"
	"github.com/botmaro/secrets-manager/internal/store"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
environments:
  staging:
    name: staging
    cloud_project: my-gcp-project
    service_accounts:
      - env-sa@p.iam.gserviceaccount.com
    api_secrets:
      - name: API_KEY
      - name: OPTIONAL_TOKEN
        required: false
    projects:
      myapp:
        project_id: myapp-123
        app_secrets:
          - name: DATABASE_URL
`

// testSetup writes a config file and wires a fake store into the runtime
// config, exactly as main would minus the real GCP client.
func testSetup(t *testing.T) (*config.Config, *store.Fake) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	fake := store.NewFake()
	return &config.Config{
		Path:           path,
		Logger:         logging.New(false, true),
		NonInteractive: true,
		Store:          fake,
	}, fake
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestGetCommandMasksByDefault(t *testing.T) {
	cfg, fake := testSetup(t)
	fake.Seed("botmaro-staging--API_KEY", "sk-live-123456789")

	out, err := runCommand(t, NewGetCommand(cfg), "staging.API_KEY")
	require.NoError(t, err)
	assert.Contains(t, out, "sk-l...6789")
	assert.NotContains(t, out, "sk-live-123456789")
}

func TestGetCommandReveal(t *testing.T) {
	cfg, fake := testSetup(t)
	fake.Seed("botmaro-staging--API_KEY", "sk-live-123456789")

	out, err := runCommand(t, NewGetCommand(cfg), "staging.API_KEY", "--reveal")
	require.NoError(t, err)
	assert.Equal(t, "sk-live-123456789", out)
}

func TestGetCommandNotFound(t *testing.T) {
	cfg, _ := testSetup(t)
	_, err := runCommand(t, NewGetCommand(cfg), "staging.API_KEY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret not found")
}

func TestGetCommandRejectsScopeTargets(t *testing.T) {
	cfg, _ := testSetup(t)
	_, err := runCommand(t, NewGetCommand(cfg), "staging")
	require.Error(t, err)
}

func TestSetCommandCreatesAndUpdates(t *testing.T) {
	cfg, fake := testSetup(t)

	out, err := runCommand(t, NewSetCommand(cfg), "staging.API_KEY", "--value", "first-value")
	require.NoError(t, err)
	assert.Contains(t, out, "created (version 1)")

	out, err = runCommand(t, NewSetCommand(cfg), "staging.API_KEY", "--value", "second-value")
	require.NoError(t, err)
	assert.Contains(t, out, "updated (version 2)")

	value, err := fake.Get(context.Background(), "botmaro-staging--API_KEY", "latest")
	require.NoError(t, err)
	assert.Equal(t, "second-value", value)
}

func TestSetCommandProjectTargetSharesEnvironmentPrefix(t *testing.T) {
	cfg, fake := testSetup(t)

	_, err := runCommand(t, NewSetCommand(cfg), "staging.myapp.DATABASE_URL", "--value", "postgres://x")
	require.NoError(t, err)

	value, err := fake.Get(context.Background(), "botmaro-staging--DATABASE_URL", "latest")
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", value)
}

func TestSetCommandReadsValueFromStdin(t *testing.T) {
	cfg, fake := testSetup(t)

	// A regular file on stdin is indistinguishable from a pipe for the
	// char-device test, so the command reads the value from it.
	stdinFile := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(stdinFile, []byte("piped-value\n"), 0o600))
	f, err := os.Open(stdinFile)
	require.NoError(t, err)
	defer f.Close()

	oldStdin := os.Stdin
	os.Stdin = f
	t.Cleanup(func() { os.Stdin = oldStdin })

	out, err := runCommand(t, NewSetCommand(cfg), "staging.API_KEY")
	require.NoError(t, err)
	assert.Contains(t, out, "created (version 1)")

	value, err := fake.Get(context.Background(), "botmaro-staging--API_KEY", "")
	require.NoError(t, err)
	assert.Equal(t, "piped-value", value, "trailing newline must be trimmed")
}

func TestSetCommandWithGrant(t *testing.T) {
	cfg, fake := testSetup(t)

	_, err := runCommand(t, NewSetCommand(cfg), "staging.API_KEY",
		"--value", "v", "--grant", "bot@p.iam.gserviceaccount.com")
	require.NoError(t, err)
	assert.True(t, fake.HasAccess("botmaro-staging--API_KEY", "bot@p.iam.gserviceaccount.com"))
}

func TestDeleteCommandForce(t *testing.T) {
	cfg, fake := testSetup(t)
	fake.Seed("botmaro-staging--API_KEY", "v")

	out, err := runCommand(t, NewDeleteCommand(cfg), "staging.API_KEY", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	_, err = fake.Get(context.Background(), "botmaro-staging--API_KEY", "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteCommandCancelledWithoutConfirmation(t *testing.T) {
	cfg, fake := testSetup(t)
	fake.Seed("botmaro-staging--API_KEY", "v")

	// Non-interactive mode answers no to the confirmation prompt.
	out, err := runCommand(t, NewDeleteCommand(cfg), "staging.API_KEY")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	_, err = fake.Get(context.Background(), "botmaro-staging--API_KEY", "")
	require.NoError(t, err)
}

func TestBootstrapCommand(t *testing.T) {
	cfg, fake := testSetup(t)
	fake.Seed("botmaro-staging--API_KEY", "api-value")
	fake.Seed("botmaro-staging--DATABASE_URL", "postgres://x")

	outFile := filepath.Join(t.TempDir(), ".env.staging")
	out, err := runCommand(t, NewBootstrapCommand(cfg), "staging", "--export=false", "--output", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 secrets for staging")

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "API_KEY=api-value")
	assert.Contains(t, string(data), "DATABASE_URL=postgres://x")
}

func TestListCommand(t *testing.T) {
	cfg, fake := testSetup(t)
	fake.Seed("botmaro-staging--API_KEY", "sk-live-123456789")

	out, err := runCommand(t, NewListCommand(cfg), "staging")
	require.NoError(t, err)
	assert.Contains(t, out, "API_KEY")
	assert.Contains(t, out, "api_secrets")
	assert.Contains(t, out, "<not found>")
	assert.Contains(t, out, "Total: 3 secrets")
	assert.NotContains(t, out, "sk-live-123456789")
}

func TestExportCommandJSON(t *testing.T) {
	cfg, fake := testSetup(t)
	fake.Seed("botmaro-staging--API_KEY", "api-value")

	out, err := runCommand(t, NewExportCommand(cfg), "staging", "--format", "json")
	require.NoError(t, err)

	var exported map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	assert.Equal(t, map[string]string{"API_KEY": "api-value"}, exported)
}

func TestImportCommand(t *testing.T) {
	cfg, fake := testSetup(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("API_KEY=imported\nDATABASE_URL=postgres://y\n"), 0o600))

	out, err := runCommand(t, NewImportCommand(cfg), "staging", "--input", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 secrets into staging (2 created, 0 updated)")

	value, err := fake.Get(context.Background(), "botmaro-staging--API_KEY", "")
	require.NoError(t, err)
	assert.Equal(t, "imported", value)
}

func TestGrantAccessCommand(t *testing.T) {
	cfg, fake := testSetup(t)

	out, err := runCommand(t, NewGrantAccessCommand(cfg), "staging",
		"-s", "a@p.iam.gserviceaccount.com", "-s", "b@p.iam.gserviceaccount.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Granted access to 3 secrets for 2 service accounts")
	assert.True(t, fake.HasAccess("botmaro-staging--API_KEY", "a@p.iam.gserviceaccount.com"))
	assert.True(t, fake.HasAccess("botmaro-staging--DATABASE_URL", "b@p.iam.gserviceaccount.com"))
}

func TestGrantAccessCommandRejectsSecretTargets(t *testing.T) {
	cfg, _ := testSetup(t)
	_, err := runCommand(t, NewGrantAccessCommand(cfg), "staging.API_KEY",
		"-s", "a@p.iam.gserviceaccount.com")
	require.Error(t, err)
}

func TestCheckCommandFailsOnMissingSecrets(t *testing.T) {
	cfg, _ := testSetup(t)

	out, err := runCommand(t, NewCheckCommand(cfg), "staging")
	require.Error(t, err)
	assert.Contains(t, out, "MISSING")
	assert.Contains(t, out, "API_KEY")
}

func TestCheckCommandJSON(t *testing.T) {
	cfg, fake := testSetup(t)
	for _, key := range []string{
		"botmaro-staging--API_KEY",
		"botmaro-staging--OPTIONAL_TOKEN",
		"botmaro-staging--DATABASE_URL",
	} {
		fake.Seed(key, "real-value-1234")
		fake.Grant(key, "env-sa@p.iam.gserviceaccount.com")
	}

	out, err := runCommand(t, NewCheckCommand(cfg), "staging", "--json")
	require.NoError(t, err)

	var report engine.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "staging", report.Environment)
	assert.Empty(t, report.MissingSecrets)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, NewVersionCommand("1.2.3", "abc123", "2026-08-23"))
	require.NoError(t, err)
	assert.Equal(t, "Botmaro Secrets Manager v1.2.3 (commit: abc123, built: 2026-08-23)\n", out)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "sk-l...6789", mask("sk-live-123456789"))
	assert.Equal(t, "***", mask("short"))
	assert.Equal(t, "***", mask("12345678"))
	assert.Equal(t, "1234...6789", mask("123456789"))
}
