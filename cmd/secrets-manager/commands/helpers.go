package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/botmaro/secrets-manager/internal/engine"
	"github.com/botmaro/secrets-manager/internal/envfile"
	"github.com/botmaro/secrets-manager/internal/secure"
	"github.com/botmaro/secrets-manager/internal/store"
	"golang.org/x/term"
)

// newEngine loads the configuration, resolves the environment, and wires an
// engine against its store.
func newEngine(ctx context.Context, cfg *config.Config, envName string) (*config.Environment, *engine.Engine, error) {
	env, st, err := openStore(ctx, cfg, envName)
	if err != nil {
		return nil, nil, err
	}
	return env, engine.New(cfg.Root, st, cfg.Logger), nil
}

// openStore loads the configuration and returns the environment together
// with its secret store.
func openStore(ctx context.Context, cfg *config.Config, envName string) (*config.Environment, store.Store, error) {
	if err := cfg.Load(); err != nil {
		return nil, nil, err
	}
	env, err := cfg.Root.Environment(envName)
	if err != nil {
		return nil, nil, err
	}
	st, err := cfg.StoreFor(ctx, env)
	if err != nil {
		return nil, nil, err
	}
	return env, st, nil
}

// mask shortens a secret value for display: first and last four characters
// when long enough, *** otherwise.
func mask(value string) string {
	if len(value) > 8 {
		return value[:4] + "..." + value[len(value)-4:]
	}
	return "***"
}

// pairsFromSet converts a resolved secret set into ordered envfile pairs.
func pairsFromSet(set *engine.SecretSet) []envfile.Pair {
	names := set.Names()
	pairs := make([]envfile.Pair, 0, len(names))
	for _, name := range names {
		value, _ := set.Get(name)
		pairs = append(pairs, envfile.Pair{Name: name, Value: value})
	}
	return pairs
}

// readSecretValue obtains a secret value from the --value flag, piped stdin,
// or a hidden interactive prompt, sealing it into protected memory.
func readSecretValue(cfg *config.Config, flagValue, secretName string) (*secure.Value, error) {
	if flagValue != "" {
		return secure.NewValue([]byte(flagValue)), nil
	}

	if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading value from stdin: %w", err)
		}
		value := strings.TrimRight(string(raw), "\r\n")
		return secure.NewValue([]byte(value)), nil
	}

	if cfg.NonInteractive {
		return nil, fmt.Errorf("no value given: pass --value or pipe the value on stdin in non-interactive mode")
	}

	fmt.Fprintf(os.Stderr, "Enter value for %s: ", secretName)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading hidden value: %w", err)
	}
	return secure.NewValue(raw), nil
}

// confirm asks a yes/no question on the terminal. Non-interactive mode
// always answers no.
func confirm(cfg *config.Config, question string) bool {
	if cfg.NonInteractive {
		return false
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
