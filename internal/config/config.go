// Package config loads and represents the declared secrets hierarchy:
// environments, optional projects nested inside them, and arbitrarily named
// secret categories within either. The loaded document is read-only for the
// lifetime of one command invocation; nothing here writes the file back.
package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	smerrors "github.com/botmaro/secrets-manager/internal/errors"
	"github.com/botmaro/secrets-manager/internal/logging"
	"github.com/botmaro/secrets-manager/internal/store"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var documentSchema string

// CategorySuffix marks a mapping key as a secret category. Any key ending in
// the suffix is a category; discovery enumerates all of them, never a fixed
// list, so configs with zero, one, or many categories behave identically.
const CategorySuffix = "_secrets"

// appName namespaces default environment prefixes ("botmaro-staging").
const appName = "botmaro"

// Declaration identifies one logical secret inside a category.
type Declaration struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool   `yaml:"required" json:"required"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
}

// UnmarshalYAML decodes a declaration with required defaulting to true.
func (d *Declaration) UnmarshalYAML(value *yaml.Node) error {
	type plain Declaration
	decl := plain{Required: true}
	if err := value.Decode(&decl); err != nil {
		return err
	}
	*d = Declaration(decl)
	return nil
}

// Category is a named, ordered list of declarations. Empty categories are
// kept with zero entries rather than dropped.
type Category struct {
	Name         string
	Declarations []Declaration
}

// Project is a sub-scope nested under an environment. Project grouping is a
// declaration-time concern only; it never changes physical key naming.
type Project struct {
	ProjectID       string
	ServiceAccounts []string
	Categories      []Category
}

// UnmarshalYAML decodes the known project fields and captures every
// *_secrets key, in document order, as a category.
func (p *Project) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("project must be a mapping, got %s", value.Tag)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		val := value.Content[i+1]
		switch key {
		case "project_id":
			if err := val.Decode(&p.ProjectID); err != nil {
				return err
			}
		case "service_accounts":
			if err := val.Decode(&p.ServiceAccounts); err != nil {
				return err
			}
		default:
			if strings.HasSuffix(key, CategorySuffix) {
				decls, err := decodeDeclarations(val)
				if err != nil {
					return fmt.Errorf("category %s: %w", key, err)
				}
				p.Categories = append(p.Categories, Category{Name: key, Declarations: decls})
			}
		}
	}
	return nil
}

// Environment is a top-level deployment scope. Prefix is the namespacing
// unit for every secret in the environment regardless of category.
type Environment struct {
	Name            string
	CloudProject    string
	Prefix          string
	ServiceAccounts []string
	Projects        map[string]*Project
	// ProjectNames preserves the declared mapping order of Projects, which
	// drives the deterministic enumeration order of the aggregator.
	ProjectNames []string
	Categories   []Category
}

// UnmarshalYAML decodes the known environment fields, captures *_secrets
// categories in document order, and preserves project declaration order.
func (e *Environment) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("environment must be a mapping, got %s", value.Tag)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		val := value.Content[i+1]
		switch key {
		case "name":
			if err := val.Decode(&e.Name); err != nil {
				return err
			}
		case "cloud_project":
			if err := val.Decode(&e.CloudProject); err != nil {
				return err
			}
		case "prefix":
			if err := val.Decode(&e.Prefix); err != nil {
				return err
			}
		case "service_accounts":
			if err := val.Decode(&e.ServiceAccounts); err != nil {
				return err
			}
		case "projects":
			if val.Kind == yaml.ScalarNode && val.Tag == "!!null" {
				continue
			}
			if val.Kind != yaml.MappingNode {
				return fmt.Errorf("projects must be a mapping, got %s", val.Tag)
			}
			e.Projects = make(map[string]*Project, len(val.Content)/2)
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				proj := &Project{}
				if err := val.Content[j+1].Decode(proj); err != nil {
					return fmt.Errorf("project %s: %w", name, err)
				}
				e.Projects[name] = proj
				e.ProjectNames = append(e.ProjectNames, name)
			}
		default:
			if strings.HasSuffix(key, CategorySuffix) {
				decls, err := decodeDeclarations(val)
				if err != nil {
					return fmt.Errorf("category %s: %w", key, err)
				}
				e.Categories = append(e.Categories, Category{Name: key, Declarations: decls})
			}
		}
	}
	return nil
}

// decodeDeclarations decodes a category value, treating an explicit null as
// an empty category.
func decodeDeclarations(val *yaml.Node) ([]Declaration, error) {
	if val.Kind == yaml.ScalarNode && val.Tag == "!!null" {
		return []Declaration{}, nil
	}
	var decls []Declaration
	if err := val.Decode(&decls); err != nil {
		return nil, err
	}
	if decls == nil {
		decls = []Declaration{}
	}
	return decls, nil
}

// SecretKey maps a logical secret name to its physical secret-store key.
// Project scoping never alters the result: every secret in the environment
// shares the environment prefix, keeping store keys flat and stable even if
// project groupings are reorganized later.
func (e *Environment) SecretKey(name string) string {
	return e.Prefix + "--" + name
}

// Project returns the named project.
func (e *Environment) Project(name string) (*Project, error) {
	if p, ok := e.Projects[name]; ok {
		return p, nil
	}
	return nil, &smerrors.ProjectNotFoundError{
		Environment: e.Name,
		Name:        name,
		Available:   append([]string(nil), e.ProjectNames...),
	}
}

// Root is the loaded configuration document.
type Root struct {
	Version      string                  `yaml:"version"`
	Environments map[string]*Environment `yaml:"environments"`
}

// Environment returns the named environment.
func (r *Root) Environment(name string) (*Environment, error) {
	if env, ok := r.Environments[name]; ok {
		return env, nil
	}
	available := make([]string, 0, len(r.Environments))
	for envName := range r.Environments {
		available = append(available, envName)
	}
	sort.Strings(available)
	return nil, &smerrors.EnvironmentNotFoundError{Name: name, Available: available}
}

// Load reads, validates, and parses a configuration file. YAML and JSON are
// both accepted; JSON parses through the same decoder.
func Load(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &smerrors.ConfigNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// Structural validation runs against a generic decode of the document so
	// that missing required fields surface as schema errors, not parse errors.
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, &smerrors.ConfigParseError{Path: path, Err: err}
	}
	if problems := validateDocument(generic); len(problems) > 0 {
		return nil, &smerrors.ConfigSchemaError{Path: path, Problems: problems}
	}

	var root Root
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &smerrors.ConfigParseError{Path: path, Err: err}
	}

	if root.Version == "" {
		root.Version = "1.0"
	}
	for _, env := range root.Environments {
		if env.Prefix == "" {
			env.Prefix = fmt.Sprintf("%s-%s", appName, env.Name)
		}
	}

	return &root, nil
}

// validateDocument checks the generic document against the embedded JSON
// schema and returns human-readable problems.
func validateDocument(doc interface{}) []string {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return []string{fmt.Sprintf("document is not representable as JSON: %v", err)}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return []string{fmt.Sprintf("schema validation error: %v", err)}
	}

	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return problems
}

// DefaultPath returns the configuration path from SECRETS_CONFIG_PATH,
// falling back to secrets.yml in the working directory.
func DefaultPath() string {
	if path := os.Getenv("SECRETS_CONFIG_PATH"); path != "" {
		return path
	}
	return "secrets.yml"
}

// Config holds the per-invocation runtime state shared by all commands.
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Root           *Root

	// Store overrides store construction when set; tests inject a fake here.
	Store store.Store
}

// Load parses and validates the configuration file at Path.
func (c *Config) Load() error {
	root, err := Load(c.Path)
	if err != nil {
		return err
	}
	c.Root = root
	return nil
}

// StoreFor returns the secret store for an environment, creating a Google
// Secret Manager client against the environment's cloud project unless a
// store was injected.
func (c *Config) StoreFor(ctx context.Context, env *Environment) (store.Store, error) {
	if c.Store != nil {
		return c.Store, nil
	}
	return store.NewGCPStore(ctx, store.GCPOptions{ProjectID: env.CloudProject}, c.Logger)
}
