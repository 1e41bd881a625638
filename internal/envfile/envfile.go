// Package envfile reads and writes secret mappings as .env or JSON files,
// preserving pair order for the .env format.
package envfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Format selects the file format.
type Format string

const (
	FormatEnv  Format = "env"
	FormatJSON Format = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatEnv:
		return FormatEnv, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected env or json)", s)
	}
}

// Pair is one NAME=value entry.
type Pair struct {
	Name  string
	Value string
}

// Write renders pairs to w in the given format. The .env format writes
// pairs in order; JSON emits a single object.
func Write(w io.Writer, pairs []Pair, format Format) error {
	switch format {
	case FormatJSON:
		obj := make(map[string]string, len(pairs))
		for _, p := range pairs {
			obj[p.Name] = p.Value
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(obj)
	default:
		for _, p := range pairs {
			if _, err := fmt.Fprintf(w, "%s=%s\n", p.Name, p.Value); err != nil {
				return err
			}
		}
		return nil
	}
}

// WriteFile writes pairs to path with secret-appropriate permissions.
func WriteFile(path string, pairs []Pair, format Format) error {
	var buf bytes.Buffer
	if err := Write(&buf, pairs, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// Read parses pairs from path. The .env format skips blank lines and
// comments and strips matching quotes; JSON pairs are returned sorted by
// name for determinism.
func Read(path string, format Format) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == FormatJSON {
		var obj map[string]string
		if err := json.NewDecoder(f).Decode(&obj); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		names := make([]string, 0, len(obj))
		for name := range obj {
			names = append(names, name)
		}
		sort.Strings(names)
		pairs := make([]Pair, 0, len(names))
		for _, name := range names {
			pairs = append(pairs, Pair{Name: name, Value: obj[name]})
		}
		return pairs, nil
	}

	var pairs []Pair
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("parsing %s line %d: expected NAME=value", path, lineNo)
		}
		pairs = append(pairs, Pair{
			Name:  strings.TrimSpace(name),
			Value: unquote(strings.TrimSpace(value)),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return pairs, nil
}

// unquote strips one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
