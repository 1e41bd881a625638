// Package execenv is the side-effecting sink that exports resolved secrets
// into the current process environment. It is invoked only when the caller
// opts in; the aggregator itself never mutates global state.
package execenv

import "os"

// Export writes each pair into the process environment, overwriting any
// existing variables of the same name.
func Export(values map[string]string) error {
	for name, value := range values {
		if err := os.Setenv(name, value); err != nil {
			return err
		}
	}
	return nil
}
