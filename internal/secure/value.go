// Package secure holds secret values in encrypted, mlocked memory while they
// are in transit between user input and the secret store.
package secure

import (
	"github.com/awnumar/memguard"
)

// Value wraps a memguard enclave. The plaintext exists in regular memory
// only inside Open/With calls; callers must not retain the opened buffer.
type Value struct {
	enclave *memguard.Enclave
}

// NewValue seals data into a protected enclave. The input slice is wiped by
// memguard as part of sealing and must not be reused.
func NewValue(data []byte) *Value {
	return &Value{enclave: memguard.NewEnclave(data)}
}

// Len returns the sealed payload size.
func (v *Value) Len() int {
	if v.enclave == nil {
		return 0
	}
	return v.enclave.Size()
}

// With decrypts the value, passes the plaintext to fn, and wipes it again
// before returning.
func (v *Value) With(fn func(data []byte) error) error {
	if v.enclave == nil {
		return fn(nil)
	}
	buf, err := v.enclave.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// String keeps accidental formatting redacted.
func (v *Value) String() string {
	return "[REDACTED]"
}
