// Package envstore is the key-value environment store of a test run. The driver writes the
// run's configuration into it once during bootstrap; infrastructure provisioning code reads it
// back by key.
//
// Keys are relative, slash-separated paths such as "farm/base_url". Values are opaque bytes;
// WriteObject and ReadObject store JSON.
package envstore

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Read when nothing was written under the key.
var ErrNotFound = errors.New("key not found in environment store")

// ErrInvalidKey is returned for keys that are empty, absolute, or contain empty, "." or ".."
// segments.
var ErrInvalidKey = errors.New("invalid environment store key")

// Store is implemented by every environment store backend.
type Store interface {
	// Write stores data under key, replacing any previous value.
	Write(key string, data []byte) error
	// Read returns the data stored under key, or an error wrapping ErrNotFound.
	Read(key string) ([]byte, error)
}

// ValidateKey checks that key can be used with any backend.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return errors.Wrapf(ErrInvalidKey, "%q", key)
		}
	}
	return nil
}

// JoinKey builds a key from segments.
func JoinKey(segments ...string) string {
	return strings.Join(segments, "/")
}

// WriteObject stores the JSON encoding of value under key.
func WriteObject(s Store, key string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "could not encode value for %q", key)
	}
	return s.Write(key, data)
}

// ReadObject decodes the JSON stored under key into target.
func ReadObject(s Store, key string, target interface{}) error {
	data, err := s.Read(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrapf(err, "could not decode value of %q", key)
	}
	return nil
}
