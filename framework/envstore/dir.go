package envstore

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DirStore keeps one file per key under a root directory, so "ssh/authorized_accounts_dir/alice"
// becomes <root>/ssh/authorized_accounts_dir/alice. Bootstrap scripts can consume the files
// directly.
type DirStore struct {
	root string
}

// NewDirStore returns a store rooted at dir. The directory is created on the first Write.
func NewDirStore(dir string) *DirStore {
	return &DirStore{root: dir}
}

// Root returns the store's directory.
func (d *DirStore) Root() string { return d.root }

func (d *DirStore) path(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

func (d *DirStore) Write(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	p := d.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrapf(err, "could not create directory for %q", key)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrapf(err, "could not write %q", key)
	}
	return nil
}

func (d *DirStore) Read(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(d.path(key))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "%q", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %q", key)
	}
	return data, nil
}
