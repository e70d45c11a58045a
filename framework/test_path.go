package framework

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const logFileExtension = ".log"

// ErrEmptyTestPath is returned when a TestPath with no segments is mapped to a file.
var ErrEmptyTestPath = errors.New("test path has no segments")

// ErrInvalidTestPath is returned when a segment of a TestPath cannot be used as a file name.
var ErrInvalidTestPath = errors.New("invalid test path")

// TestPath identifies a test by its position in the pot hierarchy, for instance
// {"pot1", "basic", "connectivity"}. The last segment is the leaf name of the test.
type TestPath []string

func (p TestPath) String() string {
	return strings.Join(p, "/")
}

// Plus returns a copy of the path with one more segment; the receiver is not modified.
func (p TestPath) Plus(name string) TestPath {
	return append(append(TestPath(nil), p...), name)
}

// Leaf returns the last segment, or "" for an empty path.
func (p TestPath) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns every segment but the leaf.
func (p TestPath) Parent() TestPath {
	if len(p) == 0 {
		return nil
	}
	return append(TestPath(nil), p[:len(p)-1]...)
}

// Validate checks that every segment can be used as a single file name: it must not be empty,
// "." or "..", and must not contain a path separator or a NUL byte.
func (p TestPath) Validate() error {
	for _, segment := range p {
		if segment == "" || segment == "." || segment == ".." || strings.ContainsAny(segment, "/\\\x00") {
			return errors.Wrapf(ErrInvalidTestPath, "segment %q of %q", segment, p.String())
		}
	}
	return nil
}

// ToFilePath joins the segments under baseDir without touching the filesystem.
func (p TestPath) ToFilePath(baseDir string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(append([]string{baseDir}, p...)...), nil
}

// LogFilePath returns baseDir/seg0/.../leaf.log, creating the directories above the file if they
// do not exist yet. Calling it again for the same path is harmless.
func (p TestPath) LogFilePath(baseDir string) (string, error) {
	if len(p) == 0 {
		return "", ErrEmptyTestPath
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	dir, _ := p.Parent().ToFilePath(baseDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create log directory for %q", p.String())
	}
	return filepath.Join(dir, p.Leaf()+logFileExtension), nil
}
