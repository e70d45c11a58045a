package helpers

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// TestContext is a minimal interface for types like *testing.T and *pot.T representing a
// test that can fail. Functions can use this to avoid specific dependencies on those packages.
type TestContext interface {
	Errorf(msgFormat string, msgArgs ...interface{})
	FailNow()
	Helper()
}

// TestRecorder is a TestContext that only records what happened, for testing test helpers.
type TestRecorder struct {
	Errors     []string
	Terminated bool
	// PanicOnTerminate makes FailNow panic with the recorder, imitating a test scope exiting.
	PanicOnTerminate bool
}

func (t *TestRecorder) Errorf(msgFormat string, msgArgs ...interface{}) {
	t.Errors = append(t.Errors, fmt.Sprintf(msgFormat, msgArgs...))
}

func (t *TestRecorder) FailNow() {
	t.Terminated = true
	if t.PanicOnTerminate {
		panic(t)
	}
}

func (t *TestRecorder) Helper() {}

// Err returns all recorded failures joined into one error, or nil.
func (t *TestRecorder) Err() error {
	if len(t.Errors) == 0 {
		return nil
	}
	return errors.New(strings.Join(t.Errors, ", "))
}
