package pot

import (
	"fmt"
	"time"

	"github.com/systest/driver/framework"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skipped  []TestResult
}

type TestResult struct {
	Path     framework.TestPath
	Errors   []error
	Duration time.Duration
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

type TestFailure struct {
	Path framework.TestPath
	Err  error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.Path, f.Err)
}

func (f TestFailure) Unwrap() error { return f.Err }
