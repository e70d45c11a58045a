package pot

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/systest/driver/framework"
	"github.com/systest/driver/framework/logging"
)

type environment struct {
	config  TestConfiguration
	results Results
}

// T represents a test scope. It is very similar to Go's testing.T type.
type T struct {
	env        *environment
	path       framework.TestPath
	logger     *zap.Logger
	failed     bool
	skipped    bool
	skipReason string
	cleanups   []func()
	errors     []error
}

// TestConfiguration contains options for the entire run.
type TestConfiguration struct {
	// Filter is an optional function for determining which tests to run based on their paths.
	Filter Filter

	// TestLogger receives status information about each test.
	TestLogger TestLogger

	// RootLogger is the logger of the top-level scope. If nil, the top-level scope logs nowhere.
	RootLogger *zap.Logger

	// NewLogger creates the logger for each test. It is closed when the test ends. If nil, tests
	// use their parent's logger.
	NewLogger func(framework.TestPath) (*logging.Logger, error)
}

// Run starts a top-level test scope.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	if config.RootLogger == nil {
		config.RootLogger = zap.NewNop()
	}
	env := &environment{config: config}
	t := &T{env: env, logger: config.RootLogger}
	t.run(action)
	return env.results
}

func (t *T) run(action func(*T)) (result TestResult) {
	result.Path = t.path
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			if t.skipped {
				return
			}
			t.failed = true
			var addError error
			if _, ok := r.(*T); ok {
				if len(t.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = errors.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				t.recordError(addError)
			}
		}
		result.Errors = t.errors
		result.Duration = time.Since(started)
		if t.failed {
			t.env.results.Failures = append(t.env.results.Failures, result)
		}
		t.env.results.Tests = append(t.env.results.Tests, result)
	}()
	defer t.runCleanups()

	action(t)
	return result
}

func (t *T) runCleanups() {
	for i := len(t.cleanups) - 1; i >= 0; i-- {
		t.cleanups[i]()
	}
}

// Path returns the full path of the current test.
func (t *T) Path() framework.TestPath {
	return t.path
}

// Run runs a subtest in its own scope.
//
// This is equivalent to Go's testing.T.Run. The subtest gets its own logger from
// TestConfiguration.NewLogger; if that fails, the subtest fails without running.
func (t *T) Run(name string, action func(*T)) {
	path := t.path.Plus(name)

	t.env.config.TestLogger.TestStarted(path)
	if t.env.config.Filter != nil && !t.env.config.Filter.Match(path) {
		t.skip(path, "excluded by filter parameters")
		return
	}
	c1 := &T{
		path:   path,
		env:    t.env,
		logger: t.logger,
	}
	result := c1.run(func(c *T) {
		c.useOwnLogger()
		action(c)
	})
	if c1.skipped {
		t.skip(path, c1.skipReason)
	} else {
		t.env.config.TestLogger.TestFinished(path, result, c1.failed)
	}
}

func (t *T) useOwnLogger() {
	newLogger := t.env.config.NewLogger
	if newLogger == nil {
		return
	}
	logger, err := newLogger(t.path)
	if err != nil {
		t.Errorf("could not create logger for test: %v", err)
		t.FailNow()
	}
	t.logger = logger.Logger
	t.Defer(func() {
		if err := logger.Close(); err != nil {
			t.env.config.RootLogger.Warn("could not close test logger",
				zap.Stringer("test", t.path), zap.Error(err))
		}
	})
}

func (t *T) skip(path framework.TestPath, reason string) {
	t.env.results.Skipped = append(t.env.results.Skipped, TestResult{Path: path})
	t.env.config.TestLogger.TestSkipped(path, reason)
}

// Errorf reports a test failure. It is equivalent to Go's testing.T.Errorf. It does not cause the
// test to terminate, but marks it as failed and writes the message to the test's logger.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	t.recordError(fmt.Errorf(format, args...))
}

func (t *T) recordError(err error) {
	t.errors = append(t.errors, err)
	t.logger.Error("test failure", zap.Error(err))
	t.env.config.TestLogger.TestError(t.path, err)
}

// FailNow causes the test to immediately terminate and be marked as failed.
func (t *T) FailNow() {
	panic(t)
}

// Skip causes the test to immediately terminate and be marked as skipped.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is equivalent to Skip but provides a message.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Logger returns the logger of this test scope. With a logs directory configured, it writes
// every record to the test's own log file and the warnings to the console as well.
func (t *T) Logger() *zap.Logger {
	return t.logger
}

// Defer schedules a cleanup function which is guaranteed to be called when this test scope
// exits for any reason. Unlike a Go defer statement, Defer can be used from within helper
// functions.
func (t *T) Defer(cleanupFn func()) {
	t.cleanups = append(t.cleanups, cleanupFn)
}

// Helper exists so that *T satisfies helpers.TestContext; stack traces are not recorded.
func (t *T) Helper() {}
