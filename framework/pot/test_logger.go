package pot

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/systest/driver/framework"
)

var consoleTestErrorColor = color.New(color.FgYellow)              //nolint:gochecknoglobals
var consoleTestFailedColor = color.New(color.FgRed)                //nolint:gochecknoglobals
var consoleTestSkippedColor = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals
var allTestsPassedColor = color.New(color.FgGreen)                 //nolint:gochecknoglobals

// TestLogger receives status information about each test.
type TestLogger interface {
	TestStarted(path framework.TestPath)
	TestError(path framework.TestPath, err error)
	TestFinished(path framework.TestPath, result TestResult, failed bool)
	TestSkipped(path framework.TestPath, reason string)
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(framework.TestPath)                    {}
func (n nullTestLogger) TestError(framework.TestPath, error)               {}
func (n nullTestLogger) TestFinished(framework.TestPath, TestResult, bool) {}
func (n nullTestLogger) TestSkipped(framework.TestPath, string)            {}

// ConsoleTestLogger prints one status line per test event. The detailed output of a test goes
// to its own logger instead.
type ConsoleTestLogger struct {
	// Out defaults to os.Stdout.
	Out io.Writer
}

func (c ConsoleTestLogger) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c ConsoleTestLogger) TestStarted(path framework.TestPath) {
	_, _ = fmt.Fprintf(c.out(), "[%s]\n", path)
}

func (c ConsoleTestLogger) TestError(path framework.TestPath, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		_, _ = consoleTestErrorColor.Fprintf(c.out(), "  %s\n", line)
	}
}

func (c ConsoleTestLogger) TestFinished(path framework.TestPath, result TestResult, failed bool) {
	if failed {
		_, _ = consoleTestFailedColor.Fprintf(c.out(), "  FAILED: %s (%s)\n", path, result.Duration)
	}
}

func (c ConsoleTestLogger) TestSkipped(path framework.TestPath, reason string) {
	if reason == "" {
		_, _ = consoleTestSkippedColor.Fprintf(c.out(), "  SKIPPED: %s\n", path)
	} else {
		_, _ = consoleTestSkippedColor.Fprintf(c.out(), "  SKIPPED: %s (%s)\n", path, reason)
	}
}

// PrintResults writes the summary of a run to w.
func PrintResults(w io.Writer, results Results) {
	if results.OK() {
		_, _ = allTestsPassedColor.Fprintf(w, "All tests passed (%d run, %d skipped)\n",
			len(results.Tests), len(results.Skipped))
		return
	}
	_, _ = consoleTestFailedColor.Fprintf(w, "FAILED TESTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		_, _ = consoleTestFailedColor.Fprintf(w, "  * %s\n", f.Path)
	}
}
