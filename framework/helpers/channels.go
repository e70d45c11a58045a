package helpers

import (
	"fmt"
	"time"

	"github.com/systest/driver/framework/opt"
)

// NonBlockingSend sends value only if ch has room for it right now. It returns false if the
// value was not sent.
func NonBlockingSend[V any](ch chan<- V, value V) bool {
	select {
	case ch <- value:
		return true
	default:
		return false
	}
}

// TryReceive waits up to timeout for a value from ch.
func TryReceive[V any](ch <-chan V, timeout time.Duration) opt.Maybe[V] {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case value := <-ch:
		return opt.Some(value)
	case <-deadline.C:
		return opt.None[V]()
	}
}

// RequireValue returns the next value from ch, or fails the test and stops it if none arrives
// within timeout. An optional format string and arguments replace the default failure message.
func RequireValue[V any](t TestContext, ch <-chan V, timeout time.Duration, msgAndArgs ...interface{}) V {
	t.Helper()
	maybeValue := TryReceive(ch, timeout)
	if !maybeValue.IsDefined() {
		var empty V
		t.Errorf("%s", failureMessage(msgAndArgs, "timed out waiting for value of type %T", empty))
		t.FailNow()
	}
	return maybeValue.Value()
}

// RequireNoMoreValues fails the test and stops it if ch yields a value within timeout.
func RequireNoMoreValues[V any](t TestContext, ch <-chan V, timeout time.Duration, msgAndArgs ...interface{}) {
	t.Helper()
	if maybeValue := TryReceive(ch, timeout); maybeValue.IsDefined() {
		t.Errorf("%s", failureMessage(msgAndArgs, "received unexpected extra value of type %T", maybeValue.Value()))
		t.FailNow()
	}
}

func failureMessage(msgAndArgs []interface{}, defaultFormat string, defaultArg interface{}) string {
	if len(msgAndArgs) == 0 {
		return fmt.Sprintf(defaultFormat, defaultArg)
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
