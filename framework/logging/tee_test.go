package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/systest/driver/framework"
	"github.com/systest/driver/framework/opt"
)

func newObservedRoot(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	dest, logs := observer.New(level)
	return NewRootLogger(dest), logs
}

func messages(logs *observer.ObservedLogs) []string {
	var ret []string
	for _, e := range logs.AllUntimed() {
		ret = append(ret, e.Message)
	}
	return ret
}

func TestTeeLoggerSplitsBySeverity(t *testing.T) {
	root, console := newObservedRoot(zapcore.DebugLevel)
	defer root.Close() //nolint:errcheck
	base := t.TempDir()
	path := framework.TestPath{"pot1", "basic", "connectivity"}

	tee, err := NewTeeLogger(root, path, opt.Some(base))
	require.NoError(t, err)

	tee.Debug("verbose detail")
	tee.Info("quiet progress")
	tee.Warn("loud warning")
	tee.Error("loud error")
	require.NoError(t, tee.Close())
	require.NoError(t, root.Sync())

	assert.Equal(t, []string{"loud warning", "loud error"}, messages(console))
	for _, e := range console.AllUntimed() {
		assert.Equal(t, "pot1/basic/connectivity", e.ContextMap()["test"])
	}

	data, err := os.ReadFile(filepath.Join(base, "pot1", "basic", "connectivity.log"))
	require.NoError(t, err)
	content := string(data)
	for _, m := range []string{"verbose detail", "quiet progress", "loud warning", "loud error"} {
		assert.Contains(t, content, m)
	}
	assert.Contains(t, content, "DEBUG")
	assert.Contains(t, content, `"test": "pot1/basic/connectivity"`)
}

func TestTeeLoggerFileIsComplete(t *testing.T) {
	root, _ := newObservedRoot(zapcore.InfoLevel)
	defer root.Close() //nolint:errcheck
	base := t.TempDir()

	tee, err := NewTeeLogger(root, framework.TestPath{"pot", "busy"}, opt.Some(base), WithCapacity(8))
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		tee.Debug("line")
	}
	require.NoError(t, tee.Close())

	stats := tee.Pipelines()[0].Stats()
	assert.Equal(t, Stats{Enqueued: 1000, Delivered: 1000}, stats)
	assert.Equal(t, Block, tee.Pipelines()[0].Policy())
}

func TestTeeLoggerTruncatesExistingFile(t *testing.T) {
	root, _ := newObservedRoot(zapcore.InfoLevel)
	defer root.Close() //nolint:errcheck
	base := t.TempDir()
	path := framework.TestPath{"pot", "rerun"}
	logFile, err := path.LogFilePath(base)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(logFile, []byte("stale contents from an earlier run\n"), 0o600))

	tee, err := NewTeeLogger(root, path, opt.Some(base))
	require.NoError(t, err)
	tee.Info("fresh")
	require.NoError(t, tee.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.Contains(t, string(data), "fresh")
}

func TestTeeLoggerWithStrictRoot(t *testing.T) {
	root, console := newObservedRoot(zapcore.ErrorLevel)
	defer root.Close() //nolint:errcheck
	base := t.TempDir()

	tee, err := NewTeeLogger(root, framework.TestPath{"pot", "strict"}, opt.Some(base))
	require.NoError(t, err)
	tee.Warn("warning")
	tee.Error("error")
	require.NoError(t, tee.Close())
	require.NoError(t, root.Sync())

	assert.Equal(t, []string{"error"}, messages(console))
	data, err := os.ReadFile(filepath.Join(base, "pot", "strict.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "warning")
}

func TestTeeLoggerWithoutBaseDirIsRootLogger(t *testing.T) {
	root, console := newObservedRoot(zapcore.DebugLevel)
	defer root.Close() //nolint:errcheck

	tee, err := NewTeeLogger(root, framework.TestPath{"pot1", "basic", "connectivity"}, opt.None[string]())
	require.NoError(t, err)
	assert.Same(t, root.Logger, tee.Logger)
	assert.Empty(t, tee.Pipelines())

	tee.Info("info goes to the console as before")
	require.NoError(t, tee.Close())
	// closing the tee does not close the root pipeline
	root.Info("still alive")
	require.NoError(t, root.Sync())

	assert.Equal(t, []string{"info goes to the console as before", "still alive"}, messages(console))
}

func TestTeeLoggerFailsWhenDirectoryCannotBeCreated(t *testing.T) {
	root, _ := newObservedRoot(zapcore.InfoLevel)
	defer root.Close() //nolint:errcheck
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "pot"), nil, 0o600))

	_, err := NewTeeLogger(root, framework.TestPath{"pot", "case"}, opt.Some(base))
	assert.Error(t, err)
}

func TestRootLoggerOwnsDropNewestPipeline(t *testing.T) {
	root, console := newObservedRoot(zapcore.InfoLevel)
	require.Len(t, root.Pipelines(), 1)
	p := root.Pipelines()[0]
	assert.Equal(t, DropNewest, p.Policy())
	assert.Equal(t, DefaultCapacity, p.Capacity())

	root.Info("hello")
	require.NoError(t, root.Close())
	assert.Equal(t, 1, console.Len())

	shared := root.Shared()
	assert.Same(t, root.Logger, shared.Logger)
	assert.Empty(t, shared.Pipelines())
}

func TestTeeLoggerKeepsRootLoggerConfiguration(t *testing.T) {
	root, console := newObservedRoot(zapcore.DebugLevel)
	defer root.Close() //nolint:errcheck
	configured := &Logger{Logger: root.Named("driver").WithOptions(zap.AddCaller())}
	base := t.TempDir()

	tee, err := NewTeeLogger(configured, framework.TestPath{"pot", "named"}, opt.Some(base))
	require.NoError(t, err)
	tee.Warn("visible")
	require.NoError(t, tee.Close())
	require.NoError(t, root.Sync())

	entries := console.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "driver", entries[0].LoggerName)
	assert.True(t, entries[0].Caller.Defined)

	data, err := os.ReadFile(filepath.Join(base, "pot", "named.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "driver")
}
