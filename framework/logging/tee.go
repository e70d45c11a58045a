package logging

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/systest/driver/framework"
	"github.com/systest/driver/framework/opt"
)

// NewTeeLogger returns the logger for a single test.
//
// Without a base directory this is the root logger itself. Otherwise every record is written to
// two places: the root logger's console pipeline, but only at Warn and above, and a fresh
// per-test file at baseDir/<path>.log that receives everything. The file pipeline blocks its
// producers when full so the file is always complete; the console one drops.
//
// The returned Logger owns the file pipeline. Close it when the test ends.
func NewTeeLogger(
	root *Logger,
	path framework.TestPath,
	baseDir opt.Maybe[string],
	options ...PipelineOption,
) (*Logger, error) {
	if !baseDir.IsDefined() {
		return root.Shared(), nil
	}

	filePath, err := path.LogFilePath(baseDir.Value())
	if err != nil {
		return nil, err
	}
	f, err := os.Create(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create log file for %q", path.String())
	}
	file := NewPipeline(path.String(), NewFileCore(f), Block, append(options, ReleaseOnClose(f))...)

	logger := root.WithOptions(zap.WrapCore(func(rootCore zapcore.Core) zapcore.Core {
		console, err := zapcore.NewIncreaseLevelCore(rootCore, zapcore.WarnLevel)
		if err != nil {
			// the root logger is already stricter than Warn
			console = rootCore
		}
		return zapcore.NewTee(console, file.Core())
	})).With(zap.String("test", path.String()))
	return &Logger{Logger: logger, owned: []*Pipeline{file}}, nil
}
