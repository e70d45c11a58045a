package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a zap.Logger together with the pipelines it owns. Copies of a Logger that are
// handed out with Shared own nothing, so only the creator drains the pipelines with Close.
type Logger struct {
	*zap.Logger
	owned []*Pipeline
}

// NewRootLogger puts a DropNewest pipeline in front of dest and returns a logger that owns it.
func NewRootLogger(dest zapcore.Core, options ...PipelineOption) *Logger {
	p := NewPipeline("console", dest, DropNewest, options...)
	return &Logger{Logger: zap.New(p.Core()), owned: []*Pipeline{p}}
}

// Shared returns a Logger that writes to the same pipelines but does not own them.
func (l *Logger) Shared() *Logger {
	return &Logger{Logger: l.Logger}
}

// Pipelines returns the pipelines owned by this Logger.
func (l *Logger) Pipelines() []*Pipeline {
	return append([]*Pipeline(nil), l.owned...)
}

// Close drains and releases every owned pipeline, returning the first error.
func (l *Logger) Close() error {
	var first error
	for _, p := range l.owned {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
