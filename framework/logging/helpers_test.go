package logging

import (
	"errors"
	"sync"

	"go.uber.org/zap/zapcore"
)

// gatedCore holds every Write until the gate is opened, so tests can fill a pipeline's queue.
type gatedCore struct {
	zapcore.Core
	gate chan struct{}
	once *sync.Once
}

func newGatedCore(dest zapcore.Core) gatedCore {
	return gatedCore{Core: dest, gate: make(chan struct{}), once: &sync.Once{}}
}

func (g gatedCore) open() {
	g.once.Do(func() { close(g.gate) })
}

func (g gatedCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	<-g.gate
	return g.Core.Write(entry, fields)
}

type failingCore struct {
	zapcore.Core
}

func (f failingCore) Write(zapcore.Entry, []zapcore.Field) error {
	return errors.New("disk on fire")
}
