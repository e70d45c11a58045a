package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap/zapcore"

	"github.com/systest/driver/framework/helpers"
)

// DefaultCapacity is the number of records a Pipeline buffers between its producers and its
// delivery goroutine.
const DefaultCapacity = 8192

const syncRetryInterval = time.Millisecond

// OverflowPolicy decides what a Pipeline does with a record when its queue is full.
type OverflowPolicy int

const (
	// DropNewest discards the incoming record and counts it; producers never wait.
	DropNewest OverflowPolicy = iota
	// Block makes the producer wait until the delivery goroutine has freed a slot.
	Block
)

func (o OverflowPolicy) String() string {
	switch o {
	case DropNewest:
		return "drop-newest"
	case Block:
		return "block"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(o))
	}
}

// Stats is a snapshot of a Pipeline's counters. Once the pipeline is closed,
// Delivered+Dropped+Failed equals Enqueued.
type Stats struct {
	Enqueued  uint64
	Delivered uint64
	Dropped   uint64
	Failed    uint64
}

type record struct {
	entry  zapcore.Entry
	fields []zapcore.Field
	// flush is set on sync markers, which carry no entry.
	flush chan struct{}
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithCapacity overrides DefaultCapacity. Values below 1 are ignored.
func WithCapacity(capacity int) PipelineOption {
	return func(p *Pipeline) {
		if capacity > 0 {
			p.capacity = capacity
		}
	}
}

// WithLastResort sets where destination write errors are reported. The default is os.Stderr.
func WithLastResort(w io.Writer) PipelineOption {
	return func(p *Pipeline) {
		if w != nil {
			p.lastResort = w
		}
	}
}

// WithMetrics makes the pipeline count its records in m.
func WithMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// ReleaseOnClose registers c to be closed after the queue has been drained.
func ReleaseOnClose(c io.Closer) PipelineOption {
	return func(p *Pipeline) { p.release = append(p.release, c) }
}

// Pipeline delivers log records to a destination core from a single background goroutine, in
// the order they were enqueued. The queue is bounded; what happens when it is full depends on the
// pipeline's OverflowPolicy.
//
// Errors returned by the destination never reach the producers. They are written to the
// pipeline's last-resort writer and counted as failed.
type Pipeline struct {
	name       string
	dest       zapcore.Core
	policy     OverflowPolicy
	capacity   int
	queue      chan record
	done       chan struct{}
	lastResort io.Writer
	metrics    *Metrics
	release    []io.Closer

	lock      sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error

	enqueued  atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewPipeline starts a pipeline in front of dest. The name identifies the sink in last-resort
// error reports.
func NewPipeline(name string, dest zapcore.Core, policy OverflowPolicy, options ...PipelineOption) *Pipeline {
	p := &Pipeline{
		name:       name,
		dest:       dest,
		policy:     policy,
		capacity:   DefaultCapacity,
		done:       make(chan struct{}),
		lastResort: os.Stderr,
	}
	for _, o := range options {
		o(p)
	}
	p.queue = make(chan record, p.capacity)
	go p.run()
	return p
}

// Name returns the sink name given to NewPipeline.
func (p *Pipeline) Name() string { return p.name }

// Policy returns the pipeline's overflow policy.
func (p *Pipeline) Policy() OverflowPolicy { return p.policy }

// Capacity returns the size of the pipeline's queue.
func (p *Pipeline) Capacity() int { return p.capacity }

// Core returns a zapcore.Core that enqueues every record it is given on this pipeline.
func (p *Pipeline) Core() zapcore.Core {
	return pipelineCore{p: p}
}

// Stats returns the current counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Enqueued:  p.enqueued.Load(),
		Delivered: p.delivered.Load(),
		Dropped:   p.dropped.Load(),
		Failed:    p.failed.Load(),
	}
}

// Sync waits until every record enqueued before the call has been handed to the destination,
// then syncs the destination. It returns immediately on a closed pipeline, and gives up without
// waiting if the pipeline is closed while Sync is waiting for room in the queue.
func (p *Pipeline) Sync() error {
	ack := make(chan struct{})
	for {
		sent, closed := p.offerFlush(ack)
		if closed {
			return nil
		}
		if sent {
			break
		}
		time.Sleep(syncRetryInterval)
	}
	<-ack
	return nil
}

// offerFlush puts a flush marker on the queue if there is room. The lock is held for the attempt
// only, never while waiting for room.
func (p *Pipeline) offerFlush(ack chan struct{}) (sent, closed bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if p.closed {
		return false, true
	}
	return helpers.NonBlockingSend(p.queue, record{flush: ack}), false
}

// Close stops accepting records, waits for the queued ones to be delivered, syncs the
// destination and releases anything registered with ReleaseOnClose. Records written after Close
// are counted as dropped. Close may be called more than once.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.lock.Lock()
		p.closed = true
		close(p.queue)
		p.lock.Unlock()

		<-p.done
		if err := p.dest.Sync(); err != nil && !isUnsyncable(err) {
			p.closeErr = err
		}
		for _, c := range p.release {
			if err := c.Close(); err != nil && p.closeErr == nil {
				p.closeErr = err
			}
		}
	})
	return p.closeErr
}

func (p *Pipeline) enqueue(r record) {
	p.enqueued.Inc()
	p.lock.RLock()
	defer p.lock.RUnlock()
	if p.closed {
		p.drop()
		return
	}
	if p.policy == Block {
		p.queue <- r
		return
	}
	if !helpers.NonBlockingSend(p.queue, r) {
		p.drop()
	}
}

func (p *Pipeline) drop() {
	p.dropped.Inc()
	p.metrics.observe(p.policy, outcomeDropped)
}

func (p *Pipeline) run() {
	defer close(p.done)
	for r := range p.queue {
		if r.flush != nil {
			if err := p.dest.Sync(); err != nil && !isUnsyncable(err) {
				p.reportFailure(err)
			}
			close(r.flush)
			continue
		}
		if err := p.dest.Write(r.entry, r.fields); err != nil {
			p.failed.Inc()
			p.metrics.observe(p.policy, outcomeFailed)
			p.reportFailure(err)
			continue
		}
		p.delivered.Inc()
		p.metrics.observe(p.policy, outcomeDelivered)
	}
}

func (p *Pipeline) reportFailure(err error) {
	_, _ = fmt.Fprintf(p.lastResort, "log sink %q: %v\n", p.name, err)
}

type pipelineCore struct {
	p      *Pipeline
	fields []zapcore.Field
}

func (c pipelineCore) Enabled(level zapcore.Level) bool {
	return c.p.dest.Enabled(level)
}

func (c pipelineCore) With(fields []zapcore.Field) zapcore.Core {
	return pipelineCore{
		p:      c.p,
		fields: append(append([]zapcore.Field(nil), c.fields...), ownedFields(fields)...),
	}
}

func (c pipelineCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c pipelineCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	// the worker encodes the record later, so nothing in it may still belong to the caller
	all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	for _, f := range fields {
		all = appendOwned(all, f)
	}
	c.p.enqueue(record{entry: entry, fields: all})
	return nil
}

func (c pipelineCore) Sync() error {
	return c.p.Sync()
}
