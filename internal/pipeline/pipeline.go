// Package pipeline runs colour replacement for many images concurrently.
//
// Each Dispatch starts one independent unit of work for one image identity and
// returns at once. Finished units are delivered on the Results channel. Every
// dispatch is stamped with a generation number; dispatching the same identity
// again supersedes the earlier unit, whose result is then dropped instead of
// delivered. Cancel does the same for an image that has been removed.
//
// # State Machine
//
// Per image identity:
//
//	Idle -> Dispatched -> Running -> Completed | Failed
//
// A new Dispatch resets the identity to Dispatched regardless of its current
// state.
//
// # Delivery
//
// The pipeline drops stale results before sending whenever it can. A result
// can still race with a newer dispatch made after it was sent, so consumers
// must confirm it with Current before applying it.
//
// # Failure Isolation
//
// A malformed raster or a panic inside a unit yields a Failed result for that
// image only. Sibling units are unaffected.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ironsheep/color-replace-mcp/internal/colorspec"
	"github.com/ironsheep/color-replace-mcp/internal/imaging"
	"github.com/ironsheep/color-replace-mcp/internal/logging"
	"github.com/ironsheep/color-replace-mcp/internal/replace"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("pipeline closed")

// testHookBeforeTransform runs inside a unit right before its pixels are processed.
var testHookBeforeTransform = func(Task) {}

// State is the lifecycle position of one image identity.
type State int

const (
	Idle State = iota
	Dispatched
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dispatched:
		return "dispatched"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Task is the snapshot a unit of work runs on. Source and Rules are private
// copies taken at dispatch time.
type Task struct {
	ID         string
	Generation uint64
	Source     *imaging.Raster
	Rules      replace.RuleSet
}

// Result is the outcome of one unit of work. Exactly one of Raster and Err is set.
type Result struct {
	ID         string
	Generation uint64
	Raster     *imaging.Raster
	Err        error
	Elapsed    time.Duration
}

// OK reports whether the unit succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Options configures a Pipeline.
type Options struct {
	// Workers bounds how many units transform at the same time.
	// Zero or negative means GOMAXPROCS.
	Workers int

	// ParallelPixels additionally splits each frame across goroutines.
	ParallelPixels bool

	// ResultBuffer is the capacity of the Results channel.
	ResultBuffer int

	// Cache memoizes rule colour decoding. Nil disables memoization.
	Cache *colorspec.Cache
}

// DefaultOptions returns options sized for the current machine.
func DefaultOptions() Options {
	return Options{
		Workers:        runtime.GOMAXPROCS(0),
		ParallelPixels: true,
		ResultBuffer:   16,
		Cache:          colorspec.NewCache(),
	}
}

// slot tracks the latest dispatch for one identity.
type slot struct {
	gen    uint64
	state  State
	cancel context.CancelFunc
}

// Pipeline dispatches and tracks per-image units of work.
//
// Pipeline is safe for concurrent use.
type Pipeline struct {
	opts    Options
	sem     chan struct{}
	results chan Result

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu      sync.Mutex
	slots   map[string]*slot
	nextGen uint64
	closed  bool
}

// New creates a running pipeline.
func New(opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ResultBuffer < 0 {
		opts.ResultBuffer = 0
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Pipeline{
		opts:    opts,
		sem:     make(chan struct{}, opts.Workers),
		results: make(chan Result, opts.ResultBuffer),
		ctx:     ctx,
		stop:    stop,
		slots:   make(map[string]*slot),
	}
}

// Results returns the channel finished units are delivered on. It is closed
// by Close after all units have exited.
func (p *Pipeline) Results() <-chan Result {
	return p.results
}

// Dispatch schedules a transform of src with rules for image id and returns
// its generation without waiting for it to run.
//
// src and rules are copied before Dispatch returns, so the caller may keep
// using and mutating both. Any earlier unit for id is superseded.
func (p *Pipeline) Dispatch(id string, src *imaging.Raster, rules replace.RuleSet) (uint64, error) {
	var source *imaging.Raster
	if src != nil {
		source = src.Clone()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrClosed
	}

	if prev, ok := p.slots[id]; ok && prev.cancel != nil {
		prev.cancel()
	}

	p.nextGen++
	gen := p.nextGen
	ctx, cancel := context.WithCancel(p.ctx)
	p.slots[id] = &slot{gen: gen, state: Dispatched, cancel: cancel}

	task := Task{ID: id, Generation: gen, Source: source, Rules: rules.Clone()}

	p.wg.Add(1)
	go p.run(ctx, cancel, task)

	logging.Logger().Debug("dispatched", "image", id, "generation", gen, "rules", len(task.Rules))
	return gen, nil
}

// Cancel forgets image id. Any pending or in-flight unit for it is abandoned
// and its result will not be delivered.
func (p *Pipeline) Cancel(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.slots[id]; ok {
		if s.cancel != nil {
			s.cancel()
		}
		delete(p.slots, id)
		logging.Logger().Debug("canceled", "image", id, "generation", s.gen)
	}
}

// Current reports whether gen is the latest dispatch for id.
func (p *Pipeline) Current(id string, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.slots[id]
	return ok && s.gen == gen
}

// State returns the lifecycle state of id's latest dispatch, or Idle if id
// is unknown.
func (p *Pipeline) State(id string) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.slots[id]; ok {
		return s.state
	}
	return Idle
}

// Close abandons all outstanding units, waits for them to exit and closes the
// Results channel. Close is idempotent.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.stop()
	p.mu.Unlock()

	p.wg.Wait()
	close(p.results)
}

func (p *Pipeline) run(ctx context.Context, cancel context.CancelFunc, task Task) {
	defer p.wg.Done()
	defer cancel()

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		logging.Logger().Debug("abandoned before start", "image", task.ID, "generation", task.Generation)
		return
	}

	if !p.transition(task, Running) {
		<-p.sem
		return
	}

	res := p.process(task)
	// free the worker slot before a possibly blocking send
	<-p.sem
	p.deliver(ctx, res)
}

// transition moves task's slot to state if task is still current.
func (p *Pipeline) transition(task Task, state State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.slots[task.ID]
	if !ok || s.gen != task.Generation {
		return false
	}
	s.state = state
	return true
}

func (p *Pipeline) process(task Task) (res Result) {
	res = Result{ID: task.ID, Generation: task.Generation}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Raster = nil
			res.Err = fmt.Errorf("image %s: transform panicked: %v", task.ID, r)
		}
		res.Elapsed = time.Since(start)
	}()

	testHookBeforeTransform(task)

	if err := task.Source.Validate(); err != nil {
		res.Err = fmt.Errorf("image %s: %w", task.ID, err)
		return res
	}

	m := replace.NewMatcher(task.Rules, p.opts.Cache)
	if m.Skipped() > 0 {
		logging.Logger().Warn("skipping undecodable rules", "image", task.ID, "skipped", m.Skipped())
	}
	res.Raster = replace.TransformWith(task.Source, m, p.opts.ParallelPixels)
	return res
}

func (p *Pipeline) deliver(ctx context.Context, res Result) {
	state := Completed
	if !res.OK() {
		state = Failed
	}

	if !p.transition(Task{ID: res.ID, Generation: res.Generation}, state) {
		logging.Logger().Debug("discarding stale result", "image", res.ID, "generation", res.Generation)
		return
	}

	if res.OK() {
		logging.Logger().Debug("completed", "image", res.ID, "generation", res.Generation, "elapsed", res.Elapsed)
	} else {
		logging.Logger().Warn("failed", "image", res.ID, "generation", res.Generation, "error", res.Err)
	}

	select {
	case p.results <- res:
	case <-ctx.Done():
		logging.Logger().Debug("discarding superseded result", "image", res.ID, "generation", res.Generation)
	}
}
