// internal/core/pipeline.go
// Latest-wins frame pipeline: single-slot inbox drained by one worker goroutine
package core

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"animal-vision-camera/internal/filters"
	"animal-vision-camera/internal/frame"
	"animal-vision-camera/internal/metrics"
)

// ErrPipelineRunning is returned by Start on a pipeline that is already running.
var ErrPipelineRunning = errors.New("pipeline already running")

// Result is what the worker hands to the sink for every frame it takes.
type Result struct {
	// Raw is the frame as captured. Always set.
	Raw *frame.Frame
	// Filtered is nil for the identity variant or on failure.
	Filtered *frame.Frame
	// Image is Filtered materialized for the overlay surface.
	Image   image.Image
	Variant filters.Variant
	Seq     uint64
	Err     error
}

// ResultSink receives results on the worker goroutine. It must not block;
// the usual sink marshals the result onto the UI thread and returns.
type ResultSink func(Result)

// Pipeline processes only the most recently published frame. Frames that
// arrive while the worker is busy overwrite the pending one instead of
// queueing behind it.
type Pipeline struct {
	processor *FrameProcessor
	selection *filters.Selection
	stats     *metrics.PipelineStats
	logger    logrus.FieldLogger
	sink      ResultSink

	target atomic.Pointer[image.Point]

	mu       sync.Mutex
	cond     *sync.Cond
	pending  *frame.Frame
	running  bool
	stopping bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPipeline wires a processor to a sink. The variant is read from
// selection at processing time, not at publish time.
func NewPipeline(processor *FrameProcessor, selection *filters.Selection, sink ResultSink, stats *metrics.PipelineStats, logger logrus.FieldLogger) *Pipeline {
	p := &Pipeline{
		processor: processor,
		selection: selection,
		stats:     stats,
		logger:    logger,
		sink:      sink,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Start launches the worker. It stops when ctx is cancelled or Stop is called.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPipelineRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.stopping = false
	p.cancel = cancel

	p.wg.Add(2)
	go p.watch(ctx)
	go p.loop(ctx)

	p.logger.Info("PIPELINE: Started")
	return nil
}

// watch wakes the worker when ctx ends.
func (p *Pipeline) watch(ctx context.Context) {
	defer p.wg.Done()
	<-ctx.Done()

	p.mu.Lock()
	p.stopping = true
	p.pending = nil
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Stop ends the worker and waits for it. A result already handed to the
// sink is not recalled.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()

	p.mu.Lock()
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	p.logger.Info("PIPELINE: Stopped")
}

// Publish offers f to the worker without blocking. A pending frame that the
// worker has not taken yet is dropped in favour of f, unless the pending
// frame is newer than f.
func (p *Pipeline) Publish(f *frame.Frame) {
	if f == nil {
		return
	}
	p.stats.FrameReceived()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.stopping {
		return
	}
	if p.pending != nil {
		if p.pending.Seq > f.Seq {
			p.cond.Signal()
			return
		}
		p.stats.FrameDropped()
	}
	p.pending = f
	p.cond.Signal()
}

// Reset discards the pending frame, if any.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
}

// SetTargetSize sets the size overlays are materialized for.
func (p *Pipeline) SetTargetSize(size image.Point) {
	p.target.Store(&size)
}

func (p *Pipeline) targetSize() image.Point {
	if t := p.target.Load(); t != nil {
		return *t
	}
	return image.Point{}
}

func (p *Pipeline) next() (*frame.Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.pending == nil && !p.stopping {
		p.cond.Wait()
	}
	if p.stopping {
		return nil, false
	}
	f := p.pending
	p.pending = nil
	return f, true
}

func (p *Pipeline) loop(ctx context.Context) {
	defer p.wg.Done()
	defer p.logger.Debug("PIPELINE: Worker goroutine ended")

	for {
		raw, ok := p.next()
		if !ok {
			return
		}
		p.sink(p.process(ctx, raw))
	}
}

func (p *Pipeline) process(ctx context.Context, raw *frame.Frame) Result {
	variant := p.selection.Current()
	res := Result{Raw: raw, Variant: variant, Seq: raw.Seq}

	filtered, err := p.processor.Process(ctx, raw, variant)
	if err != nil {
		res.Err = err
		return res
	}
	if filtered == nil {
		return res
	}

	res.Filtered = filtered
	res.Image = Materialize(filtered, p.targetSize())
	return res
}
