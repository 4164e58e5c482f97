// internal/core/preview.go
// Preview session: the inbound event surface connecting camera, pipeline and overlay
package core

import (
	"context"
	"image"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"animal-vision-camera/internal/filters"
	"animal-vision-camera/internal/frame"
	"animal-vision-camera/internal/layers"
	"animal-vision-camera/internal/metrics"
	"animal-vision-camera/internal/session"
)

// Dispatcher runs fn on the UI thread without waiting for it.
type Dispatcher func(fn func())

// PreviewOptions configures a Preview.
type PreviewOptions struct {
	Logger        logrus.FieldLogger
	Dispatch      Dispatcher
	Surface       layers.SurfaceLookup
	InitialFilter filters.Variant
	Stats         *metrics.PipelineStats
}

// Preview is one filtered viewfinder bound to one surface. Filter selection,
// overlay and cached frame are scoped to it.
type Preview struct {
	id        string
	logger    logrus.FieldLogger
	dispatch  Dispatcher
	stats     *metrics.PipelineStats
	lifecycle *session.Lifecycle
	selection *filters.Selection
	processor *FrameProcessor
	pipeline  *Pipeline
	overlay   *layers.OverlayController

	// UI thread only
	lastApplied uint64
}

// NewPreview assembles a preview. Call Start before feeding frames.
func NewPreview(opts PreviewOptions) *Preview {
	if opts.Stats == nil {
		opts.Stats = metrics.NewPipelineStats()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	id := uuid.NewString()
	logger := opts.Logger.WithField("preview_id", id)

	p := &Preview{
		id:        id,
		logger:    logger,
		dispatch:  opts.Dispatch,
		stats:     opts.Stats,
		lifecycle: session.NewLifecycle(),
		selection: filters.NewSelection(opts.InitialFilter),
	}
	p.processor = NewFrameProcessor(logger, opts.Stats)
	p.pipeline = NewPipeline(p.processor, p.selection, p.handleResult, opts.Stats, logger)
	p.overlay = layers.NewOverlayController(opts.Surface, p.pipeline.Publish, logger)

	p.lifecycle.OnTransition(func(from, to session.State) {
		logger.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Info("SESSION: State changed")
	})
	return p
}

// ID identifies the preview in logs and diagnostics.
func (p *Preview) ID() string { return p.id }

// Start launches the processing worker.
func (p *Preview) Start(ctx context.Context) error {
	return p.pipeline.Start(ctx)
}

// Close stops processing and releases the overlay on the UI thread.
func (p *Preview) Close() {
	p.pipeline.Stop()
	p.dispatch(p.overlay.Release)
}

// Session exposes the lifecycle state machine.
func (p *Preview) Session() *session.Lifecycle { return p.lifecycle }

// Filter returns the active variant.
func (p *Preview) Filter() filters.Variant { return p.selection.Current() }

// Overlay exposes the controller. Use it only on the UI thread.
func (p *Preview) Overlay() *layers.OverlayController { return p.overlay }

// Stats returns the pipeline counters.
func (p *Preview) Stats() metrics.Snapshot { return p.stats.Snapshot() }

// OnFrame receives a raw camera frame. Frames are ignored unless the
// session is running.
func (p *Preview) OnFrame(raw *frame.Frame) {
	if !p.lifecycle.CanProcess() {
		return
	}
	p.pipeline.Publish(raw)
}

// OnAuthorizationChanged records the camera permission result.
func (p *Preview) OnAuthorizationChanged(granted bool) {
	if err := p.lifecycle.SetAuthorized(granted); err != nil {
		p.logger.WithError(err).Warn("SESSION: Ignoring authorization change")
	}
}

// OnSessionStateChanged receives running/stopped notifications from the
// camera. Stopping drops the pending frame and clears the overlay.
func (p *Preview) OnSessionStateChanged(running bool) {
	if err := p.lifecycle.SetRunning(running); err != nil {
		p.logger.WithError(err).Warn("SESSION: Ignoring running state change")
		return
	}
	if !running {
		p.pipeline.Reset()
		p.dispatch(p.overlay.Clear)
	}
}

// OnFilterCycleRequested advances the filter and resyncs the overlay from
// the cached frame. UI thread only.
func (p *Preview) OnFilterCycleRequested() filters.Variant {
	v := p.selection.Cycle()
	p.logger.WithField("variant", v.String()).Info("PIPELINE: Filter changed")
	p.resync(v)
	return v
}

// OnSurfaceGeometryChanged resyncs the overlay to new bounds. UI thread only.
func (p *Preview) OnSurfaceGeometryChanged(bounds image.Rectangle) {
	p.pipeline.SetTargetSize(bounds.Size())
	p.resync(p.selection.Current())
}

// resync re-derives the overlay from the cached frame. A session that is not
// running feeds nothing to the processor, so the overlay is only cleared.
func (p *Preview) resync(v filters.Variant) {
	if !p.lifecycle.CanProcess() {
		p.overlay.Clear()
		return
	}
	p.overlay.Resync(v)
}

// OnSurfaceTornDown clears the overlay and drops every reference to the
// surface and cached frame. UI thread only.
func (p *Preview) OnSurfaceTornDown() {
	p.pipeline.Reset()
	p.overlay.Release()
}

// Still applies the active filter to a captured frame for saving. It runs
// the transform on the calling goroutine, which must not be the UI thread.
func (p *Preview) Still(ctx context.Context, raw *frame.Frame) (*frame.Frame, error) {
	filtered, err := p.processor.Process(ctx, raw, p.selection.Current())
	if err != nil {
		return nil, err
	}
	if filtered == nil {
		return raw, nil
	}
	return filtered, nil
}

func (p *Preview) handleResult(r Result) {
	p.dispatch(func() { p.apply(r) })
}

// apply runs on the UI thread. Results that lost a race against a newer
// frame, a filter switch or a session stop are discarded.
func (p *Preview) apply(r Result) {
	if !p.lifecycle.CanProcess() {
		if r.Err == nil && !r.Variant.IsIdentity() {
			p.stats.StaleDiscarded()
		}
		return
	}
	p.overlay.Cache(r.Raw)

	if r.Err != nil || r.Variant.IsIdentity() {
		return
	}
	if r.Variant != p.selection.Current() || r.Seq < p.lastApplied {
		p.stats.StaleDiscarded()
		return
	}

	p.lastApplied = r.Seq
	p.overlay.RenderBound(layers.Content{Image: r.Image, Seq: r.Seq, Variant: r.Variant})
	p.stats.OverlayRendered()
}

// SessionState names the lifecycle state for diagnostics.
func (p *Preview) SessionState() string { return p.lifecycle.State().String() }

// FilterName names the active variant for diagnostics.
func (p *Preview) FilterName() string { return p.selection.Current().String() }

// OverlayState names the overlay state for diagnostics.
func (p *Preview) OverlayState() string { return p.overlay.State().String() }
