// internal/layers/overlay.go
// Overlay controller for the filtered preview layer
package layers

import (
	"errors"
	"image"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"animal-vision-camera/internal/filters"
	"animal-vision-camera/internal/frame"
)

// ErrSurfaceUnavailable is reported when the destination surface is gone or
// has no geometry yet. It happens naturally during teardown and is never
// treated as a failure.
var ErrSurfaceUnavailable = errors.New("surface unavailable")

// State of the overlay controller.
type State int

const (
	Empty State = iota
	Showing
)

func (s State) String() string {
	if s == Showing {
		return "showing"
	}
	return "empty"
}

// Surface is the host preview surface overlays are composited onto.
// Attach and detach are primitive compositing operations of the UI toolkit
// and are only called on the UI thread.
type Surface interface {
	Bounds() image.Rectangle
	AttachOverlay(o *Overlay)
	DetachOverlay(o *Overlay)
}

// SurfaceLookup resolves the destination surface without holding it. It
// returns false once the surface has been torn down.
type SurfaceLookup func() (Surface, bool)

// Content is a renderable filtered frame.
type Content struct {
	Image   image.Image
	Seq     uint64
	Variant filters.Variant
}

// Overlay is one live layer on a surface.
type Overlay struct {
	ID      uint64
	Image   image.Image
	Bounds  image.Rectangle
	Seq     uint64
	Variant filters.Variant
}

// OverlayController owns the single live overlay and the cached last raw
// frame. It never holds the surface itself; every detach resolves it through
// the lookup. Every method must be called on the UI thread.
type OverlayController struct {
	logger logrus.FieldLogger

	lookup   SurfaceLookup
	resubmit func(*frame.Frame)

	active    *Overlay
	lastFrame *frame.Frame
	nextID    uint64
	released  bool

	// observed from other goroutines by diagnostics only
	state atomic.Int32
}

// NewOverlayController creates an empty controller. resubmit receives the
// cached raw frame on Resync so the transform runs off the UI thread.
func NewOverlayController(lookup SurfaceLookup, resubmit func(*frame.Frame), logger logrus.FieldLogger) *OverlayController {
	return &OverlayController{
		logger:   logger,
		lookup:   lookup,
		resubmit: resubmit,
		nextID:   1,
	}
}

// State returns Empty or Showing. Safe from any goroutine.
func (oc *OverlayController) State() State {
	return State(oc.state.Load())
}

// Active returns the live overlay, or nil.
func (oc *OverlayController) Active() *Overlay {
	return oc.active
}

// Surface resolves the bound surface, if it is still alive.
func (oc *OverlayController) Surface() (Surface, bool) {
	if oc.lookup == nil {
		return nil, false
	}
	return oc.lookup()
}

// Render replaces any existing overlay with c sized to the surface's current
// bounds. surface must be the one the lookup resolves. The old overlay is
// detached and the new one attached within this call, so an observer never
// sees two overlays. A missing surface is a no-op.
func (oc *OverlayController) Render(c Content, surface Surface) {
	if surface == nil || c.Image == nil {
		oc.logger.WithField("seq", c.Seq).WithError(ErrSurfaceUnavailable).Debug("OVERLAY: Render skipped")
		return
	}
	bounds := surface.Bounds()
	if bounds.Empty() {
		oc.logger.WithField("seq", c.Seq).WithError(ErrSurfaceUnavailable).Debug("OVERLAY: Render skipped, surface has no geometry")
		return
	}

	next := &Overlay{
		ID:      oc.nextID,
		Image:   c.Image,
		Bounds:  bounds,
		Seq:     c.Seq,
		Variant: c.Variant,
	}
	oc.nextID++

	oc.detachActive()
	surface.AttachOverlay(next)

	oc.active = next
	oc.state.Store(int32(Showing))

	oc.logger.WithFields(logrus.Fields{
		"overlay_id": next.ID,
		"seq":        next.Seq,
		"variant":    next.Variant.String(),
		"bounds":     bounds.String(),
	}).Debug("OVERLAY: Rendered")
}

// RenderBound renders onto the surface resolved through the lookup.
func (oc *OverlayController) RenderBound(c Content) {
	surface, ok := oc.Surface()
	if !ok {
		oc.Render(c, nil)
		return
	}
	oc.Render(c, surface)
}

// Clear removes the active overlay. Calling it with nothing showing is a no-op.
func (oc *OverlayController) Clear() {
	if oc.active == nil {
		return
	}
	oc.detachActive()
	oc.logger.WithField("overlay_id", oc.active.ID).Debug("OVERLAY: Cleared")
	oc.active = nil
	oc.state.Store(int32(Empty))
}

// detachActive removes the live overlay from the surface. A surface that is
// already gone took its overlays with it.
func (oc *OverlayController) detachActive() {
	if oc.active == nil {
		return
	}
	if surface, ok := oc.Surface(); ok {
		surface.DetachOverlay(oc.active)
	}
}

// Cache stores f as the most recent raw frame.
func (oc *OverlayController) Cache(f *frame.Frame) {
	if f == nil || oc.released {
		return
	}
	if oc.lastFrame != nil && f.Seq < oc.lastFrame.Seq {
		return
	}
	oc.lastFrame = f
}

// LastFrame returns the cached raw frame, or nil.
func (oc *OverlayController) LastFrame() *frame.Frame {
	return oc.lastFrame
}

// Resync re-derives the overlay after a filter switch or a geometry change,
// neither of which carries a fresh camera frame. With the identity filter or
// no cached frame the overlay is cleared so nothing stale stays on screen.
func (oc *OverlayController) Resync(active filters.Variant) {
	if active.IsIdentity() {
		oc.Clear()
		return
	}
	if oc.lastFrame == nil {
		oc.logger.WithField("variant", active.String()).Debug("OVERLAY: Resync without cached frame, clearing")
		oc.Clear()
		return
	}
	if _, ok := oc.Surface(); !ok {
		oc.Clear()
		return
	}
	if oc.resubmit != nil {
		oc.resubmit(oc.lastFrame)
	}
}

// Release tears the controller down with its surface: the overlay is
// removed and every external reference dropped.
func (oc *OverlayController) Release() {
	oc.Clear()
	oc.lastFrame = nil
	oc.lookup = nil
	oc.resubmit = nil
	oc.released = true
}
