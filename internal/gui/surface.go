// internal/gui/surface.go
// Viewfinder surface: live preview image with the filter overlay stacked on top
package gui

import (
	"image"
	"image/color"
	"sync/atomic"
	"weak"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"animal-vision-camera/internal/core"
	"animal-vision-camera/internal/frame"
	"animal-vision-camera/internal/layers"
)

// PreviewSurface shows the raw camera feed and hosts at most one overlay.
// Every method except Post runs on the UI thread.
type PreviewSurface struct {
	dispatch core.Dispatcher

	container    *fyne.Container
	background   *canvas.Rectangle
	viewfinder   *canvas.Image
	overlayLayer *fyne.Container
	overlays     map[uint64]*canvas.Image

	bounds   image.Rectangle
	onResize func(image.Rectangle)
	torn     bool

	latest    atomic.Pointer[frame.Frame]
	scheduled atomic.Bool
}

// NewPreviewSurface builds the surface. dispatch marshals viewfinder
// updates onto the UI thread.
func NewPreviewSurface(dispatch core.Dispatcher) *PreviewSurface {
	s := &PreviewSurface{
		dispatch: dispatch,
		overlays: make(map[uint64]*canvas.Image),
	}

	s.background = canvas.NewRectangle(color.Black)

	placeholder := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	s.viewfinder = canvas.NewImageFromImage(placeholder)
	s.viewfinder.FillMode = canvas.ImageFillContain
	s.viewfinder.ScaleMode = canvas.ImageScaleFastest
	s.viewfinder.SetMinSize(fyne.NewSize(320, 240))

	s.overlayLayer = container.NewStack()
	s.container = container.New(&geometryLayout{onResize: s.resized}, s.background, s.viewfinder, s.overlayLayer)
	return s
}

// Lookup returns a resolver that does not keep the surface alive and that
// stops resolving once the surface is torn down.
func (s *PreviewSurface) Lookup() layers.SurfaceLookup {
	wp := weak.Make(s)
	return func() (layers.Surface, bool) {
		surface := wp.Value()
		if surface == nil || surface.torn {
			return nil, false
		}
		return surface, true
	}
}

// OnGeometryChanged registers the callback for size changes.
func (s *PreviewSurface) OnGeometryChanged(fn func(image.Rectangle)) {
	s.onResize = fn
}

// Container is the canvas object to place in a window.
func (s *PreviewSurface) Container() *fyne.Container {
	return s.container
}

// Bounds implements layers.Surface.
func (s *PreviewSurface) Bounds() image.Rectangle {
	return s.bounds
}

// AttachOverlay implements layers.Surface.
func (s *PreviewSurface) AttachOverlay(o *layers.Overlay) {
	if s.torn {
		return
	}
	img := canvas.NewImageFromImage(o.Image)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleFastest
	s.overlays[o.ID] = img
	s.overlayLayer.Add(img)
}

// DetachOverlay implements layers.Surface.
func (s *PreviewSurface) DetachOverlay(o *layers.Overlay) {
	img, ok := s.overlays[o.ID]
	if !ok {
		return
	}
	delete(s.overlays, o.ID)
	s.overlayLayer.Remove(img)
}

// OverlayCount is the number of overlay objects currently composited.
func (s *PreviewSurface) OverlayCount() int {
	return len(s.overlayLayer.Objects)
}

// Post shows f in the viewfinder. It may be called from any goroutine;
// frames posted faster than the UI refreshes collapse into the latest one.
func (s *PreviewSurface) Post(f *frame.Frame) {
	s.latest.Store(f)
	if !s.scheduled.CompareAndSwap(false, true) {
		return
	}
	s.dispatch(func() {
		s.scheduled.Store(false)
		if s.torn {
			return
		}
		if latest := s.latest.Load(); latest != nil {
			s.viewfinder.Image = latest.Image()
			s.viewfinder.Refresh()
		}
	})
}

// TearDown detaches everything and stops the surface from resolving.
func (s *PreviewSurface) TearDown() {
	s.torn = true
	s.overlayLayer.RemoveAll()
	clear(s.overlays)
	s.latest.Store(nil)
	s.onResize = nil
}

func (s *PreviewSurface) resized(size fyne.Size) {
	bounds := image.Rect(0, 0, int(size.Width), int(size.Height))
	if bounds == s.bounds {
		return
	}
	s.bounds = bounds
	if s.onResize != nil && !s.torn {
		s.onResize(bounds)
	}
}

// geometryLayout stacks every object over the full size and reports size
// changes.
type geometryLayout struct {
	onResize func(fyne.Size)
	last     fyne.Size
}

func (l *geometryLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
	if size != l.last {
		l.last = size
		if l.onResize != nil {
			l.onResize(size)
		}
	}
}

func (l *geometryLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	size := fyne.NewSize(0, 0)
	for _, o := range objects {
		size = size.Max(o.MinSize())
	}
	return size
}
