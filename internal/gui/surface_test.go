package gui

import (
	"image"
	"runtime"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"animal-vision-camera/internal/frame"
	"animal-vision-camera/internal/layers"
)

func syncDispatch(fn func()) { fn() }

func overlay(id uint64) *layers.Overlay {
	return &layers.Overlay{ID: id, Image: image.NewNRGBA(image.Rect(0, 0, 2, 2))}
}

func TestSurfaceAttachDetach(t *testing.T) {
	test.NewTempApp(t)
	s := NewPreviewSurface(syncDispatch)

	first, second := overlay(1), overlay(2)
	s.AttachOverlay(first)
	s.DetachOverlay(first)
	s.AttachOverlay(second)
	if s.OverlayCount() != 1 {
		t.Fatalf("%d overlays composited, want 1", s.OverlayCount())
	}

	s.DetachOverlay(first)
	s.DetachOverlay(second)
	if s.OverlayCount() != 0 {
		t.Fatalf("%d overlays left", s.OverlayCount())
	}
}

func TestSurfaceReportsGeometry(t *testing.T) {
	test.NewTempApp(t)
	s := NewPreviewSurface(syncDispatch)

	var got []image.Rectangle
	s.OnGeometryChanged(func(r image.Rectangle) { got = append(got, r) })

	s.Container().Resize(fyne.NewSize(400, 300))
	s.Container().Resize(fyne.NewSize(400, 300))
	s.Container().Resize(fyne.NewSize(200, 100))

	want := []image.Rectangle{image.Rect(0, 0, 400, 300), image.Rect(0, 0, 200, 100)}
	if len(got) != len(want) {
		t.Fatalf("geometry events %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
	if s.Bounds() != want[1] {
		t.Fatalf("bounds %v", s.Bounds())
	}
}

func TestSurfaceLookupAfterTearDown(t *testing.T) {
	test.NewTempApp(t)
	s := NewPreviewSurface(syncDispatch)
	lookup := s.Lookup()

	if got, ok := lookup(); !ok || got != layers.Surface(s) {
		t.Fatal("live surface did not resolve")
	}

	s.AttachOverlay(overlay(1))
	s.TearDown()
	if _, ok := lookup(); ok {
		t.Fatal("torn down surface still resolves")
	}
	if s.OverlayCount() != 0 {
		t.Fatal("teardown left overlays attached")
	}
	s.AttachOverlay(overlay(2))
	if s.OverlayCount() != 0 {
		t.Fatal("attached onto a torn down surface")
	}
	runtime.KeepAlive(s)
}

func TestSurfacePostCoalesces(t *testing.T) {
	test.NewTempApp(t)

	var queued []func()
	s := NewPreviewSurface(func(fn func()) { queued = append(queued, fn) })

	for seq := uint64(1); seq <= 3; seq++ {
		f, _ := frame.New(4, 2)
		f.Seq = seq
		f.Pix[0] = byte(seq)
		s.Post(f)
	}
	if len(queued) != 1 {
		t.Fatalf("%d refreshes scheduled, want 1", len(queued))
	}
	queued[0]()

	img, ok := s.viewfinder.Image.(*image.NRGBA)
	if !ok || img.Pix[0] != 3 {
		t.Fatal("viewfinder does not show the latest frame")
	}
}
