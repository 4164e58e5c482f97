// internal/gui/app.go
// Main camera window: live preview, filter cycling and photo capture
package gui

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"animal-vision-camera/internal/capture"
	"animal-vision-camera/internal/core"
	"animal-vision-camera/internal/filters"
	"animal-vision-camera/internal/frame"
	"animal-vision-camera/internal/io"
)

// Options configures an Application.
type Options struct {
	Bridge        capture.Bridge
	Saver         *io.PhotoSaver
	InitialFilter filters.Variant
	SaveFiltered  bool
	Dispatch      core.Dispatcher
}

// Application is the camera window.
type Application struct {
	app      fyne.App
	window   fyne.Window
	logger   logrus.FieldLogger
	dispatch core.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc

	bridge       capture.Bridge
	saver        *io.PhotoSaver
	saveFiltered bool

	preview *core.Preview
	surface *PreviewSurface

	stats       *StatsPanel
	menuHandler *MenuHandler

	filterButton  *widget.Button
	captureButton *widget.Button
	galleryButton *widget.Button
	filterLabel   *widget.Label
	statusLabel   *widget.Label

	capturing atomic.Bool
	closed    atomic.Bool
}

// NewApplication builds the window and the preview behind it. Nothing runs
// until ShowAndRun.
func NewApplication(app fyne.App, logger logrus.FieldLogger, opts Options) *Application {
	if opts.Dispatch == nil {
		opts.Dispatch = fyne.Do
	}

	window := app.NewWindow("EyeSee")
	window.Resize(fyne.NewSize(960, 720))
	window.CenterOnScreen()

	a := &Application{
		app:          app,
		window:       window,
		logger:       logger,
		dispatch:     opts.Dispatch,
		bridge:       opts.Bridge,
		saver:        opts.Saver,
		saveFiltered: opts.SaveFiltered,
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.initializeCore(opts.InitialFilter)
	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()

	return a
}

func (a *Application) initializeCore(initial filters.Variant) {
	a.surface = NewPreviewSurface(a.dispatch)
	a.preview = core.NewPreview(core.PreviewOptions{
		Logger:        a.logger,
		Dispatch:      a.dispatch,
		Surface:       a.surface.Lookup(),
		InitialFilter: initial,
	})
	a.bridge.SetSink(a)
}

func (a *Application) initializeGUI() {
	a.filterLabel = widget.NewLabel(a.preview.Filter().Label())
	a.filterLabel.TextStyle = fyne.TextStyle{Bold: true}
	a.filterLabel.Alignment = fyne.TextAlignCenter

	a.statusLabel = widget.NewLabel("Requesting camera access...")

	a.filterButton = widget.NewButton("Cycle Filter", a.cycleFilter)
	a.captureButton = widget.NewButton("Take Photo", a.takePhoto)
	a.captureButton.Importance = widget.HighImportance
	a.captureButton.Disable()
	a.galleryButton = widget.NewButton("Open Photos", a.openGallery)

	a.stats = NewStatsPanel()
	a.menuHandler = NewMenuHandler(a.window)
}

func (a *Application) setupLayout() {
	controls := container.NewGridWithColumns(3, a.galleryButton, a.captureButton, a.filterButton)
	bottom := container.NewVBox(a.stats.GetContainer(), a.filterLabel, controls, a.statusLabel)
	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(container.NewBorder(nil, bottom, nil, nil, a.surface.Container()))
}

func (a *Application) setupCallbacks() {
	a.surface.OnGeometryChanged(a.preview.OnSurfaceGeometryChanged)
	if b := a.surface.Bounds(); !b.Empty() {
		a.preview.OnSurfaceGeometryChanged(b)
	}
	a.menuHandler.SetCallbacks(a.openGallery, a.takePhoto, a.cycleFilter, a.toggleStats)
	a.window.SetCloseIntercept(func() {
		a.window.Hide()
		go a.shutdown(a.app.Quit)
	})
}

// Preview exposes the preview for diagnostics.
func (a *Application) Preview() *core.Preview {
	return a.preview
}

// OnFrame implements capture.FrameSink. Called on the capture goroutine.
func (a *Application) OnFrame(raw *frame.Frame) {
	if a.closed.Load() {
		return
	}
	a.surface.Post(raw)
	a.preview.OnFrame(raw)
}

// OnSessionStateChanged implements capture.FrameSink.
func (a *Application) OnSessionStateChanged(running bool) {
	a.preview.OnSessionStateChanged(running)
	a.dispatch(func() {
		if running {
			a.captureButton.Enable()
			a.updateStatusMessage("Camera running")
			return
		}
		a.captureButton.Disable()
		a.updateStatusMessage("Camera stopped")
	})
}

// ShowAndRun authorizes and starts the camera in the background, then
// blocks in the UI event loop.
func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	if err := a.preview.Start(a.ctx); err != nil {
		a.logger.WithError(err).Error("PIPELINE: Failed to start")
	}
	go a.startCamera()
	go a.refreshStats(a.ctx, time.Second)

	a.window.ShowAndRun()
}

func (a *Application) startCamera() {
	granted, err := a.bridge.Authorize(a.ctx)
	a.preview.OnAuthorizationChanged(granted)
	if err != nil || !granted {
		if err == nil {
			err = capture.ErrNotAuthorized
		}
		a.dispatch(func() { a.showError("Camera access", err) })
		return
	}

	if err := a.bridge.Start(a.ctx); err != nil {
		a.dispatch(func() { a.showError("Camera start", err) })
	}
}

func (a *Application) cycleFilter() {
	v := a.preview.OnFilterCycleRequested()
	a.filterLabel.SetText(v.Label())
}

func (a *Application) toggleStats() {
	a.stats.Toggle()
	if a.stats.Visible() {
		a.stats.UpdateStats(a.preview.Stats())
	}
}

// refreshStats pushes counters to the panel while it is visible.
func (a *Application) refreshStats(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := a.preview.Stats()
			a.dispatch(func() {
				if a.stats.Visible() {
					a.stats.UpdateStats(snap)
				}
			})
		}
	}
}

func (a *Application) takePhoto() {
	if !a.preview.Session().CanProcess() || !a.capturing.CompareAndSwap(false, true) {
		return
	}
	a.captureButton.Disable()
	a.updateStatusMessage("Capturing...")

	go func() {
		path, err := a.capturePhoto()
		a.dispatch(func() {
			a.capturing.Store(false)
			if a.preview.Session().CanProcess() {
				a.captureButton.Enable()
			}
			if err != nil {
				a.showError("Photo not saved", err)
				return
			}
			a.updateStatusMessage(fmt.Sprintf("Saved %s", filepath.Base(path)))
		})
	}()
}

// capturePhoto runs off the UI thread.
func (a *Application) capturePhoto() (string, error) {
	raw, ok := a.bridge.Snapshot()
	if !ok {
		return "", capture.ErrNotRunning
	}

	out := raw
	if a.saveFiltered {
		filtered, err := a.preview.Still(a.ctx, raw)
		if err != nil {
			return "", fmt.Errorf("filter photo: %w", err)
		}
		out = filtered
	}

	path, err := a.saver.Save(out)
	if err != nil {
		return "", err
	}
	a.logger.WithFields(logrus.Fields{
		"path":    path,
		"variant": a.preview.Filter().String(),
	}).Info("CAMERA: Photo saved")
	return path, nil
}

func (a *Application) openGallery() {
	dir, err := filepath.Abs(a.saver.Dir())
	if err != nil {
		a.showError("Open photos", err)
		return
	}
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(dir)}
	if err := a.app.OpenURL(u); err != nil {
		a.showError("Open photos", err)
	}
}

func (a *Application) updateStatusMessage(message string) {
	if a.statusLabel != nil {
		a.statusLabel.SetText(message)
	}
}

// shutdown must not run on the UI thread: stopping the camera and the
// pipeline waits for an in-flight read or transform. Surface teardown and
// done are dispatched to the UI thread.
func (a *Application) shutdown(done func()) {
	if !a.closed.CompareAndSwap(false, true) {
		return
	}
	a.logger.Info("Cleaning up application resources")

	if err := a.bridge.Stop(); err != nil {
		a.logger.WithError(err).Warn("CAMERA: Stop failed")
	}
	a.preview.Close()

	a.dispatch(func() {
		a.surface.TearDown()
		a.preview.OnSurfaceTornDown()
		a.cancel()
		if done != nil {
			done()
		}
	})
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.updateStatusMessage(fmt.Sprintf("Error: %s", err.Error()))
}
