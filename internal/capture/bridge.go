// Package capture provides the camera session bridge that feeds raw frames
// into the preview core.
package capture

import (
	"context"
	"errors"

	"animal-vision-camera/internal/frame"
)

var (
	ErrNoCamera      = errors.New("no camera available")
	ErrNotAuthorized = errors.New("camera access not authorized")
	ErrNotRunning    = errors.New("camera session not running")
)

// FrameSink receives events from a Bridge. The bridge only calls it; it
// never owns the sink's lifetime.
type FrameSink interface {
	OnFrame(raw *frame.Frame)
	OnSessionStateChanged(running bool)
}

// Bridge is a camera session.
type Bridge interface {
	// Authorize checks or requests access to the camera device.
	Authorize(ctx context.Context) (bool, error)
	// Start begins delivering frames to the sink until ctx ends or Stop.
	Start(ctx context.Context) error
	Stop() error
	// Snapshot returns the latest captured frame.
	Snapshot() (*frame.Frame, bool)
	SetSink(sink FrameSink)
}

var (
	_ Bridge = (*Camera)(nil)
	_ Bridge = (*Pattern)(nil)
)
