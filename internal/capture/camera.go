// gocv-backed camera session
package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"animal-vision-camera/internal/frame"
)

// Camera reads frames from a video device through OpenCV.
type Camera struct {
	deviceID int
	logger   logrus.FieldLogger

	mu      sync.Mutex
	sink    FrameSink
	capture *gocv.VideoCapture
	cancel  context.CancelFunc
	done    chan struct{}

	seq    atomic.Uint64
	latest atomic.Pointer[frame.Frame]
}

// NewCamera creates a camera for the given device index.
func NewCamera(deviceID int, logger logrus.FieldLogger) *Camera {
	return &Camera{
		deviceID: deviceID,
		logger:   logger.WithField("device_id", deviceID),
	}
}

// SetSink registers the frame receiver.
func (c *Camera) SetSink(sink FrameSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// Authorize opens and closes the device once. Desktop platforms have no
// separate permission prompt; a device that cannot be opened is treated as
// access denied.
func (c *Camera) Authorize(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		c.logger.WithError(err).Warn("CAMERA: Device cannot be opened")
		return false, fmt.Errorf("%w: %v", ErrNoCamera, err)
	}
	defer vc.Close()

	if !vc.IsOpened() {
		return false, nil
	}
	return true, nil
}

// Start opens the device and streams frames on a new goroutine.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoCamera, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return ErrNotAuthorized
	}

	ctx, cancel := context.WithCancel(ctx)
	c.capture = vc
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.readLoop(ctx, vc, c.done)

	c.logger.WithFields(logrus.Fields{
		"width":  vc.Get(gocv.VideoCaptureFrameWidth),
		"height": vc.Get(gocv.VideoCaptureFrameHeight),
		"fps":    vc.Get(gocv.VideoCaptureFPS),
	}).Info("CAMERA: Session started")

	if c.sink != nil {
		c.sink.OnSessionStateChanged(true)
	}
	return nil
}

// Stop ends streaming and closes the device.
func (c *Camera) Stop() error {
	c.mu.Lock()
	if c.capture == nil {
		c.mu.Unlock()
		return nil
	}
	cancel, done, vc, sink := c.cancel, c.done, c.capture, c.sink
	c.capture = nil
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	<-done

	if err := vc.Close(); err != nil {
		c.logger.WithError(err).Warn("CAMERA: Close failed")
	}
	if sink != nil {
		sink.OnSessionStateChanged(false)
	}
	c.logger.Info("CAMERA: Session stopped")
	return nil
}

// Snapshot returns the most recent frame read from the device.
func (c *Camera) Snapshot() (*frame.Frame, bool) {
	f := c.latest.Load()
	return f, f != nil
}

func (c *Camera) readLoop(ctx context.Context, vc *gocv.VideoCapture, done chan struct{}) {
	defer close(done)

	bgr := gocv.NewMat()
	defer bgr.Close()
	rgba := gocv.NewMat()
	defer rgba.Close()

	failures := 0
	for ctx.Err() == nil {
		if ok := vc.Read(&bgr); !ok || bgr.Empty() {
			failures++
			if failures%30 == 1 {
				c.logger.WithField("consecutive_failures", failures).Warn("CAMERA: Empty read")
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		failures = 0

		f, err := c.toFrame(bgr, &rgba)
		if err != nil {
			c.logger.WithError(err).Warn("CAMERA: Frame conversion failed")
			continue
		}
		c.latest.Store(f)

		c.mu.Lock()
		sink := c.sink
		c.mu.Unlock()
		if sink != nil {
			sink.OnFrame(f)
		}
	}
}

// toFrame converts an OpenCV BGR Mat into a frame that owns its own copy of
// the pixels.
func (c *Camera) toFrame(bgr gocv.Mat, rgba *gocv.Mat) (*frame.Frame, error) {
	gocv.CvtColor(bgr, rgba, gocv.ColorBGRToRGBA)
	if rgba.Channels() != frame.BytesPerPixel {
		return nil, fmt.Errorf("unexpected channel count %d", rgba.Channels())
	}
	f, err := frame.FromBytes(rgba.Cols(), rgba.Rows(), rgba.ToBytes())
	if err != nil {
		return nil, err
	}
	f.Seq = c.seq.Add(1)
	f.Timestamp = time.Now()
	return f, nil
}
