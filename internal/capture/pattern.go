// Synthetic frame source for machines without a camera
package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"animal-vision-camera/internal/frame"
)

// colour bars, R,G,B
var bars = [...][3]uint8{
	{255, 255, 255},
	{255, 255, 0},
	{0, 255, 255},
	{0, 255, 0},
	{255, 0, 255},
	{255, 0, 0},
	{0, 0, 255},
	{16, 16, 16},
}

// Pattern produces scrolling colour bars at a fixed frame rate.
type Pattern struct {
	width, height int
	interval      time.Duration
	logger        logrus.FieldLogger

	mu     sync.Mutex
	sink   FrameSink
	cancel context.CancelFunc
	done   chan struct{}

	seq    atomic.Uint64
	latest atomic.Pointer[frame.Frame]
}

// NewPattern creates a source of width x height frames at fps.
func NewPattern(width, height, fps int, logger logrus.FieldLogger) *Pattern {
	if fps <= 0 {
		fps = 30
	}
	return &Pattern{
		width:    width,
		height:   height,
		interval: time.Second / time.Duration(fps),
		logger:   logger.WithField("source", "pattern"),
	}
}

func (p *Pattern) SetSink(sink FrameSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

// Authorize always grants access.
func (p *Pattern) Authorize(ctx context.Context) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}

func (p *Pattern) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return nil
	}
	if _, err := frame.New(p.width, p.height); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)

	p.logger.WithFields(logrus.Fields{
		"width":       p.width,
		"height":      p.height,
		"interval_ms": p.interval.Milliseconds(),
	}).Info("CAMERA: Pattern session started")

	if p.sink != nil {
		p.sink.OnSessionStateChanged(true)
	}
	return nil
}

func (p *Pattern) Stop() error {
	p.mu.Lock()
	if p.cancel == nil {
		p.mu.Unlock()
		return nil
	}
	cancel, done, sink := p.cancel, p.done, p.sink
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	<-done

	if sink != nil {
		sink.OnSessionStateChanged(false)
	}
	p.logger.Info("CAMERA: Pattern session stopped")
	return nil
}

func (p *Pattern) Snapshot() (*frame.Frame, bool) {
	f := p.latest.Load()
	return f, f != nil
}

func (p *Pattern) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			f := p.Render(p.seq.Add(1))
			f.Timestamp = now
			p.latest.Store(f)

			p.mu.Lock()
			sink := p.sink
			p.mu.Unlock()
			if sink != nil {
				sink.OnFrame(f)
			}
		}
	}
}

// Render draws the bars for sequence number seq, shifted one pixel per frame.
func (p *Pattern) Render(seq uint64) *frame.Frame {
	f, _ := frame.New(p.width, p.height)
	f.Seq = seq

	barWidth := max(1, p.width/len(bars))
	shift := int(seq % uint64(p.width))
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Stride:]
		for x := 0; x < f.Width; x++ {
			c := bars[((x+shift)/barWidth)%len(bars)]
			i := x * frame.BytesPerPixel
			row[i] = c[0]
			row[i+1] = c[1]
			row[i+2] = c[2]
			row[i+3] = 255
		}
	}
	return f
}
