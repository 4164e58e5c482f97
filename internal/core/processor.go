// internal/core/processor.go
// Per-frame filter processing: identity short-circuit, colour transform, renderable image
package core

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"

	"animal-vision-camera/internal/algorithms"
	"animal-vision-camera/internal/filters"
	"animal-vision-camera/internal/frame"
	"animal-vision-camera/internal/metrics"
)

const tracerName = "animal-vision-camera/internal/core"

// FrameProcessor turns a raw frame into a filtered frame for the active variant.
type FrameProcessor struct {
	logger logrus.FieldLogger
	stats  *metrics.PipelineStats
	tracer trace.Tracer
}

// NewFrameProcessor creates a processor using the global tracer provider.
func NewFrameProcessor(logger logrus.FieldLogger, stats *metrics.PipelineStats) *FrameProcessor {
	if stats == nil {
		stats = metrics.NewPipelineStats()
	}
	return &FrameProcessor{
		logger: logger,
		stats:  stats,
		tracer: otel.Tracer(tracerName),
	}
}

// Process applies variant to raw. For filters.None it returns nil without
// touching a pixel. On failure the error wraps algorithms.ErrTransformFailure
// and the caller keeps whatever it showed before.
func (p *FrameProcessor) Process(ctx context.Context, raw *frame.Frame, variant filters.Variant) (*frame.Frame, error) {
	preset, ok := filters.MatrixFor(variant)
	if !ok {
		p.stats.IdentitySkipped()
		return nil, nil
	}

	_, span := p.tracer.Start(ctx, "filter.process", trace.WithAttributes(
		attribute.String("filter.variant", variant.String()),
		attribute.Int64("frame.seq", int64(raw.Seq)),
		attribute.Int("frame.width", raw.Width),
		attribute.Int("frame.height", raw.Height),
	))
	defer span.End()

	start := time.Now()
	out, err := algorithms.Transform(raw, preset.Matrix, preset.Adjustments)
	if err != nil {
		p.stats.TransformFailed()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transform failed")
		p.logger.WithFields(logrus.Fields{
			"seq":     raw.Seq,
			"variant": variant.String(),
			"size":    raw.Size(),
		}).WithError(err).Warn("PIPELINE: Transform failed, frame dropped")
		return nil, fmt.Errorf("process frame %d: %w", raw.Seq, err)
	}

	elapsed := time.Since(start)
	p.stats.FrameProcessed(raw.Seq, elapsed)
	p.logger.WithFields(logrus.Fields{
		"seq":         raw.Seq,
		"variant":     variant.String(),
		"duration_us": elapsed.Microseconds(),
	}).Trace("PIPELINE: Frame processed")

	return out, nil
}

// Materialize returns an image of f that fits inside target while keeping
// the frame's aspect ratio. A zero target or an exact fit returns a
// zero-copy view.
func Materialize(f *frame.Frame, target image.Point) image.Image {
	fit := fitInside(image.Pt(f.Width, f.Height), target)
	if fit.X <= 0 || fit.Y <= 0 || fit == image.Pt(f.Width, f.Height) {
		return f.Image()
	}
	dst := image.NewNRGBA(image.Rect(0, 0, fit.X, fit.Y))
	draw.ApproxBiLinear.Scale(dst, dst.Rect, f.Image(), f.Bounds(), draw.Src, nil)
	return dst
}

// fitInside scales size down or up to the largest size within target with
// the same aspect ratio.
func fitInside(size, target image.Point) image.Point {
	if target.X <= 0 || target.Y <= 0 || size.X <= 0 || size.Y <= 0 {
		return image.Point{}
	}
	// compare size.X/size.Y against target.X/target.Y without floats
	if size.X*target.Y >= target.X*size.Y {
		return image.Pt(target.X, max(1, size.Y*target.X/size.X))
	}
	return image.Pt(max(1, size.X*target.Y/size.Y), target.Y)
}
