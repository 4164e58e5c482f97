// internal/frame/frame.go
// Immutable camera frame shared between capture, processing and overlay stages
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"time"
)

// Format identifies the pixel layout of a Frame.
type Format int

const (
	// FormatRGBA8 is 4 interleaved 8-bit channels, R,G,B,A, non-premultiplied.
	FormatRGBA8 Format = iota
)

const (
	// BytesPerPixel for FormatRGBA8.
	BytesPerPixel = 4

	// MaxDimension bounds either side of a frame.
	MaxDimension = 16384
)

// ErrInvalidFrame reports a frame whose geometry does not match its buffer.
var ErrInvalidFrame = errors.New("invalid frame")

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Frame is one captured image buffer.
//
// A Frame is owned by whichever stage currently holds it and is never
// mutated after it has been handed on: transforms allocate a new Frame.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
	Format Format

	// Seq is assigned by the source and increases monotonically per session.
	Seq       uint64
	Timestamp time.Time
}

// New allocates a zeroed RGBA8 frame with a packed stride.
func New(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidFrame, width, height)
	}
	stride := width * BytesPerPixel
	return &Frame{
		Pix:    make([]byte, stride*height),
		Width:  width,
		Height: height,
		Stride: stride,
		Format: FormatRGBA8,
	}, nil
}

// FromBytes wraps an existing packed RGBA8 buffer without copying.
// The caller gives up ownership of pix.
func FromBytes(width, height int, pix []byte) (*Frame, error) {
	f := &Frame{
		Pix:    pix,
		Width:  width,
		Height: height,
		Stride: width * BytesPerPixel,
		Format: FormatRGBA8,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// FromImage copies any image into a new RGBA8 frame.
func FromImage(img image.Image) (*Frame, error) {
	b := img.Bounds()
	f, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	dst := &image.NRGBA{Pix: f.Pix, Stride: f.Stride, Rect: image.Rect(0, 0, f.Width, f.Height)}
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return f, nil
}

// Validate checks the frame geometry against its buffer.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	}
	if f.Format != FormatRGBA8 {
		return fmt.Errorf("%w: unsupported format %s", ErrInvalidFrame, f.Format)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if f.Width > MaxDimension || f.Height > MaxDimension {
		return fmt.Errorf("%w: frame too large: %dx%d (max: %d)", ErrInvalidFrame, f.Width, f.Height, MaxDimension)
	}
	if f.Stride < f.Width*BytesPerPixel {
		return fmt.Errorf("%w: stride %d shorter than row of %d pixels", ErrInvalidFrame, f.Stride, f.Width)
	}
	if need := f.Stride*(f.Height-1) + f.Width*BytesPerPixel; len(f.Pix) < need {
		return fmt.Errorf("%w: buffer holds %d bytes, need %d", ErrInvalidFrame, len(f.Pix), need)
	}
	return nil
}

// Bounds returns the frame rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Image returns a zero-copy view of the frame. The view must be treated
// as read-only.
func (f *Frame) Image() *image.NRGBA {
	return &image.NRGBA{Pix: f.Pix, Stride: f.Stride, Rect: f.Bounds()}
}

// SameGeometry reports whether two frames share width, height and format.
func (f *Frame) SameGeometry(other *Frame) bool {
	return f.Width == other.Width && f.Height == other.Height && f.Format == other.Format
}

// At returns the channel values of pixel (x, y).
func (f *Frame) At(x, y int) (r, g, b, a uint8) {
	i := y*f.Stride + x*BytesPerPixel
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3]
}

// Size is a short "WxH" form used in log fields.
func (f *Frame) Size() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}
