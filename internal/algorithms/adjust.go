// Saturation / contrast / brightness second pass
package algorithms

import (
	"fmt"
	"math"

	"animal-vision-camera/internal/frame"
)

// Rec. 709 luma weights.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// Adjustments is an optional per-pixel pass applied after a ColorMatrix.
// The zero value is not neutral; use NeutralAdjustments as a base.
type Adjustments struct {
	// Saturation scales the distance of each channel from luma. 1 = unchanged.
	Saturation float64
	// Contrast scales the distance of each channel from mid-grey. 1 = unchanged.
	Contrast float64
	// Brightness is added to each channel in unit range. 0 = unchanged.
	Brightness float64
}

// NeutralAdjustments leaves every pixel unchanged.
var NeutralAdjustments = Adjustments{Saturation: 1, Contrast: 1}

// IsNeutral reports whether applying a would be a no-op.
func (a Adjustments) IsNeutral() bool {
	return a == NeutralAdjustments
}

// Validate rejects non-finite or negative scales.
func (a Adjustments) Validate() error {
	for name, v := range map[string]float64{
		"saturation": a.Saturation,
		"contrast":   a.Contrast,
		"brightness": a.Brightness,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not finite", name)
		}
	}
	if a.Saturation < 0 || a.Contrast < 0 {
		return fmt.Errorf("saturation and contrast must be non-negative")
	}
	return nil
}

// ApplyAdjustments returns a new frame with a applied to src.
// Alpha is left untouched.
func ApplyAdjustments(src *frame.Frame, a Adjustments) (*frame.Frame, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransformFailure, err)
	}
	dst, err := allocLike(src)
	if err != nil {
		return nil, err
	}
	copy(dst.Pix, src.Pix)
	adjustInPlace(dst, a)
	return dst, nil
}

// adjustInPlace applies a to a frame this package allocated and still owns.
func adjustInPlace(f *frame.Frame, a Adjustments) {
	offset := a.Brightness * 255

	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Stride : y*f.Stride+f.Width*frame.BytesPerPixel]
		for i := 0; i < len(row); i += frame.BytesPerPixel {
			r := float64(row[i])
			g := float64(row[i+1])
			b := float64(row[i+2])

			if a.Saturation != 1 {
				l := lumaR*r + lumaG*g + lumaB*b
				r = l + a.Saturation*(r-l)
				g = l + a.Saturation*(g-l)
				b = l + a.Saturation*(b-l)
			}
			if a.Contrast != 1 {
				r = (r-128)*a.Contrast + 128
				g = (g-128)*a.Contrast + 128
				b = (b-128)*a.Contrast + 128
			}

			row[i] = clampUint8(r + offset)
			row[i+1] = clampUint8(g + offset)
			row[i+2] = clampUint8(b + offset)
		}
	}
}

// Transform applies m and then, when adj is non-nil and not neutral, the
// adjustment pass. Only one output buffer is allocated.
func Transform(src *frame.Frame, m ColorMatrix, adj *Adjustments) (*frame.Frame, error) {
	if adj != nil {
		if err := adj.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransformFailure, err)
		}
	}
	out, err := ApplyMatrix(src, m)
	if err != nil {
		return nil, err
	}
	if adj != nil && !adj.IsNeutral() {
		adjustInPlace(out, *adj)
	}
	return out, nil
}
