// Colour matrix transform over RGBA8 frames
package algorithms

import (
	"errors"
	"fmt"
	"math"

	"animal-vision-camera/internal/frame"
)

// ErrTransformFailure reports that an output buffer could not be produced.
// Callers keep using the input frame; a failed transform never yields a
// partially written buffer.
var ErrTransformFailure = errors.New("transform failure")

// ColorMatrix is a 4x4 row-major channel mixing matrix plus a bias vector.
// Row c computes output channel c (R, G, B, A) from the input channels;
// bias is in 8-bit units and added after multiplication.
//
//	[R']   [r0 r1 r2 r3]   [R]   [b0]
//	[G'] = [g0 g1 g2 g3] * [G] + [b1]
//	[B']   [b0 b1 b2 b3]   [B]   [b2]
//	[A']   [a0 a1 a2 a3]   [A]   [b3]
type ColorMatrix struct {
	Rows [4][4]float64
	Bias [4]float64
}

// IdentityMatrix passes every channel through unchanged.
var IdentityMatrix = ColorMatrix{
	Rows: [4][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	},
}

// Validate rejects matrices with NaN or infinite entries.
func (m ColorMatrix) Validate() error {
	for r := range m.Rows {
		for c, v := range m.Rows[r] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("coefficient [%d][%d] is not finite", r, c)
			}
		}
		if math.IsNaN(m.Bias[r]) || math.IsInf(m.Bias[r], 0) {
			return fmt.Errorf("bias [%d] is not finite", r)
		}
	}
	return nil
}

// ApplyMatrix returns a new frame with m applied to every pixel of src.
// Width, height, stride and format are preserved; channels are rounded
// half to even and clamped to [0, 255].
func ApplyMatrix(src *frame.Frame, m ColorMatrix) (*frame.Frame, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransformFailure, err)
	}
	dst, err := allocLike(src)
	if err != nil {
		return nil, err
	}
	applyMatrix(src, dst, m)
	return dst, nil
}

func applyMatrix(src, dst *frame.Frame, m ColorMatrix) {
	rr, rg, rb, ra := m.Rows[0][0], m.Rows[0][1], m.Rows[0][2], m.Rows[0][3]
	gr, gg, gb, ga := m.Rows[1][0], m.Rows[1][1], m.Rows[1][2], m.Rows[1][3]
	br, bg, bb, ba := m.Rows[2][0], m.Rows[2][1], m.Rows[2][2], m.Rows[2][3]
	ar, ag, ab, aa := m.Rows[3][0], m.Rows[3][1], m.Rows[3][2], m.Rows[3][3]

	for y := 0; y < src.Height; y++ {
		in := src.Pix[y*src.Stride : y*src.Stride+src.Width*frame.BytesPerPixel]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+dst.Width*frame.BytesPerPixel]
		for i := 0; i < len(in); i += frame.BytesPerPixel {
			r := float64(in[i])
			g := float64(in[i+1])
			b := float64(in[i+2])
			a := float64(in[i+3])

			out[i] = clampUint8(rr*r + rg*g + rb*b + ra*a + m.Bias[0])
			out[i+1] = clampUint8(gr*r + gg*g + gb*b + ga*a + m.Bias[1])
			out[i+2] = clampUint8(br*r + bg*g + bb*b + ba*a + m.Bias[2])
			out[i+3] = clampUint8(ar*r + ag*g + ab*b + aa*a + m.Bias[3])
		}
	}
}

// allocLike allocates an empty frame with the geometry of src.
func allocLike(src *frame.Frame) (dst *frame.Frame, err error) {
	if verr := src.Validate(); verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransformFailure, verr)
	}

	defer func() {
		if r := recover(); r != nil {
			dst = nil
			err = fmt.Errorf("%w: allocate %s output: %v", ErrTransformFailure, src.Size(), r)
		}
	}()

	return &frame.Frame{
		Pix:       make([]byte, src.Stride*src.Height),
		Width:     src.Width,
		Height:    src.Height,
		Stride:    src.Stride,
		Format:    src.Format,
		Seq:       src.Seq,
		Timestamp: src.Timestamp,
	}, nil
}

func clampUint8(v float64) uint8 {
	v = math.RoundToEven(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
