package algorithms

import (
	"errors"
	"math"
	"testing"
)

func TestApplyAdjustments(t *testing.T) {
	tests := []struct {
		name string
		adj  Adjustments
		in   [4]uint8
		want [4]uint8
	}{
		{"neutral", NeutralAdjustments, [4]uint8{10, 20, 30, 40}, [4]uint8{10, 20, 30, 40}},
		{"contrast stretches from mid grey", Adjustments{Saturation: 1, Contrast: 2}, [4]uint8{138, 118, 128, 200}, [4]uint8{148, 108, 128, 200}},
		{"zero saturation is luma", Adjustments{Saturation: 0, Contrast: 1}, [4]uint8{100, 100, 100, 7}, [4]uint8{100, 100, 100, 7}},
		{"brightness in unit range", Adjustments{Saturation: 1, Contrast: 1, Brightness: 0.1}, [4]uint8{0, 100, 250, 9}, [4]uint8{26, 126, 255, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := solidFrame(t, 2, 1, tt.in[0], tt.in[1], tt.in[2], tt.in[3])
			out, err := ApplyAdjustments(src, tt.adj)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			r, g, b, a := out.At(1, 0)
			if got := [4]uint8{r, g, b, a}; got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdjustmentsKeepAlpha(t *testing.T) {
	for _, alpha := range []uint8{0, 1, 128, 255} {
		src := solidFrame(t, 4, 4, 250, 10, 90, alpha)
		out, err := ApplyAdjustments(src, Adjustments{Saturation: 1.3, Contrast: 1.1, Brightness: -0.2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				if _, _, _, a := out.At(x, y); a != alpha {
					t.Fatalf("alpha at (%d,%d) = %d, want %d", x, y, a, alpha)
				}
			}
		}
	}
}

func TestAdjustmentsValidate(t *testing.T) {
	tests := []struct {
		name    string
		adj     Adjustments
		wantErr bool
	}{
		{"neutral", NeutralAdjustments, false},
		{"zero value", Adjustments{}, false},
		{"negative contrast", Adjustments{Saturation: 1, Contrast: -1}, true},
		{"negative saturation", Adjustments{Saturation: -0.5, Contrast: 1}, true},
		{"nan brightness", Adjustments{Saturation: 1, Contrast: 1, Brightness: math.NaN()}, true},
		{"infinite saturation", Adjustments{Saturation: math.Inf(1), Contrast: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.adj.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransformRunsMatrixThenAdjustments(t *testing.T) {
	m := ColorMatrix{Rows: [4][4]float64{
		{0.7, 0, 0, 0},
		{0, 0.8, 0, 0},
		{0, 0, 1.3, 0},
		{0, 0, 0, 1},
	}}
	src := solidFrame(t, 1, 1, 200, 100, 50, 255)

	out, err := Transform(src, m, &Adjustments{Saturation: 1, Contrast: 1.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// matrix gives (140, 80, 65); contrast 1.1 around 128 gives (141.2, 75.2, 58.7)
	r, g, b, a := out.At(0, 0)
	if got, want := [4]uint8{r, g, b, a}, [4]uint8{141, 75, 59, 255}; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}

	plain, err := Transform(src, m, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, g, b, _ = plain.At(0, 0)
	if r != 140 || g != 80 || b != 65 {
		t.Fatalf("matrix only got (%d,%d,%d)", r, g, b)
	}
}

func TestTransformRejectsBadAdjustments(t *testing.T) {
	src := solidFrame(t, 1, 1, 1, 1, 1, 1)
	out, err := Transform(src, IdentityMatrix, &Adjustments{Saturation: math.NaN(), Contrast: 1})
	if !errors.Is(err, ErrTransformFailure) || out != nil {
		t.Fatalf("expected ErrTransformFailure and no output, got %v, %v", out, err)
	}
}
