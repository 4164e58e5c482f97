// Package filters enumerates the animal vision presets and their fixed colour transforms.
package filters

import (
	"fmt"
	"strings"

	"animal-vision-camera/internal/algorithms"
)

// Variant is one of the closed set of filter presets.
type Variant int

const (
	None Variant = iota
	Dog
	Cat
	Bird
)

// Order is the canonical cycle order.
var Order = [...]Variant{None, Dog, Cat, Bird}

// Preset is the fixed transform bound to a non-identity variant.
type Preset struct {
	Matrix      algorithms.ColorMatrix
	Adjustments *algorithms.Adjustments
}

// dogPreset approximates red-green dichromacy: red and green collapse into one
// shared channel.
var dogPreset = Preset{
	Matrix: algorithms.ColorMatrix{
		Rows: [4][4]float64{
			{0.625, 0.375, 0, 0},
			{0.625, 0.375, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, 1},
		},
	},
}

// catPreset shifts towards blue and boosts contrast for low-light vision.
var catPreset = Preset{
	Matrix: algorithms.ColorMatrix{
		Rows: [4][4]float64{
			{0.7, 0, 0, 0},
			{0, 0.8, 0, 0},
			{0, 0, 1.3, 0},
			{0, 0, 0, 1},
		},
	},
	Adjustments: &algorithms.Adjustments{Saturation: 1, Contrast: 1.1},
}

// birdPreset leans blue/UV and widens the gamut with extra saturation.
var birdPreset = Preset{
	Matrix: algorithms.ColorMatrix{
		Rows: [4][4]float64{
			{1.1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1.4, 0},
			{0, 0, 0, 1},
		},
	},
	Adjustments: &algorithms.Adjustments{Saturation: 1.3, Contrast: 1},
}

var variantInfo = map[Variant]struct {
	name  string
	label string
}{
	None: {"none", "No Filter"},
	Dog:  {"dog", "Dog Vision"},
	Cat:  {"cat", "Cat Vision"},
	Bird: {"bird", "Bird Vision"},
}

// Next advances cyclically through Order, wrapping Bird to None.
// Unknown variants restart the cycle at None.
func Next(current Variant) Variant {
	for i, v := range Order {
		if v == current {
			return Order[(i+1)%len(Order)]
		}
	}
	return None
}

// MatrixFor returns the preset of v. It reports false for None, which
// carries no transform.
func MatrixFor(v Variant) (Preset, bool) {
	switch v {
	case Dog:
		return clonePreset(dogPreset), true
	case Cat:
		return clonePreset(catPreset), true
	case Bird:
		return clonePreset(birdPreset), true
	default:
		return Preset{}, false
	}
}

// clonePreset keeps callers from mutating the package presets through the
// Adjustments pointer.
func clonePreset(p Preset) Preset {
	if p.Adjustments != nil {
		adj := *p.Adjustments
		p.Adjustments = &adj
	}
	return p
}

// IsIdentity reports whether v skips all pixel work.
func (v Variant) IsIdentity() bool {
	return v == None
}

func (v Variant) String() string {
	if info, ok := variantInfo[v]; ok {
		return info.name
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Label is the user-facing name.
func (v Variant) Label() string {
	if info, ok := variantInfo[v]; ok {
		return info.label
	}
	return v.String()
}

// Parse resolves a variant from its name, case-insensitively.
func Parse(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, v := range Order {
		if variantInfo[v].name == name {
			return v, nil
		}
	}
	return None, fmt.Errorf("unknown filter: %q", name)
}

// UnmarshalText lets Variant be used directly in env-tagged config structs.
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
