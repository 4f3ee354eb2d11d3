package validation

import "math"

// RGBA is an 8-bit-per-channel display color.
type RGBA struct {
	R, G, B, A uint8
}

// ColorScale maps score bins onto display colors.  Scores between anchors
// blend linearly between the neighbouring colors.
type ColorScale struct {
	Favored       RGBA
	Allowed       RGBA
	Outlier       RGBA
	NotApplicable RGBA
}

// DefaultColorScale is the conventional traffic-light scale with grey for
// unscoreable residues.
func DefaultColorScale() ColorScale {
	return ColorScale{
		Favored:       RGBA{R: 0, G: 255, B: 0, A: 255},
		Allowed:       RGBA{R: 255, G: 240, B: 50, A: 255},
		Outlier:       RGBA{R: 255, G: 0, B: 100, A: 255},
		NotApplicable: RGBA{R: 128, G: 128, B: 128, A: 255},
	}
}

// blend returns the linear interpolation between two colors at fraction
// t ∈ [0, 1].
func blend(from, to RGBA, t float64) RGBA {
	if t <= 0 {
		return from
	}
	if t >= 1 {
		return to
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + t*(float64(b)-float64(a))))
	}
	return RGBA{
		R: lerp(from.R, to.R),
		G: lerp(from.G, to.G),
		B: lerp(from.B, to.B),
		A: lerp(from.A, to.A),
	}
}
