// Package interpolation implements multilinear interpolation over regular
// N-dimensional grids.  It is the numerical engine behind torsion-angle
// validation: reference probability surfaces (Ramachandran, rotamer) are
// supplied as gridded data and queried at live geometry.
//
// The engine is deliberately permissive about bounds: query points slightly
// outside the grid extrapolate linearly from the nearest boundary cell
// instead of failing, since marginally out-of-grid torsion angles are common.
package interpolation

import (
	"fmt"
	"math"

	"github.com/turtacn/MolVal-Engine/pkg/errors"
)

// RegularGridInterpolator performs multilinear interpolation on a uniformly
// spaced N-dimensional grid.  It is immutable after construction and safe to
// share between any number of readers.
type RegularGridInterpolator struct {
	dim     int
	lengths []int
	min     []float64
	max     []float64
	step    []float64

	// jump[a] is the flat-index stride of axis a (row-major, last axis
	// contiguous); cornerOffsets[c] is the flat-index offset of hyper-cube
	// corner c relative to the cell's lower-bound corner.
	jump          []int
	cornerOffsets []int

	// Exactly one of dense / sparse is populated.  Sparse storage reads
	// missing coordinates as zero.
	dense  []float64
	sparse map[int]float64
}

// NewRegularGridInterpolator constructs an interpolator over a dense value
// array.  data is laid out row-major (the last axis varies fastest) and must
// contain exactly one value per grid point.
func NewRegularGridInterpolator(dim int, lengths []int, min, max, data []float64) (*RegularGridInterpolator, error) {
	rgi, err := newBase(dim, lengths, min, max)
	if err != nil {
		return nil, err
	}
	total := 1
	for _, n := range lengths {
		total *= n
	}
	if len(data) != total {
		return nil, errors.New(errors.CodeGridMetadataMismatch,
			fmt.Sprintf("data length %d does not match grid size %d", len(data), total))
	}
	rgi.dense = make([]float64, total)
	copy(rgi.dense, data)
	return rgi, nil
}

// NewSparseGridInterpolator constructs an interpolator from explicit sample
// coordinates.  Each coords[i] is a point in axis units that must coincide
// (within half a step) with a grid node; unlisted nodes read as zero.  On
// overlapping coordinates the result is indistinguishable from the dense
// constructor.
func NewSparseGridInterpolator(dim int, lengths []int, min, max []float64, coords [][]float64, values []float64) (*RegularGridInterpolator, error) {
	rgi, err := newBase(dim, lengths, min, max)
	if err != nil {
		return nil, err
	}
	if len(coords) != len(values) {
		return nil, errors.New(errors.CodeGridMetadataMismatch,
			fmt.Sprintf("%d coordinates for %d values", len(coords), len(values)))
	}
	rgi.sparse = make(map[int]float64, len(values))
	for i, c := range coords {
		if len(c) != dim {
			return nil, errors.New(errors.CodeGridMetadataMismatch,
				fmt.Sprintf("coordinate %d has %d components, want %d", i, len(c), dim))
		}
		flat := 0
		for a := 0; a < dim; a++ {
			idx := int(math.Round((c[a] - min[a]) / rgi.step[a]))
			if idx < 0 || idx >= lengths[a] {
				return nil, errors.New(errors.CodeGridMetadataMismatch,
					fmt.Sprintf("coordinate %d lies outside the grid on axis %d", i, a))
			}
			flat += idx * rgi.jump[a]
		}
		rgi.sparse[flat] = values[i]
	}
	return rgi, nil
}

// newBase validates axis metadata and precomputes strides, steps and the
// 2^dim corner-offset patterns.
func newBase(dim int, lengths []int, min, max []float64) (*RegularGridInterpolator, error) {
	if dim < 1 {
		return nil, errors.New(errors.CodeGridMetadataMismatch, "dimension must be at least 1")
	}
	if len(lengths) != dim || len(min) != dim || len(max) != dim {
		return nil, errors.New(errors.CodeGridMetadataMismatch,
			fmt.Sprintf("axis metadata lengths (%d,%d,%d) do not match dimension %d",
				len(lengths), len(min), len(max), dim))
	}
	rgi := &RegularGridInterpolator{
		dim:     dim,
		lengths: append([]int(nil), lengths...),
		min:     append([]float64(nil), min...),
		max:     append([]float64(nil), max...),
		step:    make([]float64, dim),
		jump:    make([]int, dim),
	}
	for a := 0; a < dim; a++ {
		if lengths[a] < 2 {
			return nil, errors.New(errors.CodeGridMetadataMismatch,
				fmt.Sprintf("axis %d needs at least 2 samples", a))
		}
		if !(max[a] > min[a]) {
			return nil, errors.New(errors.CodeGridMetadataMismatch,
				fmt.Sprintf("axis %d bounds are not increasing", a))
		}
		rgi.step[a] = (max[a] - min[a]) / float64(lengths[a]-1)
	}
	stride := 1
	for a := dim - 1; a >= 0; a-- {
		rgi.jump[a] = stride
		stride *= lengths[a]
	}
	nCorners := 1 << dim
	rgi.cornerOffsets = make([]int, nCorners)
	for c := 0; c < nCorners; c++ {
		off := 0
		for a := 0; a < dim; a++ {
			if c>>(dim-1-a)&1 == 1 {
				off += rgi.jump[a]
			}
		}
		rgi.cornerOffsets[c] = off
	}
	return rgi, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Introspection
// ─────────────────────────────────────────────────────────────────────────────

// Dim returns the number of grid dimensions.
func (g *RegularGridInterpolator) Dim() int { return g.dim }

// AxisLengths returns the per-axis sample counts.
func (g *RegularGridInterpolator) AxisLengths() []int {
	return append([]int(nil), g.lengths...)
}

// MinBounds returns the per-axis minimum sample positions.
func (g *RegularGridInterpolator) MinBounds() []float64 {
	return append([]float64(nil), g.min...)
}

// MaxBounds returns the per-axis maximum sample positions.
func (g *RegularGridInterpolator) MaxBounds() []float64 {
	return append([]float64(nil), g.max...)
}

// Data returns a dense row-major copy of the grid values, materialising the
// zero-default for sparse storage.
func (g *RegularGridInterpolator) Data() []float64 {
	if g.dense != nil {
		return append([]float64(nil), g.dense...)
	}
	total := 1
	for _, n := range g.lengths {
		total *= n
	}
	out := make([]float64, total)
	for flat, v := range g.sparse {
		out[flat] = v
	}
	return out
}

func (g *RegularGridInterpolator) at(flat int) float64 {
	if g.dense != nil {
		return g.dense[flat]
	}
	return g.sparse[flat]
}

// ─────────────────────────────────────────────────────────────────────────────
// Interpolation
// ─────────────────────────────────────────────────────────────────────────────

// InterpolateOne returns the multilinearly interpolated value at point.
// Points outside the grid extrapolate from the boundary cell.
func (g *RegularGridInterpolator) InterpolateOne(point []float64) (float64, error) {
	if len(point) != g.dim {
		return 0, errors.New(errors.CodeGridDimensionMismatch,
			fmt.Sprintf("query point has %d components, want %d", len(point), g.dim))
	}
	corners := make([]float64, len(g.cornerOffsets))
	fracs := make([]float64, g.dim)
	return g.interpolateInto(point, corners, fracs), nil
}

// Interpolate evaluates a batch of query points.
func (g *RegularGridInterpolator) Interpolate(points [][]float64) ([]float64, error) {
	out := make([]float64, len(points))
	corners := make([]float64, len(g.cornerOffsets))
	fracs := make([]float64, g.dim)
	for i, p := range points {
		if len(p) != g.dim {
			return nil, errors.New(errors.CodeGridDimensionMismatch,
				fmt.Sprintf("query point %d has %d components, want %d", i, len(p), g.dim))
		}
		out[i] = g.interpolateInto(p, corners, fracs)
	}
	return out, nil
}

// interpolateInto performs the actual lookup, reusing caller scratch space to
// keep batched queries allocation-free.
func (g *RegularGridInterpolator) interpolateInto(point []float64, corners, fracs []float64) float64 {
	base := 0
	for a := 0; a < g.dim; a++ {
		t := (point[a] - g.min[a]) / g.step[a]
		idx := int(math.Floor(t))
		// Clamp to the last full cell; fracs beyond [0,1] extrapolate.
		if idx < 0 {
			idx = 0
		} else if idx > g.lengths[a]-2 {
			idx = g.lengths[a] - 2
		}
		fracs[a] = t - float64(idx)
		base += idx * g.jump[a]
	}

	for c, off := range g.cornerOffsets {
		corners[c] = g.at(base + off)
	}

	// Collapse one dimension per pass: adjacent corner pairs differ along the
	// axis being collapsed, starting with the fastest-varying axis.
	size := len(corners)
	for a := g.dim - 1; a >= 0; a-- {
		f := fracs[a]
		size /= 2
		for j := 0; j < size; j++ {
			corners[j] = corners[2*j]*(1-f) + corners[2*j+1]*f
		}
	}
	return corners[0]
}
