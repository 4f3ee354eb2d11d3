package interpolation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/MolVal-Engine/internal/interpolation"
	"github.com/turtacn/MolVal-Engine/pkg/errors"
)

func newLinear1D(t *testing.T) *interpolation.RegularGridInterpolator {
	t.Helper()
	// f(x) = 2x over [0, 4] sampled at integer nodes.
	g, err := interpolation.NewRegularGridInterpolator(
		1, []int{5}, []float64{0}, []float64{4},
		[]float64{0, 2, 4, 6, 8})
	require.NoError(t, err)
	return g
}

func TestConstructionErrors(t *testing.T) {
	tests := []struct {
		name    string
		dim     int
		lengths []int
		min     []float64
		max     []float64
		data    []float64
	}{
		{"zero dimension", 0, nil, nil, nil, nil},
		{"metadata length mismatch", 2, []int{2}, []float64{0, 0}, []float64{1, 1}, []float64{0, 0, 0, 0}},
		{"single sample axis", 1, []int{1}, []float64{0}, []float64{1}, []float64{0}},
		{"non-increasing bounds", 1, []int{2}, []float64{1}, []float64{1}, []float64{0, 0}},
		{"data size mismatch", 1, []int{3}, []float64{0}, []float64{2}, []float64{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := interpolation.NewRegularGridInterpolator(tt.dim, tt.lengths, tt.min, tt.max, tt.data)
			require.Error(t, err)
			assert.Equal(t, errors.CodeGridMetadataMismatch, errors.GetCode(err))
		})
	}
}

func TestInterpolateExactAtNodes(t *testing.T) {
	g := newLinear1D(t)
	for i, want := range []float64{0, 2, 4, 6, 8} {
		got, err := g.InterpolateOne([]float64{float64(i)})
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12, "node %d", i)
	}
}

func TestInterpolateMidpointIsMean(t *testing.T) {
	g := newLinear1D(t)
	got, err := g.InterpolateOne([]float64{1.5})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got, 1e-12)
}

func TestExtrapolationBeyondBounds(t *testing.T) {
	g := newLinear1D(t)
	// A linear function extrapolates exactly.
	below, err := g.InterpolateOne([]float64{-1})
	require.NoError(t, err)
	assert.InDelta(t, -2.0, below, 1e-12)

	above, err := g.InterpolateOne([]float64{5})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, above, 1e-12)
}

func TestBilinear2D(t *testing.T) {
	// f(x, y) = x + 10y on a 2x2 grid over [0,1]^2; multilinear
	// interpolation reproduces it exactly everywhere.
	g, err := interpolation.NewRegularGridInterpolator(
		2, []int{2, 2}, []float64{0, 0}, []float64{1, 1},
		[]float64{0, 10, 1, 11})
	require.NoError(t, err)

	tests := []struct {
		x, y, want float64
	}{
		{0, 0, 0}, {1, 1, 11}, {0.5, 0.5, 5.5}, {0.25, 0.75, 7.75},
	}
	for _, tt := range tests {
		got, err := g.InterpolateOne([]float64{tt.x, tt.y})
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "f(%v, %v)", tt.x, tt.y)
	}
}

func TestTrilinearCenter(t *testing.T) {
	// 2x2x2 grid with a single unit corner: the cube center averages all
	// eight corners.
	data := make([]float64, 8)
	data[7] = 1
	g, err := interpolation.NewRegularGridInterpolator(
		3, []int{2, 2, 2}, []float64{0, 0, 0}, []float64{1, 1, 1}, data)
	require.NoError(t, err)

	got, err := g.InterpolateOne([]float64{0.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.125, got, 1e-12)
}

func TestDimensionMismatchQuery(t *testing.T) {
	g := newLinear1D(t)
	_, err := g.InterpolateOne([]float64{1, 2})
	require.Error(t, err)
	assert.Equal(t, errors.CodeGridDimensionMismatch, errors.GetCode(err))
}

func TestBatchInterpolate(t *testing.T) {
	g := newLinear1D(t)
	got, err := g.Interpolate([][]float64{{0}, {0.5}, {3.25}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 6.5}, got, 1e-12)

	_, err = g.Interpolate([][]float64{{0}, {0, 1}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeGridDimensionMismatch, errors.GetCode(err))
}

func TestSparseMatchesDense(t *testing.T) {
	lengths := []int{3, 3}
	min := []float64{0, 0}
	max := []float64{2, 2}
	dense := []float64{1, 0, 3, 0, 5, 0, 7, 0, 9}

	dg, err := interpolation.NewRegularGridInterpolator(2, lengths, min, max, dense)
	require.NoError(t, err)

	// Only the non-zero nodes are listed; the rest default to zero.
	coords := [][]float64{{0, 0}, {0, 2}, {1, 1}, {2, 0}, {2, 2}}
	values := []float64{1, 3, 5, 7, 9}
	sg, err := interpolation.NewSparseGridInterpolator(2, lengths, min, max, coords, values)
	require.NoError(t, err)

	queries := [][]float64{{0, 0}, {0.5, 0.5}, {1.3, 0.7}, {2, 2}, {-0.5, 1}, {2.5, 2.5}}
	dGot, err := dg.Interpolate(queries)
	require.NoError(t, err)
	sGot, err := sg.Interpolate(queries)
	require.NoError(t, err)
	assert.InDeltaSlice(t, dGot, sGot, 1e-12)

	assert.Equal(t, dense, sg.Data())
}

func TestSparseConstructionErrors(t *testing.T) {
	lengths := []int{2, 2}
	min := []float64{0, 0}
	max := []float64{1, 1}

	_, err := interpolation.NewSparseGridInterpolator(2, lengths, min, max,
		[][]float64{{0, 0}}, []float64{1, 2})
	require.Error(t, err, "count mismatch")

	_, err = interpolation.NewSparseGridInterpolator(2, lengths, min, max,
		[][]float64{{0, 0, 0}}, []float64{1})
	require.Error(t, err, "coordinate dimension mismatch")

	_, err = interpolation.NewSparseGridInterpolator(2, lengths, min, max,
		[][]float64{{5, 0}}, []float64{1})
	require.Error(t, err, "out of grid")
}

func TestIntrospection(t *testing.T) {
	g, err := interpolation.NewRegularGridInterpolator(
		2, []int{2, 3}, []float64{-1, 0}, []float64{1, 6},
		make([]float64, 6))
	require.NoError(t, err)

	assert.Equal(t, 2, g.Dim())
	assert.Equal(t, []int{2, 3}, g.AxisLengths())
	assert.Equal(t, []float64{-1, 0}, g.MinBounds())
	assert.Equal(t, []float64{1, 6}, g.MaxBounds())
	assert.Len(t, g.Data(), 6)
}
