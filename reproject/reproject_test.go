package reproject_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/grid"
	"github.com/rickbassham/fitsderotate/reproject"
	"github.com/rickbassham/fitsderotate/wcs"
)

const scale = 6.0 / 3600

var tan = [2]string{"RA---TAN", "DEC--TAN"}

func flat(t *testing.T, n int, crval [2]float64) *wcs.WCS {
	t.Helper()
	w, err := wcs.New([2]int{n, n}, [2]float64{float64(n+1) / 2, float64(n+1) / 2}, crval, -scale, scale, tan)
	require.NoError(t, err)
	return w
}

func ramp(nx, ny int) *common.Cube {
	c := common.NewCube([]int{nx, ny}, nil)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			c.Data[y*nx+x] = float64(x + 10*y)
		}
	}
	return c
}

func TestParseKernel(t *testing.T) {
	k, err := reproject.ParseKernel("nearest")
	require.NoError(t, err)
	assert.Equal(t, reproject.Nearest, k)

	k, err = reproject.ParseKernel("")
	require.NoError(t, err)
	assert.Equal(t, reproject.Bilinear, k)
	assert.Equal(t, "bilinear", k.String())

	_, err = reproject.ParseKernel("cubic")
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	w := flat(t, 6, [2]float64{150, 2})
	src := ramp(6, 6)

	for _, k := range []reproject.Kernel{reproject.Bilinear, reproject.Nearest} {
		out, fp, err := reproject.Image(src, w, w, k)
		require.NoError(t, err)

		if diff := cmp.Diff(src.Data, out.Data, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
			t.Errorf("%s identity mismatch (-want +got):\n%s", k, diff)
		}
		for i, f := range fp.Data {
			assert.Equal(t, 1.0, f, "pixel %d", i)
		}
	}
}

func TestDisjoint(t *testing.T) {
	src := flat(t, 6, [2]float64{150, 2})
	dst := flat(t, 6, [2]float64{30, -60})

	_, _, err := reproject.Image(ramp(6, 6), src, dst, reproject.Bilinear)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInterpolation))

	_, err = reproject.NewPlan(src, dst, reproject.Nearest)
	assert.True(t, errors.Is(err, common.ErrInterpolation))
}

func TestRotatedFootprint(t *testing.T) {
	in, err := wcs.FromHeader(common.Header{
		"NAXIS1": 10, "NAXIS2": 10,
		"CTYPE1": "RA---TAN", "CTYPE2": "DEC--TAN",
		"CRPIX1": 5.5, "CRPIX2": 5.5,
		"CRVAL1": 83.82, "CRVAL2": -5.39,
		"CDELT1": -scale, "CDELT2": scale,
		"CROTA2": 30.0,
	})
	require.NoError(t, err)

	out, err := grid.Derive(in, grid.DefaultOptions())
	require.NoError(t, err)

	src := common.NewCube([]int{10, 10}, nil)
	for i := range src.Data {
		src.Data[i] = 2
	}

	img, fp, err := reproject.Image(src, in, out.WCS, reproject.Bilinear)
	require.NoError(t, err)
	require.Equal(t, []int{15, 15}, img.Naxis)

	// corners lie outside the rotated frame
	for _, k := range []int{0, 14, 15 * 14, 15*15 - 1} {
		assert.True(t, math.IsNaN(img.Data[k]), "pixel %d", k)
		assert.Equal(t, 0.0, fp.Data[k], "pixel %d", k)
	}

	centre := 7*15 + 7
	assert.InDelta(t, 2, img.Data[centre], 1e-9)
	assert.Equal(t, 1.0, fp.Data[centre])

	for i, f := range fp.Data {
		if f == 0 {
			assert.True(t, math.IsNaN(img.Data[i]))
		} else {
			assert.InDelta(t, 2, img.Data[i], 1e-9)
		}
	}
}

func TestNaNInputPoisonsNeighbours(t *testing.T) {
	w := flat(t, 4, [2]float64{10, 10})
	src := ramp(4, 4)
	src.Data[5] = math.NaN()

	out, fp, err := reproject.Image(src, w, w, reproject.Nearest)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out.Data[5]))
	assert.Equal(t, 0.0, fp.Data[5])
	assert.Equal(t, 1.0, fp.Data[6])
}

func TestCubePlanes(t *testing.T) {
	w := flat(t, 4, [2]float64{10, 10})

	cube := common.NewCube([]int{4, 4, 3}, nil)
	for v := 0; v < 3; v++ {
		p := cube.Plane(v)
		for i := range p {
			p[i] = float64(v*100 + i)
		}
	}

	out, coverage, err := reproject.Cube(cube, w, w, reproject.Nearest)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 3}, out.Naxis)
	assert.Equal(t, []int{4, 4}, coverage.Naxis)
	assert.Equal(t, cube.Data, out.Data)
}

func TestPlanRejectsWrongPlane(t *testing.T) {
	w := flat(t, 4, [2]float64{10, 10})
	plan, err := reproject.NewPlan(w, w, reproject.Bilinear)
	require.NoError(t, err)
	assert.Equal(t, 16, plan.Mapped())

	_, _, err = plan.Apply(make([]float64, 3))
	assert.True(t, errors.Is(err, common.ErrInterpolation))
}
