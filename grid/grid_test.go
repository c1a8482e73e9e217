package grid_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/grid"
	"github.com/rickbassham/fitsderotate/wcs"
)

const scale = 6.0 / 3600

func rotated(t *testing.T, n1, n2 int, crpix1, crpix2, rho float64) *wcs.WCS {
	t.Helper()
	return rotatedAt(t, n1, n2, crpix1, crpix2, -5.39, rho)
}

func rotatedAt(t *testing.T, n1, n2 int, crpix1, crpix2, dec, rho float64) *wcs.WCS {
	t.Helper()

	w, err := wcs.FromHeader(common.Header{
		"NAXIS1": n1,
		"NAXIS2": n2,
		"CTYPE1": "RA---TAN",
		"CTYPE2": "DEC--TAN",
		"CRPIX1": crpix1,
		"CRPIX2": crpix2,
		"CRVAL1": 83.82,
		"CRVAL2": dec,
		"CDELT1": -scale,
		"CDELT2": scale,
		"CROTA2": rho,
	})
	require.NoError(t, err)
	return w
}

func TestSideUnrotated(t *testing.T) {
	for _, n := range []int{1, 10, 64, 101} {
		assert.Equal(t, n+1, grid.Side(n, n, -scale, 0), "N=%d", n)
	}
}

func TestSideDiagonal(t *testing.T) {
	for _, n := range []int{10, 64, 101} {
		want := int(math.Round(float64(n)*math.Sqrt2)) + 1
		s, c := math.Sincos(math.Pi / 4)
		assert.Equal(t, want, grid.Side(n, n, -scale*c, -scale*s), "N=%d", n)
	}
}

func TestDeriveThirtyDegrees(t *testing.T) {
	in := rotated(t, 10, 10, 5, 5, 30)

	out, err := grid.Derive(in, grid.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 15, out.Side)
	assert.Equal(t, [2]int{15, 15}, out.WCS.Naxis)
	assert.Equal(t, [2]float64{8, 8}, out.WCS.CRPIX)
	assert.InDelta(t, 30, out.Rotation, 1e-9)
	assert.InDelta(t, scale, out.PixelScale, 1e-15)

	cd := out.WCS.CD()
	assert.InDelta(t, -scale, cd[0], 1e-15)
	assert.Equal(t, 0.0, cd[1])
	assert.Equal(t, 0.0, cd[2])
	assert.InDelta(t, scale, cd[3], 1e-15)
	assert.Equal(t, 0.0, out.WCS.Rotation())
}

func TestCRPIXIsCentre(t *testing.T) {
	for _, rho := range []float64{0, 10, 30, 45, 60, 90, 135, -30, 180} {
		in := rotated(t, 40, 40, 20, 20, rho)

		out, err := grid.Derive(in, grid.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, float64(out.Side+1)/2, out.WCS.CRPIX[0], "rho=%v", rho)
		assert.Equal(t, out.WCS.CRPIX[0], out.WCS.CRPIX[1], "rho=%v", rho)
	}
}

func TestCRVALAtCentre(t *testing.T) {
	in := rotated(t, 10, 10, 5.5, 5.5, 30)

	out, err := grid.Derive(in, grid.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, [2]float64{83.82, -5.39}, out.WCS.CRVAL)
}

func TestCRVALLinearShift(t *testing.T) {
	in := rotated(t, 10, 10, 5, 5, 0)

	out, err := grid.Derive(in, grid.DefaultOptions())
	require.NoError(t, err)
	cosd := math.Cos(-5.39 * math.Pi / 180)
	assert.InDelta(t, 83.82-scale*0.5/cosd, out.WCS.CRVAL[0], 1e-12)
	assert.InDelta(t, -5.39+scale*0.5, out.WCS.CRVAL[1], 1e-12)
}

func TestCRVALLinearRotated(t *testing.T) {
	in := rotatedAt(t, 41, 41, 18, 23, 60, 90)

	out, err := grid.Derive(in, grid.DefaultOptions())
	require.NoError(t, err)

	lon, lat := in.PixelToWorld(21, 21)
	assert.InDelta(t, lon, out.WCS.CRVAL[0], 1e-5)
	assert.InDelta(t, lat, out.WCS.CRVAL[1], 1e-5)
}

func TestCRVALWCSCentre(t *testing.T) {
	in := rotated(t, 10, 10, 5, 5, 30)
	opts := grid.DefaultOptions()
	opts.Center = grid.CenterWCS

	out, err := grid.Derive(in, opts)
	require.NoError(t, err)

	lon, lat := in.PixelToWorld(5.5, 5.5)
	assert.Equal(t, [2]float64{lon, lat}, out.WCS.CRVAL)
}

func TestFootprintContained(t *testing.T) {
	tests := []struct {
		name           string
		n1, n2         int
		crpix1, crpix2 float64
		dec            float64
	}{
		{name: "centred", n1: 20, n2: 12, crpix1: 10.5, crpix2: 6.5, dec: -5.39},
		{name: "off-centre equator", n1: 41, n2: 41, crpix1: 18, crpix2: 23, dec: 0},
		{name: "off-centre north", n1: 41, n2: 41, crpix1: 18, crpix2: 23, dec: 60},
		{name: "off-centre south", n1: 41, n2: 41, crpix1: 18, crpix2: 23, dec: -70},
		{name: "reference outside", n1: 30, n2: 16, crpix1: -4, crpix2: 40, dec: 45},
	}

	for _, tt := range tests {
		for _, center := range []string{grid.CenterLinear, grid.CenterWCS} {
			for _, rho := range []float64{0, 90, -60, 30, 45, 37} {
				t.Run(fmt.Sprintf("%s/%s/rho=%v", tt.name, center, rho), func(t *testing.T) {
					in := rotatedAt(t, tt.n1, tt.n2, tt.crpix1, tt.crpix2, tt.dec, rho)
					opts := grid.DefaultOptions()
					opts.Center = center

					out, err := grid.Derive(in, opts)
					require.NoError(t, err)

					lo, hi := 0.5, float64(out.Side)+0.5
					x1, y1 := float64(tt.n1)+0.5, float64(tt.n2)+0.5
					for _, corner := range [][2]float64{{0.5, 0.5}, {x1, 0.5}, {0.5, y1}, {x1, y1}} {
						lon, lat := in.PixelToWorld(corner[0], corner[1])
						px, py, ok := out.WCS.WorldToPixel(lon, lat)
						require.True(t, ok)
						assert.GreaterOrEqual(t, px, lo, "corner %v", corner)
						assert.GreaterOrEqual(t, py, lo, "corner %v", corner)
						assert.LessOrEqual(t, px, hi, "corner %v", corner)
						assert.LessOrEqual(t, py, hi, "corner %v", corner)
					}
				})
			}
		}
	}
}

func TestFrameMismatch(t *testing.T) {
	in := rotated(t, 10, 10, 5, 5, 30)
	opts := grid.DefaultOptions()
	opts.CType = [2]string{"GLON-TAN", "GLAT-TAN"}

	_, err := grid.Derive(in, opts)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestCards(t *testing.T) {
	in := rotated(t, 10, 10, 5, 5, 30)
	out, err := grid.Derive(in, grid.DefaultOptions())
	require.NoError(t, err)

	values := map[string]interface{}{}
	for _, c := range out.Cards2D() {
		values[c.Name] = c.Value
	}
	assert.Equal(t, "JCMT", values["TELESCOP"])
	assert.Equal(t, "FK5", values["RADESYS"])
	assert.Equal(t, 2000.0, values["EQUINOX"])
	assert.Equal(t, "K km/s", values["BUNIT"])
	assert.InDelta(t, -scale, values["CDELT1"], 1e-15)
	assert.Equal(t, 8.0, values["CRPIX1"])

	spec := &wcs.SpectralAxis{Naxis: 5, CTYPE: "VRAD", CRPIX: 3, CDELT: -500, CRVAL: 1500, CUNIT: "m/s"}
	var names []string
	for _, c := range out.Cards3D(spec, "K") {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "CTYPE3")
	assert.Contains(t, names, "CDELT3")
	assert.Equal(t, "BUNIT", names[len(names)-1])
}
