// Package moment collapses spectral cubes along their spectral axis.
package moment

import (
	"errors"
	"math"

	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/wcs"
	"gonum.org/v1/gonum/floats"
)

// Zero returns the integrated-intensity map of cube: for each spatial pixel,
// the sum of its finite samples times the channel width in km/s.
//
// Non-finite results, including pixels with no finite sample at all, are
// written as exactly 0.0.
func Zero(cube *common.Cube, spec *wcs.SpectralAxis) (*common.Cube, error) {
	if len(cube.Naxis) != 3 {
		return nil, common.ConfigurationError("integrate", errors.New("input is not a 3-D cube"))
	}

	dv, err := spec.ChannelWidthKms()
	if err != nil {
		return nil, err
	}

	nx, ny, nv := cube.Width(), cube.Height(), cube.Planes()

	out := common.NewCube([]int{nx, ny}, cube.Header.Clone())
	spectrum := make([]float64, 0, nv)

	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			spectrum = spectrum[:0]
			for v := 0; v < nv; v++ {
				s := cube.At(x, y, v)
				if !math.IsNaN(s) && !math.IsInf(s, 0) {
					spectrum = append(spectrum, s)
				}
			}

			var m float64
			if len(spectrum) > 0 {
				m = floats.Sum(spectrum) * dv
			}
			out.Data[y*nx+x] = m
		}
	}

	NaNToZero(out.Data)

	return out, nil
}

// NaNToZero replaces every NaN or infinite value in data with 0.
func NaNToZero(data []float64) {
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			data[i] = 0
		}
	}
}
