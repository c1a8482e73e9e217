// Package reproject resamples images and cubes from one celestial grid onto
// another. Output pixels with no corresponding valid input are NaN and carry
// a footprint of 0; nothing outside the source frame is extrapolated.
package reproject

import (
	"errors"
	"fmt"
	"math"

	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/wcs"
	"gonum.org/v1/gonum/floats"
)

type Kernel int

const (
	Bilinear Kernel = iota
	Nearest
)

func ParseKernel(s string) (Kernel, error) {
	switch s {
	case "", "bilinear", "linear":
		return Bilinear, nil
	case "nearest", "nearest-neighbor", "nearest-neighbour":
		return Nearest, nil
	}
	return 0, fmt.Errorf("unknown interpolation %q", s)
}

func (k Kernel) String() string {
	if k == Nearest {
		return "nearest"
	}
	return "bilinear"
}

// Plan holds, for every target pixel, the 0-based source position it samples.
// The mapping depends only on the two grids, so one plan serves every plane
// of a cube.
type Plan struct {
	kernel Kernel
	srcW   int
	srcH   int
	dstW   int
	dstH   int
	xs     []float64
	ys     []float64
	mapped int
}

// NewPlan maps target pixels onto the source frame. It fails with an
// interpolation error when the two footprints are disjoint.
func NewPlan(src, dst *wcs.WCS, kernel Kernel) (*Plan, error) {
	p := &Plan{
		kernel: kernel,
		srcW:   src.Naxis[0],
		srcH:   src.Naxis[1],
		dstW:   dst.Naxis[0],
		dstH:   dst.Naxis[1],
	}

	n := p.dstW * p.dstH
	p.xs = make([]float64, n)
	p.ys = make([]float64, n)

	for j := 0; j < p.dstH; j++ {
		for i := 0; i < p.dstW; i++ {
			k := j*p.dstW + i
			p.xs[k], p.ys[k] = math.NaN(), math.NaN()

			lon, lat := dst.PixelToWorld(float64(i+1), float64(j+1))
			sx, sy, ok := src.WorldToPixel(lon, lat)
			if !ok {
				continue
			}

			sx, sy = sx-1, sy-1
			if sx < -0.5 || sy < -0.5 || sx > float64(p.srcW)-0.5 || sy > float64(p.srcH)-0.5 {
				continue
			}

			p.xs[k], p.ys[k] = sx, sy
			p.mapped++
		}
	}

	if p.mapped == 0 {
		return nil, common.InterpolationError("plan", errors.New("target grid does not overlap the source footprint"))
	}

	return p, nil
}

// Mapped is the number of target pixels that fall inside the source frame.
func (p *Plan) Mapped() int { return p.mapped }

// Apply resamples one source plane. footprint is 1 where the output value
// came from valid input and 0 elsewhere.
func (p *Plan) Apply(src []float64) (out, footprint []float64, err error) {
	if len(src) != p.srcW*p.srcH {
		return nil, nil, common.InterpolationError("apply", fmt.Errorf("plane has %d samples, expected %d", len(src), p.srcW*p.srcH))
	}

	out = make([]float64, len(p.xs))
	footprint = make([]float64, len(p.xs))

	for k := range p.xs {
		x, y := p.xs[k], p.ys[k]
		if math.IsNaN(x) {
			out[k] = math.NaN()
			continue
		}

		var v float64
		if p.kernel == Nearest {
			v = p.nearest(src, x, y)
		} else {
			v = p.bilinear(src, x, y)
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = math.NaN()
			continue
		}

		out[k] = v
		footprint[k] = 1
	}

	return out, footprint, nil
}

func (p *Plan) nearest(src []float64, x, y float64) float64 {
	i := clamp(int(math.Round(x)), p.srcW-1)
	j := clamp(int(math.Round(y)), p.srcH-1)
	return src[j*p.srcW+i]
}

// bilinear interpolates between the four neighbours of (x, y), clamping at
// the frame edge. A non-finite neighbour with non-zero weight poisons the
// result.
func (p *Plan) bilinear(src []float64, x, y float64) float64 {
	x = math.Min(math.Max(x, 0), float64(p.srcW-1))
	y = math.Min(math.Max(y, 0), float64(p.srcH-1))

	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := clamp(x0+1, p.srcW-1), clamp(y0+1, p.srcH-1)
	fx, fy := x-float64(x0), y-float64(y0)

	weights := [4]float64{(1 - fx) * (1 - fy), fx * (1 - fy), (1 - fx) * fy, fx * fy}
	samples := [4]float64{
		src[y0*p.srcW+x0],
		src[y0*p.srcW+x1],
		src[y1*p.srcW+x0],
		src[y1*p.srcW+x1],
	}

	var v float64
	for i, w := range weights {
		if w == 0 {
			continue
		}
		s := samples[i]
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return math.NaN()
		}
		v += w * s
	}

	return v
}

// Image reprojects a 2-D image onto dst's grid.
func Image(src *common.Cube, srcWCS, dst *wcs.WCS, kernel Kernel) (out, footprint *common.Cube, err error) {
	plan, err := NewPlan(srcWCS, dst, kernel)
	if err != nil {
		return nil, nil, err
	}

	data, fp, err := plan.Apply(src.Plane(0))
	if err != nil {
		return nil, nil, err
	}
	if floats.Sum(fp) == 0 {
		return nil, nil, common.InterpolationError("image", errors.New("no valid input pixel maps onto the target grid"))
	}

	shape := []int{dst.Naxis[0], dst.Naxis[1]}
	out = &common.Cube{Naxis: shape, Data: data}
	footprint = &common.Cube{Naxis: append([]int(nil), shape...), Data: fp}

	return out, footprint, nil
}

// Cube reprojects every spectral plane of src onto dst's grid, keeping the
// spectral axis as is. coverage is the 2-D geometric footprint shared by all
// planes.
func Cube(src *common.Cube, srcWCS, dst *wcs.WCS, kernel Kernel) (out, coverage *common.Cube, err error) {
	plan, err := NewPlan(srcWCS, dst, kernel)
	if err != nil {
		return nil, nil, err
	}

	nv := src.Planes()
	out = common.NewCube([]int{dst.Naxis[0], dst.Naxis[1], nv}, nil)
	coverage = common.NewCube([]int{dst.Naxis[0], dst.Naxis[1]}, nil)

	for v := 0; v < nv; v++ {
		data, fp, err := plan.Apply(src.Plane(v))
		if err != nil {
			return nil, nil, err
		}
		copy(out.Plane(v), data)
		for i, f := range fp {
			if f > coverage.Data[i] {
				coverage.Data[i] = f
			}
		}
	}

	if floats.Sum(coverage.Data) == 0 {
		return nil, nil, common.InterpolationError("cube", errors.New("no valid input pixel maps onto the target grid"))
	}

	return out, coverage, nil
}

func clamp(i, hi int) int {
	if i < 0 {
		return 0
	}
	if i > hi {
		return hi
	}
	return i
}
