// Package preview renders a corrected moment map as a PNG heat map, for a
// quick look at the rotation without opening a FITS viewer.
package preview

import (
	"fmt"
	"math"

	"github.com/rickbassham/fitsderotate/common"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// gridImage adapts a 2-D cube to plotter.GridXYZ. Pixels outside the coverage
// are drawn at the minimum of the map.
type gridImage struct {
	c    *common.Cube
	fill float64
}

func (g gridImage) Dims() (c, r int) { return g.c.Width(), g.c.Height() }
func (g gridImage) X(c int) float64  { return float64(c + 1) }
func (g gridImage) Y(r int) float64  { return float64(r + 1) }

func (g gridImage) Z(c, r int) float64 {
	v := g.c.Data[r*g.c.Width()+c]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return g.fill
	}
	return v
}

// Options control the rendered figure.
type Options struct {
	Title string
	Size  vg.Length
}

// Write renders img to a PNG (or any format plot.Save infers from path).
func Write(path string, img *common.Cube, opts Options) error {
	if len(img.Naxis) != 2 {
		return fmt.Errorf("preview: expected a 2-D image, got %d axes", len(img.Naxis))
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range img.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if math.IsInf(lo, 0) {
		lo, hi = 0, 0
	}

	grid := gridImage{c: img, fill: lo}
	hm := plotter.NewHeatMap(grid, palette.Heat(64, 1))
	hm.Min, hm.Max = lo, hi
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x (pixel)"
	p.Y.Label.Text = "y (pixel)"
	p.Add(hm)

	size := opts.Size
	if size == 0 {
		size = 6 * vg.Inch
	}

	if err := p.Save(size, size, path); err != nil {
		return common.IOError("preview", path, err)
	}

	return nil
}
