package common

import "fmt"

// Cube is an image of one to three axes in FITS order: Naxis[0] varies
// fastest, so a sample at (x, y, v) lives at Data[v*ny*nx + y*nx + x].
type Cube struct {
	Naxis  []int
	Data   []float64
	Header Header
}

func NewCube(naxis []int, hdr Header) *Cube {
	n := 1
	for _, d := range naxis {
		n *= d
	}
	return &Cube{
		Naxis:  append([]int(nil), naxis...),
		Data:   make([]float64, n),
		Header: hdr,
	}
}

func (c *Cube) Width() int  { return c.axis(0) }
func (c *Cube) Height() int { return c.axis(1) }

// Planes is the length of the spectral axis, or 1 for a 2-D image.
func (c *Cube) Planes() int {
	if len(c.Naxis) < 3 {
		return 1
	}
	return c.Naxis[2]
}

// Plane returns the v'th spatial plane without copying.
func (c *Cube) Plane(v int) []float64 {
	n := c.Width() * c.Height()
	return c.Data[v*n : (v+1)*n]
}

func (c *Cube) At(x, y, v int) float64 {
	return c.Data[(v*c.Height()+y)*c.Width()+x]
}

// Squeeze drops trailing axes of length one beyond the third, so a
// (x, y, v, stokes=1) cube becomes (x, y, v).
func (c *Cube) Squeeze() error {
	for len(c.Naxis) > 3 {
		last := c.Naxis[len(c.Naxis)-1]
		if last != 1 {
			return fmt.Errorf("axis %d has length %d; only degenerate extra axes are supported", len(c.Naxis), last)
		}
		c.Naxis = c.Naxis[:len(c.Naxis)-1]
	}
	return nil
}

func (c *Cube) axis(i int) int {
	if i >= len(c.Naxis) {
		return 1
	}
	return c.Naxis[i]
}
