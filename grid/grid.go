// Package grid derives the axis-aligned output grid for a rotated input
// image: north up, east left, the input's pixel scale, and a square frame
// large enough that no corner of the rotated input falls outside it.
package grid

import (
	"fmt"
	"math"
	"strings"

	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/wcs"
)

const (
	CenterLinear = "linear"
	CenterWCS    = "wcs"
)

// Options are the fixed conventions written into every output header.
type Options struct {
	CType     [2]string
	RadeSys   string
	Equinox   float64
	Telescope string
	BUnit     string
	Center    string

	// SpectralCType replaces CTYPE3 in the 3-D header when non-empty.
	SpectralCType string
}

func DefaultOptions() Options {
	return Options{
		CType:     [2]string{"RA---TAN", "DEC--TAN"},
		RadeSys:   "FK5",
		Equinox:   2000,
		Telescope: "JCMT",
		BUnit:     "K km/s",
		Center:    CenterLinear,
	}
}

// Output is the derived grid.
type Output struct {
	Side       int
	PixelScale float64
	Rotation   float64
	WCS        *wcs.WCS

	opts Options
}

// Side returns the output side length for an n1 x n2 input whose first row
// of the linear transform is (diag, offdiag):
//
//	round(max extent * (|diag| + |offdiag|) / scale) + 1
//
// For a square input this is round(N * (|cos θ| + |sin θ|)) + 1.
func Side(n1, n2 int, diag, offdiag float64) int {
	scale := math.Hypot(diag, offdiag)
	c, s := math.Abs(diag)/scale, math.Abs(offdiag)/scale

	w := float64(n1)*c + float64(n2)*s
	h := float64(n1)*s + float64(n2)*c

	return int(math.Round(math.Max(w, h))) + 1
}

// Derive builds the output grid from the spatial WCS of the input.
func Derive(in *wcs.WCS, opts Options) (*Output, error) {
	if err := checkFrame(in.CTYPE, opts.CType); err != nil {
		return nil, err
	}

	cd := in.CD()
	diag, offdiag := cd[0], cd[1]

	scale := math.Hypot(diag, offdiag)
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, common.InvalidKeyword("CDELT1", fmt.Sprintf("pixel scale %v is not usable", scale))
	}

	side := Side(in.Naxis[0], in.Naxis[1], diag, offdiag)
	crpix := float64(side+1) / 2

	cx := float64(in.Naxis[0]+1) / 2
	cy := float64(in.Naxis[1]+1) / 2

	var crval [2]float64
	switch opts.Center {
	case CenterLinear, "":
		crval = linearCentre(in, cx, cy)
	case CenterWCS:
		crval[0], crval[1] = in.PixelToWorld(cx, cy)
	default:
		return nil, common.ConfigurationError("grid", fmt.Errorf("unknown centering %q", opts.Center))
	}

	out, err := wcs.New([2]int{side, side}, [2]float64{crpix, crpix}, crval, -scale, scale, opts.CType)
	if err != nil {
		return nil, err
	}

	return &Output{
		Side:       side,
		PixelScale: scale,
		Rotation:   in.Rotation(),
		WCS:        out,
		opts:       opts,
	}, nil
}

// linearCentre moves CRVAL to the frame centre to first order: the offset
// CD·(c - CRPIX), with the RA term stretched by 1/cos δ on projected axes.
// Near a pole it falls back to the full projection.
func linearCentre(in *wcs.WCS, cx, cy float64) [2]float64 {
	cd := in.CD()
	dx, dy := cx-in.CRPIX[0], cy-in.CRPIX[1]
	x := cd[0]*dx + cd[1]*dy
	y := cd[2]*dx + cd[3]*dy

	if in.Projection == wcs.ProjectionLinear {
		return [2]float64{in.CRVAL[0] + x, in.CRVAL[1] + y}
	}

	cosd := math.Cos(in.CRVAL[1] * math.Pi / 180)
	if cosd < 1e-6 {
		lon, lat := in.PixelToWorld(cx, cy)
		return [2]float64{lon, lat}
	}

	lon := math.Mod(in.CRVAL[0]+x/cosd, 360)
	if lon < 0 {
		lon += 360
	}
	return [2]float64{lon, in.CRVAL[1] + y}
}

// Cards2D returns the keywords of the moment-map header.
func (o *Output) Cards2D() []common.Card {
	cards := o.WCS.Cards()
	return append(cards, o.frameCards(o.opts.BUnit)...)
}

// Cards3D returns the keywords of the cube header: the same spatial terms
// plus the input's spectral axis, copied unchanged.
func (o *Output) Cards3D(spec *wcs.SpectralAxis, bunit string) []common.Card {
	cards := o.WCS.Cards()
	cards = append(cards, spec.Cards(o.opts.SpectralCType)...)
	return append(cards, o.frameCards(bunit)...)
}

func (o *Output) frameCards(bunit string) []common.Card {
	var cards []common.Card
	if o.opts.Telescope != "" {
		cards = append(cards, common.Card{Name: "TELESCOP", Value: o.opts.Telescope, Comment: "Name of Telescope"})
	}
	if o.opts.RadeSys != "" {
		cards = append(cards, common.Card{Name: "RADESYS", Value: o.opts.RadeSys, Comment: "Equatorial coordinate system"})
	}
	if o.opts.Equinox != 0 {
		cards = append(cards, common.Card{Name: "EQUINOX", Value: o.opts.Equinox, Comment: "[yr] Equinox of equatorial coordinates"})
	}
	if bunit != "" {
		cards = append(cards, common.Card{Name: "BUNIT", Value: bunit, Comment: "Units of the data values"})
	}
	return cards
}

// checkFrame rejects inputs whose celestial frame differs from the output's,
// since the tool rotates but never converts between frames.
func checkFrame(in, out [2]string) error {
	for i := range in {
		a, b := axisName(in[i]), axisName(out[i])
		if a != b {
			return common.InvalidKeyword(fmt.Sprintf("CTYPE%d", i+1),
				fmt.Sprintf("input axis %q cannot be written as %q", in[i], out[i]))
		}
	}
	return nil
}

func axisName(ctype string) string {
	ctype = strings.ToUpper(ctype)
	if i := strings.IndexByte(ctype, '-'); i >= 0 {
		return ctype[:i]
	}
	return strings.TrimSpace(ctype)
}
