// Package wcs implements the celestial world coordinate systems this tool
// reads and writes: a linear pixel transform (CDi_j, or PCi_j/CROTA2 with
// CDELTi) followed by either a gnomonic (TAN) projection or none.
//
// Pixel coordinates are 1-based, as in FITS headers: the centre of the first
// pixel is (1, 1).
package wcs

import (
	"fmt"
	"math"
	"strings"

	"github.com/rickbassham/fitsderotate/common"
	"gonum.org/v1/gonum/mat"
)

const (
	ProjectionTAN    = "TAN"
	ProjectionLinear = ""
)

// WCS maps pixels of a 2-D celestial image to sky coordinates in degrees.
type WCS struct {
	Naxis      [2]int
	CRPIX      [2]float64
	CRVAL      [2]float64
	CTYPE      [2]string
	Projection string

	cd  *mat.Dense
	inv *mat.Dense
}

// FromHeader builds the spatial WCS of the first two axes of h. Missing or
// malformed keywords fail with a configuration error naming the keyword.
func FromHeader(h common.Header) (*WCS, error) {
	w := &WCS{}

	for i := 0; i < 2; i++ {
		n := i + 1

		naxis, err := h.Int(fmt.Sprintf("NAXIS%d", n))
		if err != nil {
			return nil, err
		}
		if naxis <= 0 {
			return nil, common.InvalidKeyword(fmt.Sprintf("NAXIS%d", n), "must be positive")
		}
		w.Naxis[i] = naxis

		if w.CRPIX[i], err = h.Float(fmt.Sprintf("CRPIX%d", n)); err != nil {
			return nil, err
		}
		if w.CRVAL[i], err = h.Float(fmt.Sprintf("CRVAL%d", n)); err != nil {
			return nil, err
		}
		if w.CTYPE[i], err = h.String(fmt.Sprintf("CTYPE%d", n)); err != nil {
			return nil, err
		}

		unit := strings.ToLower(h.StringOr(fmt.Sprintf("CUNIT%d", n), "deg"))
		if unit != "deg" && unit != "degree" && unit != "degrees" {
			return nil, common.InvalidKeyword(fmt.Sprintf("CUNIT%d", n), fmt.Sprintf("unsupported unit %q", unit))
		}
	}

	proj, err := projection(w.CTYPE)
	if err != nil {
		return nil, err
	}
	w.Projection = proj

	cd, err := linearTerms(h)
	if err != nil {
		return nil, err
	}

	if err := w.setCD(cd); err != nil {
		return nil, err
	}

	return w, nil
}

// New returns an unrotated WCS with the given scale; cdelt1 is usually
// negative so that right ascension increases to the left.
func New(naxis [2]int, crpix, crval [2]float64, cdelt1, cdelt2 float64, ctype [2]string) (*WCS, error) {
	proj, err := projection(ctype)
	if err != nil {
		return nil, err
	}

	w := &WCS{Naxis: naxis, CRPIX: crpix, CRVAL: crval, CTYPE: ctype, Projection: proj}
	if err := w.setCD([4]float64{cdelt1, 0, 0, cdelt2}); err != nil {
		return nil, err
	}

	return w, nil
}

// CD returns the linear transform terms CD1_1, CD1_2, CD2_1, CD2_2.
func (w *WCS) CD() [4]float64 {
	return [4]float64{w.cd.At(0, 0), w.cd.At(0, 1), w.cd.At(1, 0), w.cd.At(1, 1)}
}

// Rotation is the angle of the pixel grid from north through east, in
// degrees, following the CROTA2 convention.
func (w *WCS) Rotation() float64 {
	cd := w.CD()
	return math.Atan2(-cd[1], cd[3]) * 180 / math.Pi
}

// PixelToWorld returns (lon, lat) in degrees for a 1-based pixel position.
func (w *WCS) PixelToWorld(px, py float64) (float64, float64) {
	dx, dy := px-w.CRPIX[0], py-w.CRPIX[1]
	x := w.cd.At(0, 0)*dx + w.cd.At(0, 1)*dy
	y := w.cd.At(1, 0)*dx + w.cd.At(1, 1)*dy

	if w.Projection == ProjectionLinear {
		return normalizeLon(w.CRVAL[0] + x), w.CRVAL[1] + y
	}

	return tanToSky(x, y, w.CRVAL[0], w.CRVAL[1])
}

// WorldToPixel returns the 1-based pixel position of (lon, lat). ok is false
// when the point cannot be projected (the far hemisphere for TAN).
func (w *WCS) WorldToPixel(lon, lat float64) (px, py float64, ok bool) {
	var x, y float64

	if w.Projection == ProjectionLinear {
		x = wrapDelta(lon - w.CRVAL[0])
		y = lat - w.CRVAL[1]
	} else {
		x, y, ok = skyToTan(lon, lat, w.CRVAL[0], w.CRVAL[1])
		if !ok {
			return 0, 0, false
		}
	}

	px = w.inv.At(0, 0)*x + w.inv.At(0, 1)*y + w.CRPIX[0]
	py = w.inv.At(1, 0)*x + w.inv.At(1, 1)*y + w.CRPIX[1]

	return px, py, true
}

// Cards returns the spatial keywords for an output header, in write order.
func (w *WCS) Cards() []common.Card {
	cd := w.CD()
	cards := []common.Card{
		{Name: "CRPIX1", Value: w.CRPIX[0], Comment: "Pixel coordinate of reference point"},
		{Name: "CRPIX2", Value: w.CRPIX[1], Comment: "Pixel coordinate of reference point"},
		{Name: "CDELT1", Value: cd[0], Comment: "[deg] Coordinate increment at reference point"},
		{Name: "CDELT2", Value: cd[3], Comment: "[deg] Coordinate increment at reference point"},
	}
	if cd[1] != 0 || cd[2] != 0 {
		cards[2].Value, cards[3].Value = 1.0, 1.0
		cards = append(cards,
			common.Card{Name: "PC1_1", Value: cd[0]},
			common.Card{Name: "PC1_2", Value: cd[1]},
			common.Card{Name: "PC2_1", Value: cd[2]},
			common.Card{Name: "PC2_2", Value: cd[3]},
		)
	}

	return append(cards,
		common.Card{Name: "CUNIT1", Value: "deg", Comment: "Units of coordinate increment and value"},
		common.Card{Name: "CUNIT2", Value: "deg", Comment: "Units of coordinate increment and value"},
		common.Card{Name: "CTYPE1", Value: w.CTYPE[0]},
		common.Card{Name: "CTYPE2", Value: w.CTYPE[1]},
		common.Card{Name: "CRVAL1", Value: w.CRVAL[0], Comment: "[deg] Coordinate value at reference point"},
		common.Card{Name: "CRVAL2", Value: w.CRVAL[1], Comment: "[deg] Coordinate value at reference point"},
	)
}

func (w *WCS) setCD(cd [4]float64) error {
	m := mat.NewDense(2, 2, cd[:])

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return common.ConfigurationError("pixel transform", fmt.Errorf("singular CD matrix %v: %w", cd, err))
	}

	w.cd = m
	w.inv = &inv
	return nil
}

// linearTerms resolves the CD matrix from CDi_j, or from CDELTi combined
// with PCi_j or CROTA2.
func linearTerms(h common.Header) ([4]float64, error) {
	var cd [4]float64
	names := [4]string{"CD1_1", "CD1_2", "CD2_1", "CD2_2"}

	hasCD := false
	for _, n := range names {
		if h.Has(n) {
			hasCD = true
		}
	}

	if hasCD {
		for i, n := range names {
			v, err := h.FloatOr(n, 0)
			if err != nil {
				return cd, err
			}
			cd[i] = v
		}
		return cd, nil
	}

	cdelt1, err := h.Float("CDELT1")
	if err != nil {
		return cd, err
	}
	cdelt2, err := h.Float("CDELT2")
	if err != nil {
		return cd, err
	}
	if cdelt1 == 0 || cdelt2 == 0 {
		return cd, common.InvalidKeyword("CDELT1", "pixel increments must be non-zero")
	}

	pc := [4]float64{1, 0, 0, 1}
	switch {
	case h.Has("PC1_1") || h.Has("PC1_2") || h.Has("PC2_1") || h.Has("PC2_2"):
		for i, n := range [4]string{"PC1_1", "PC1_2", "PC2_1", "PC2_2"} {
			if pc[i], err = h.FloatOr(n, pc[i]); err != nil {
				return cd, err
			}
		}
	case h.Has("CROTA2"):
		rho, err := h.Float("CROTA2")
		if err != nil {
			return cd, err
		}
		s, c := math.Sincos(rho * math.Pi / 180)
		pc = [4]float64{c, -s * cdelt2 / cdelt1, s * cdelt1 / cdelt2, c}
	}

	cd[0] = cdelt1 * pc[0]
	cd[1] = cdelt1 * pc[1]
	cd[2] = cdelt2 * pc[2]
	cd[3] = cdelt2 * pc[3]

	return cd, nil
}

func projection(ctype [2]string) (string, error) {
	lon, lat := strings.ToUpper(ctype[0]), strings.ToUpper(ctype[1])

	if !isLongitude(lon) {
		return "", common.InvalidKeyword("CTYPE1", fmt.Sprintf("%q is not a longitude axis", ctype[0]))
	}
	if !isLatitude(lat) {
		return "", common.InvalidKeyword("CTYPE2", fmt.Sprintf("%q is not a latitude axis", ctype[1]))
	}

	p1, p2 := projectionCode(lon), projectionCode(lat)
	if p1 != p2 {
		return "", common.InvalidKeyword("CTYPE2", fmt.Sprintf("projection %q does not match CTYPE1 %q", p2, p1))
	}

	switch p1 {
	case ProjectionTAN, ProjectionLinear:
		return p1, nil
	}

	return "", common.InvalidKeyword("CTYPE1", fmt.Sprintf("unsupported projection %q", p1))
}

func projectionCode(ctype string) string {
	if len(ctype) < 8 || ctype[4] != '-' {
		return ProjectionLinear
	}
	return strings.TrimRight(ctype[5:], " ")
}

func isLongitude(ctype string) bool {
	for _, p := range []string{"RA", "GLON", "ELON"} {
		if ctype == p || strings.HasPrefix(ctype, p+"-") {
			return true
		}
	}
	return false
}

func isLatitude(ctype string) bool {
	for _, p := range []string{"DEC", "GLAT", "ELAT"} {
		if ctype == p || strings.HasPrefix(ctype, p+"-") {
			return true
		}
	}
	return false
}
