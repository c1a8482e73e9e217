package wcs

import (
	"fmt"
	"math"
	"strings"

	"github.com/rickbassham/fitsderotate/common"
)

// SpectralAxis is the third (velocity or frequency) axis of a cube.
type SpectralAxis struct {
	Naxis   int
	CTYPE   string
	CUNIT   string
	CRVAL   float64
	CRPIX   float64
	CDELT   float64
	SPECSYS string
	RESTFRQ float64
}

// SpectralFromHeader reads axis 3 of h. The effective increment folds in
// PC3_3, or is taken from CD3_3 when present.
func SpectralFromHeader(h common.Header) (*SpectralAxis, error) {
	var err error
	s := &SpectralAxis{}

	if s.Naxis, err = h.Int("NAXIS3"); err != nil {
		return nil, err
	}
	if s.CTYPE, err = h.String("CTYPE3"); err != nil {
		return nil, err
	}
	if s.CRVAL, err = h.Float("CRVAL3"); err != nil {
		return nil, err
	}
	if s.CRPIX, err = h.Float("CRPIX3"); err != nil {
		return nil, err
	}

	if h.Has("CD3_3") {
		if s.CDELT, err = h.Float("CD3_3"); err != nil {
			return nil, err
		}
	} else {
		cdelt, err := h.Float("CDELT3")
		if err != nil {
			return nil, err
		}
		pc, err := h.FloatOr("PC3_3", 1)
		if err != nil {
			return nil, err
		}
		s.CDELT = cdelt * pc
	}
	if s.CDELT == 0 {
		return nil, common.InvalidKeyword("CDELT3", "channel width must be non-zero")
	}

	s.CUNIT = h.StringOr("CUNIT3", "")
	s.SPECSYS = h.StringOr("SPECSYS", "")
	if s.RESTFRQ, err = h.FloatOr("RESTFRQ", 0); err != nil {
		return nil, err
	}
	if s.RESTFRQ == 0 {
		if s.RESTFRQ, err = h.FloatOr("RESTFREQ", 0); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SpeedOfLight is c in km/s.
const SpeedOfLight = 299792.458

// ChannelWidthKms is the channel width in km/s. Velocity axes in m/s (the
// default when CUNIT3 is blank) or km/s are scaled directly. Frequency axes
// are converted with the radio convention c·|Δν|/ν0, which needs RESTFRQ.
func (s *SpectralAxis) ChannelWidthKms() (float64, error) {
	w := math.Abs(s.CDELT)
	unit := strings.ToLower(strings.ReplaceAll(s.CUNIT, " ", ""))

	switch kind := spectralKind(s.CTYPE); kind {
	case "VRAD", "VOPT", "VELO", "VELOCITY", "VLSR", "FELO":
		switch unit {
		case "", "m/s", "ms-1", "m.s-1", "ms**-1":
			return w / 1000, nil
		case "km/s", "kms-1", "km.s-1", "kms**-1":
			return w, nil
		}
		return 0, common.InvalidKeyword("CUNIT3", fmt.Sprintf("unsupported velocity unit %q", s.CUNIT))

	case "FREQ":
		hz, ok := frequencyUnits[unit]
		if !ok {
			return 0, common.InvalidKeyword("CUNIT3", fmt.Sprintf("unsupported frequency unit %q", s.CUNIT))
		}
		if s.RESTFRQ <= 0 || math.IsNaN(s.RESTFRQ) || math.IsInf(s.RESTFRQ, 0) {
			return 0, common.InvalidKeyword("RESTFRQ", "a positive rest frequency is needed to convert a frequency axis to velocity")
		}
		return SpeedOfLight * w * hz / s.RESTFRQ, nil

	default:
		return 0, common.InvalidKeyword("CTYPE3", fmt.Sprintf("unsupported spectral axis %q", kind))
	}
}

// frequencyUnits maps CUNIT3 to Hz. Blank means Hz.
var frequencyUnits = map[string]float64{
	"":    1,
	"hz":  1,
	"khz": 1e3,
	"mhz": 1e6,
	"ghz": 1e9,
}

// spectralKind is the axis type of CTYPE3 without its algorithm code.
func spectralKind(ctype string) string {
	ctype = strings.ToUpper(strings.TrimSpace(ctype))
	if i := strings.IndexByte(ctype, '-'); i >= 0 {
		return ctype[:i]
	}
	return ctype
}

// Cards returns the axis-3 keywords, with ctype replacing CTYPE3 when set.
func (s *SpectralAxis) Cards(ctype string) []common.Card {
	if ctype == "" {
		ctype = s.CTYPE
	}

	cards := []common.Card{
		{Name: "CRPIX3", Value: s.CRPIX, Comment: "Pixel coordinate of reference point"},
		{Name: "CDELT3", Value: s.CDELT, Comment: "Coordinate increment at reference point"},
	}
	if s.CUNIT != "" {
		cards = append(cards, common.Card{Name: "CUNIT3", Value: s.CUNIT, Comment: "Units of coordinate increment and value"})
	}
	cards = append(cards,
		common.Card{Name: "CTYPE3", Value: ctype},
		common.Card{Name: "CRVAL3", Value: s.CRVAL, Comment: "Coordinate value at reference point"},
	)
	if s.SPECSYS != "" {
		cards = append(cards, common.Card{Name: "SPECSYS", Value: s.SPECSYS, Comment: "Reference frame of spectral coordinates"})
	}
	if s.RESTFRQ != 0 {
		cards = append(cards, common.Card{Name: "RESTFRQ", Value: s.RESTFRQ, Comment: "[Hz] Line rest frequency"})
	}

	return cards
}
