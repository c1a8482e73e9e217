package fits

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/astrogo/fitsio"
	"github.com/rickbassham/fitsderotate/common"
)

type Decoder struct {
	rdr io.Reader
}

func NewDecoder(rdr io.Reader) *Decoder {
	return &Decoder{rdr: rdr}
}

// ReadHeader returns the keywords of the primary HDU.
func (d *Decoder) ReadHeader() (h common.Header, err error) {
	fit, err := fitsio.Open(d.rdr)
	if err != nil {
		return nil, err
	}
	defer fit.Close()

	return headerOf(fit.HDU(0)), nil
}

// ReadCube decodes the primary image, applying BSCALE/BZERO to integer data.
func (d *Decoder) ReadCube() (*common.Cube, error) {
	fit, err := fitsio.Open(d.rdr)
	if err != nil {
		return nil, err
	}
	defer fit.Close()

	hdu := fit.HDU(0)
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, errors.New("primary HDU is not an image")
	}

	hdr := headerOf(hdu)
	axes := img.Header().Axes()
	if len(axes) == 0 {
		return nil, errors.New("primary HDU has no data")
	}

	cube := common.NewCube(axes, hdr)
	if len(cube.Data) == 0 {
		return nil, errors.New("primary HDU has an empty axis")
	}

	if err := readPixels(img, cube.Data); err != nil {
		return nil, err
	}

	bitpix := img.Header().Bitpix()
	if bitpix > 0 {
		scale, err := hdr.FloatOr("BSCALE", 1)
		if err != nil {
			return nil, err
		}
		zero, err := hdr.FloatOr("BZERO", 0)
		if err != nil {
			return nil, err
		}
		hasBlank := hdr.Has("BLANK")
		blank, err := hdr.FloatOr("BLANK", 0)
		if err != nil {
			return nil, err
		}

		for i, v := range cube.Data {
			if hasBlank && v == blank {
				cube.Data[i] = math.NaN()
				continue
			}
			cube.Data[i] = zero + scale*v
		}
	}

	return cube, nil
}

// headerOf collects the cards of hdu. The structural keywords are set from
// the decoded shape, so they are present whether or not fitsio keeps them as
// cards.
func headerOf(hdu fitsio.HDU) common.Header {
	hdr := hdu.Header()

	h := common.Header{}
	for _, key := range hdr.Keys() {
		card := hdr.Get(key)
		if card == nil {
			continue
		}
		h[key] = card.Value
	}

	axes := hdr.Axes()
	h["BITPIX"] = hdr.Bitpix()
	h["NAXIS"] = len(axes)
	for i, n := range axes {
		h[fmt.Sprintf("NAXIS%d", i+1)] = n
	}

	return h
}

// readPixels reads into a slice matching BITPIX, since fitsio does not
// convert between element sizes, then widens into dst.
func readPixels(img fitsio.Image, dst []float64) error {
	n := len(dst)

	switch bitpix := img.Header().Bitpix(); bitpix {
	case 8:
		raw := make([]byte, n)
		if err := img.Read(&raw); err != nil {
			return err
		}
		for i, v := range raw {
			dst[i] = float64(v)
		}
	case 16:
		raw := make([]int16, n)
		if err := img.Read(&raw); err != nil {
			return err
		}
		for i, v := range raw {
			dst[i] = float64(v)
		}
	case 32:
		raw := make([]int32, n)
		if err := img.Read(&raw); err != nil {
			return err
		}
		for i, v := range raw {
			dst[i] = float64(v)
		}
	case 64:
		raw := make([]int64, n)
		if err := img.Read(&raw); err != nil {
			return err
		}
		for i, v := range raw {
			dst[i] = float64(v)
		}
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return err
		}
		for i, v := range raw {
			dst[i] = float64(v)
		}
	case -64:
		raw := make([]float64, n)
		if err := img.Read(&raw); err != nil {
			return err
		}
		copy(dst, raw)
	default:
		return fmt.Errorf("unsupported BITPIX %d", bitpix)
	}

	return nil
}
