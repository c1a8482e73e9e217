package fits

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/astrogo/fitsio"
	"github.com/rickbassham/fitsderotate/common"
)

type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes cube as a single BITPIX -64 primary HDU. SIMPLE, BITPIX and
// the NAXIS keywords come from the cube shape; cards follow in order.
func (e *Encoder) Encode(cube *common.Cube, cards []common.Card) error {
	f, err := fitsio.Create(e.w)
	if err != nil {
		return err
	}
	defer f.Close()

	img := fitsio.NewImage(-64, cube.Naxis)
	defer img.Close()

	out := make([]fitsio.Card, 0, len(cards))
	for _, c := range cards {
		if reserved(c.Name) {
			continue
		}
		out = append(out, fitsio.Card{Name: c.Name, Value: c.Value, Comment: c.Comment})
	}

	if err := img.Header().Append(out...); err != nil {
		return err
	}

	data := make([]float64, len(cube.Data))
	copy(data, cube.Data)
	if err := img.Write(data); err != nil {
		return err
	}

	return f.Write(img)
}

// WriteFile encodes cube to path, replacing whatever is there. The file is
// written beside the target and renamed into place, so a failed write never
// leaves a truncated output behind.
func WriteFile(path string, cube *common.Cube, cards []common.Card) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return common.IOError("create", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := NewEncoder(tmp).Encode(cube, cards); err != nil {
		tmp.Close()
		return common.IOError("encode", path, err)
	}
	if err := tmp.Close(); err != nil {
		return common.IOError("close", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return common.IOError("chmod", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return common.IOError("rename", path, fmt.Errorf("replace %s: %w", path, err))
	}

	return nil
}

// ReadFile loads the primary image of the FITS file at path.
func ReadFile(path string) (*common.Cube, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.IOError("open", path, err)
	}
	defer f.Close()

	cube, err := NewDecoder(f).ReadCube()
	if err != nil {
		return nil, common.IOError("decode", path, err)
	}

	return cube, nil
}

func reserved(name string) bool {
	switch name {
	case "SIMPLE", "BITPIX", "NAXIS", "NAXIS1", "NAXIS2", "NAXIS3", "NAXIS4", "EXTEND", "END":
		return true
	}
	return false
}
