// Package pipeline runs the rotation correction of one spectral cube:
//
//	load -> integrate -> derive grid -> reproject 2-D -> write 2-D
//	     -> extend grid to 3-D -> reproject cube -> write 3-D
//
// Steps run strictly in order; the cube is reprojected onto the grid derived
// for the moment map.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/fits"
	"github.com/rickbassham/fitsderotate/grid"
	"github.com/rickbassham/fitsderotate/logging"
	"github.com/rickbassham/fitsderotate/moment"
	"github.com/rickbassham/fitsderotate/naming"
	"github.com/rickbassham/fitsderotate/preview"
	"github.com/rickbassham/fitsderotate/reproject"
	"github.com/rickbassham/fitsderotate/wcs"
	"github.com/rickbassham/fitsderotate/xisf"
)

// LockName is the advisory lock held in the output directory during a run.
const LockName = ".fitsderotate.lock"

// Options configure a Corrector. Footprint and Preview may be nil.
type Options struct {
	Grid      grid.Options
	Kernel    reproject.Kernel
	OutputDir string
	Moment    *naming.Template
	Cube      *naming.Template
	Footprint *naming.Template
	Preview   *naming.Template
}

// Result describes what a run wrote.
type Result struct {
	Input     string
	Moment    string
	Cube      string
	Footprint string
	Preview   string
	Grid      *grid.Output
	Covered   int
}

// Corrector writes rotation-corrected moment maps and cubes.
type Corrector struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Corrector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Corrector{opts: opts, logger: logger}
}

// Run processes one input file. Output files are replaced unconditionally.
func (c *Corrector) Run(input string) (*Result, error) {
	start := time.Now()
	logger := c.logger.With("input", input)

	outDir := c.opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, common.IOError("create output directory", outDir, err)
	}

	lock := flock.New(filepath.Join(outDir, LockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, common.IOError("lock", lock.Path(), err)
	}
	if !ok {
		return nil, common.IOError("lock", lock.Path(), errors.New("another run is writing to this directory"))
	}
	defer lock.Unlock()

	cube, err := Load(input)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded cube", "naxis", fmt.Sprint(cube.Naxis))

	if err := cube.Squeeze(); err != nil {
		return nil, common.ConfigurationError("load "+input, err)
	}
	if len(cube.Naxis) != 3 {
		return nil, common.ConfigurationError("load "+input, fmt.Errorf("expected a 3-D spectral cube, got %d axes", len(cube.Naxis)))
	}

	spatial, err := wcs.FromHeader(cube.Header)
	if err != nil {
		return nil, err
	}
	spectral, err := wcs.SpectralFromHeader(cube.Header)
	if err != nil {
		return nil, err
	}

	res := &Result{Input: input}
	vars := map[string]string{"stem": Stem(input)}

	if res.Moment, err = c.outputPath(c.opts.Moment, cube.Header, vars, outDir); err != nil {
		return nil, err
	}
	if res.Cube, err = c.outputPath(c.opts.Cube, cube.Header, vars, outDir); err != nil {
		return nil, err
	}
	if res.Footprint, err = c.outputPath(c.opts.Footprint, cube.Header, vars, outDir); err != nil {
		return nil, err
	}
	if res.Preview, err = c.outputPath(c.opts.Preview, cube.Header, vars, outDir); err != nil {
		return nil, err
	}

	m0, err := moment.Zero(cube, spectral)
	if err != nil {
		return nil, err
	}

	out, err := grid.Derive(spatial, c.opts.Grid)
	if err != nil {
		return nil, err
	}
	res.Grid = out
	logger.Info("derived output grid",
		"rotation_deg", out.Rotation,
		"side", out.Side,
		"crpix", out.WCS.CRPIX[0],
		"pixel_scale_arcsec", out.PixelScale*3600,
	)

	m0rp, footprint, err := reproject.Image(m0, spatial, out.WCS, c.opts.Kernel)
	if err != nil {
		return nil, err
	}
	res.Covered = countCovered(footprint.Data)

	if err := fits.WriteFile(res.Moment, m0rp, out.Cards2D()); err != nil {
		return nil, err
	}
	logger.Info("wrote moment map", "path", res.Moment, "covered", res.Covered)

	if res.Footprint != "" {
		if err := fits.WriteFile(res.Footprint, footprint, out.WCS.Cards()); err != nil {
			return nil, err
		}
		logger.Info("wrote footprint", "path", res.Footprint)
	}

	if res.Preview != "" {
		if err := preview.Write(res.Preview, m0rp, preview.Options{Title: vars["stem"]}); err != nil {
			return nil, err
		}
		logger.Info("wrote preview", "path", res.Preview)
	}

	cubeRP, _, err := reproject.Cube(cube, spatial, out.WCS, c.opts.Kernel)
	if err != nil {
		return nil, err
	}

	bunit := cube.Header.StringOr("BUNIT", "")
	if err := fits.WriteFile(res.Cube, cubeRP, out.Cards3D(spectral, bunit)); err != nil {
		return nil, err
	}
	logger.Info("wrote cube", "path", res.Cube, "planes", cubeRP.Planes(), "elapsed", time.Since(start))

	return res, nil
}

// Load reads a FITS or XISF image, chosen by file extension.
func Load(path string) (*common.Cube, error) {
	if strings.EqualFold(filepath.Ext(path), ".xisf") {
		f, err := os.Open(path)
		if err != nil {
			return nil, common.IOError("open", path, err)
		}
		defer f.Close()

		cube, err := xisf.NewDecoder(f).ReadCube()
		if err != nil {
			return nil, common.IOError("decode", path, err)
		}
		return cube, nil
	}

	return fits.ReadFile(path)
}

// ReadHeader returns only the header of a FITS or XISF file.
func ReadHeader(path string) (common.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.IOError("open", path, err)
	}
	defer f.Close()

	var hdr common.Header
	if strings.EqualFold(filepath.Ext(path), ".xisf") {
		hdr, err = xisf.NewDecoder(f).ReadHeader()
	} else {
		hdr, err = fits.NewDecoder(f).ReadHeader()
	}
	if err != nil {
		return nil, common.IOError("decode", path, err)
	}

	return hdr, nil
}

// Stem is the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (c *Corrector) outputPath(tpl *naming.Template, hdr common.Header, vars map[string]string, dir string) (string, error) {
	if tpl == nil || tpl.String() == "" {
		return "", nil
	}

	name, err := tpl.Render(hdr, vars)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", common.ConfigurationError("output name", fmt.Errorf("template %q rendered empty", tpl))
	}

	if filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(dir, name), nil
}

func countCovered(footprint []float64) int {
	n := 0
	for _, f := range footprint {
		if f > 0 {
			n++
		}
	}
	return n
}
