package config

const (
	defaultMomentTemplate = "{stem}_MomZero_rp.fits"
	defaultCubeTemplate   = "{stem}_cube_rp.fits"
	defaultTelescope      = "JCMT"
	defaultRadeSys        = "FK5"
	defaultEquinox        = 2000.0
	defaultMomentBUnit    = "K km/s"
	defaultCenter         = "linear"
	defaultInterpolation  = "bilinear"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Output: Output{
			Moment:  defaultMomentTemplate,
			Cube:    defaultCubeTemplate,
			NoSpace: true,
		},
		Header: Header{
			Telescope:   defaultTelescope,
			RadeSys:     defaultRadeSys,
			Equinox:     defaultEquinox,
			CType:       []string{"RA---TAN", "DEC--TAN"},
			MomentBUnit: defaultMomentBUnit,
			Center:      defaultCenter,
		},
		Reproject: Reproject{
			Interpolation: defaultInterpolation,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
