package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateHeader(); err != nil {
		return err
	}
	if err := c.validateReproject(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOutput() error {
	if c.Output.Moment == "" {
		return errors.New("output.moment must be set")
	}
	if c.Output.Cube == "" {
		return errors.New("output.cube must be set")
	}

	seen := map[string]string{}
	for key, tpl := range map[string]string{
		"output.moment":    c.Output.Moment,
		"output.cube":      c.Output.Cube,
		"output.footprint": c.Output.Footprint,
		"output.preview":   c.Output.Preview,
	} {
		if tpl == "" {
			continue
		}
		if other, ok := seen[tpl]; ok {
			return fmt.Errorf("%s and %s use the same template %q", key, other, tpl)
		}
		seen[tpl] = key
	}

	return nil
}

func (c *Config) validateHeader() error {
	if len(c.Header.CType) != 2 {
		return errors.New("header.ctype must list exactly two axis types")
	}
	if !strings.HasSuffix(c.Header.CType[0], "-TAN") || !strings.HasSuffix(c.Header.CType[1], "-TAN") {
		return fmt.Errorf("header.ctype %v: only TAN projections are written", c.Header.CType)
	}
	if c.Header.Equinox < 0 {
		return errors.New("header.equinox must not be negative")
	}

	switch c.Header.Center {
	case "linear", "wcs":
	default:
		return fmt.Errorf("header.center must be \"linear\" or \"wcs\", got %q", c.Header.Center)
	}

	return nil
}

func (c *Config) validateReproject() error {
	switch c.Reproject.Interpolation {
	case "bilinear", "nearest":
		return nil
	}
	return fmt.Errorf("reproject.interpolation must be \"bilinear\" or \"nearest\", got %q", c.Reproject.Interpolation)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}

	return nil
}
