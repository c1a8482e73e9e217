// Package config loads, normalizes, and validates fitsderotate configuration.
//
// It supplies defaults for every knob that used to be a constant in the
// reduction scripts (telescope name, equinox, output file names), reads TOML
// files, and reports invalid values with the offending key.
package config
