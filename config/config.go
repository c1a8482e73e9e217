package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Output contains the output file name templates. Templates may use {stem}
// and {KEYWORD} or {KEYWORD:format} tokens from the input header.
type Output struct {
	Dir       string `toml:"dir"`
	Moment    string `toml:"moment"`
	Cube      string `toml:"cube"`
	Footprint string `toml:"footprint"`
	Preview   string `toml:"preview"`
	NoSpace   bool   `toml:"no_space"`
}

// Header contains the fixed conventions written into every output header.
type Header struct {
	Telescope     string   `toml:"telescope"`
	RadeSys       string   `toml:"radesys"`
	Equinox       float64  `toml:"equinox"`
	CType         []string `toml:"ctype"`
	MomentBUnit   string   `toml:"moment_bunit"`
	SpectralCType string   `toml:"spectral_ctype"`
	Center        string   `toml:"center"`
}

// Reproject contains interpolation settings.
type Reproject struct {
	Interpolation string `toml:"interpolation"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates every setting of a derotation run.
type Config struct {
	Output    Output    `toml:"output"`
	Header    Header    `toml:"header"`
	Reproject Reproject `toml:"reproject"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fitsderotate/config.toml")
}

// Load locates, parses, and validates a configuration file. When path is
// empty, ./fitsderotate.toml and then the user config are tried; if neither
// exists the defaults are returned and exists is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("fitsderotate.toml")
	if err != nil {
		return "", false, err
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// Normalize trims and case-folds enumerated settings and expands the output
// directory. It is safe to call again after overriding fields.
func (c *Config) Normalize() error {
	c.Output.Moment = strings.TrimSpace(c.Output.Moment)
	c.Output.Cube = strings.TrimSpace(c.Output.Cube)
	c.Output.Footprint = strings.TrimSpace(c.Output.Footprint)
	c.Output.Preview = strings.TrimSpace(c.Output.Preview)

	if c.Output.Dir != "" {
		dir, err := expandPath(c.Output.Dir)
		if err != nil {
			return err
		}
		c.Output.Dir = dir
	}

	c.Header.Center = strings.ToLower(strings.TrimSpace(c.Header.Center))
	c.Reproject.Interpolation = strings.ToLower(strings.TrimSpace(c.Reproject.Interpolation))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	for i := range c.Header.CType {
		c.Header.CType[i] = strings.ToUpper(strings.TrimSpace(c.Header.CType[i]))
	}

	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
