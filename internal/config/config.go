// Package config loads the sign's settings file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"formpix/internal/geometry"
)

// Output selects where frames go.
type Output string

const (
	OutputStrip    Output = "strip"
	OutputTerminal Output = "terminal"
	OutputBoth     Output = "both"
)

type Config struct {
	FormbarURL      string `yaml:"formbarUrl"`
	API             string `yaml:"api"`
	Port            int    `yaml:"port"`
	BarPixels       int    `yaml:"barPixels"`
	Boards          int    `yaml:"boards"`
	BoardWidth      int    `yaml:"boardWidth"`
	BoardHeight     int    `yaml:"boardHeight"`
	Brightness      int    `yaml:"brightness"`
	SPIDevice       string `yaml:"spiDevice"`
	Output          Output `yaml:"output"`
	SoundDir        string `yaml:"soundDir"`
	PermissionCheck *bool  `yaml:"permissionCheck,omitempty"`
}

// Load reads path, which may be YAML or JSON. An empty path gives the
// defaults, which still need a formBar URL to validate.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Port:        3000,
		BarPixels:   12,
		Boards:      1,
		BoardWidth:  geometry.BoardWidth,
		BoardHeight: geometry.BoardHeight,
		Brightness:  255,
		SPIDevice:   "/dev/spidev0.0",
		Output:      OutputStrip,
		SoundDir:    ".",
	}
}

// Normalize trims strings and fills zero values left by a sparse file.
func (c *Config) Normalize() {
	c.FormbarURL = strings.TrimRight(strings.TrimSpace(c.FormbarURL), "/")
	c.API = strings.TrimSpace(c.API)
	c.Output = Output(strings.ToLower(strings.TrimSpace(string(c.Output))))
	if c.Output == "" {
		c.Output = OutputStrip
	}
	if c.BoardWidth == 0 {
		c.BoardWidth = geometry.BoardWidth
	}
	if c.BoardHeight == 0 {
		c.BoardHeight = geometry.BoardHeight
	}
	if c.SoundDir == "" {
		c.SoundDir = "."
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.FormbarURL == "" {
		errs = append(errs, errors.New("formbarUrl is required"))
	} else if u, err := url.Parse(c.FormbarURL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("formbarUrl %q is not an absolute URL", c.FormbarURL))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.BarPixels < 0 {
		errs = append(errs, errors.New("barPixels must not be negative"))
	}
	if c.Boards < 0 {
		errs = append(errs, errors.New("boards must not be negative"))
	}
	if c.BoardWidth <= 0 || c.BoardHeight <= 0 {
		errs = append(errs, errors.New("board size must be positive"))
	}
	if c.Brightness < 0 || c.Brightness > 255 {
		errs = append(errs, fmt.Errorf("brightness %d out of range 0-255", c.Brightness))
	}
	switch c.Output {
	case OutputStrip, OutputTerminal, OutputBoth:
	default:
		errs = append(errs, fmt.Errorf("unknown output %q", c.Output))
	}
	return errors.Join(errs...)
}

// Geometry is the strip layout the settings describe.
func (c Config) Geometry() geometry.Geometry {
	return geometry.Geometry{
		BarLength: c.BarPixels,
		Boards:    c.Boards,
		Width:     c.BoardWidth,
		Height:    c.BoardHeight,
	}
}

// IdleText is the formBar host shown while no poll is running.
func (c Config) IdleText() string {
	if _, rest, ok := strings.Cut(c.FormbarURL, "://"); ok {
		return rest
	}
	return c.FormbarURL
}

// CheckPermissions reports whether API callers are checked against formBar.
func (c Config) CheckPermissions() bool {
	return c.PermissionCheck == nil || *c.PermissionCheck
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
