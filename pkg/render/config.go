package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWidth is the thumbnail width in pixels.
	DefaultWidth = 1200

	// DefaultHeight is the thumbnail height in pixels.
	DefaultHeight = 800

	// DefaultPadding is the empty margin kept on every side of the canvas.
	DefaultPadding = 40

	// DefaultNodeSize is the edge length of a node's icon or shape.
	DefaultNodeSize = 60

	// DefaultFontSize is the node label size; interface labels are two points smaller.
	DefaultFontSize = 12

	// DefaultBackground is the canvas color.
	DefaultBackground = "white"
)

// =============================================================================
// Config
// =============================================================================

// Config controls thumbnail geometry and style. Start from [DefaultConfig] or
// [NewConfig]; a zero Config gets size and color defaults from SetDefaults
// but keeps its padding and boolean flags as given.
type Config struct {
	Width               int    `json:"width" yaml:"width" toml:"width" validate:"gte=0"`
	Height              int    `json:"height" yaml:"height" toml:"height" validate:"gte=0"`
	Padding             int    `json:"padding" yaml:"padding" toml:"padding" validate:"gte=0"`
	NodeSize            int    `json:"node_size" yaml:"node_size" toml:"node_size" validate:"gte=0"`
	FontSize            int    `json:"font_size" yaml:"font_size" toml:"font_size" validate:"gte=0"`
	Background          string `json:"background" yaml:"background" toml:"background"`
	UseIcons            bool   `json:"use_icons" yaml:"use_icons" toml:"use_icons"`
	ShowInterfaceLabels bool   `json:"show_interface_labels" yaml:"show_interface_labels" toml:"show_interface_labels"`
}

// DefaultConfig returns the default configuration: 1200x800, 40px padding,
// 60px nodes, 12pt labels on white, shapes instead of icons, interface
// labels shown.
func DefaultConfig() Config {
	return Config{
		Width:               DefaultWidth,
		Height:              DefaultHeight,
		Padding:             DefaultPadding,
		NodeSize:            DefaultNodeSize,
		FontSize:            DefaultFontSize,
		Background:          DefaultBackground,
		UseIcons:            false,
		ShowInterfaceLabels: true,
	}
}

// Option overrides one Config field.
type Option func(*Config)

// NewConfig returns DefaultConfig with opts applied in order.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithSize sets the canvas size.
func WithSize(width, height int) Option {
	return func(c *Config) { c.Width, c.Height = width, height }
}

// WithPadding sets the canvas margin.
func WithPadding(px int) Option {
	return func(c *Config) { c.Padding = px }
}

// WithNodeSize sets the icon/shape edge length.
func WithNodeSize(px int) Option {
	return func(c *Config) { c.NodeSize = px }
}

// WithFontSize sets the node label size.
func WithFontSize(pt int) Option {
	return func(c *Config) { c.FontSize = pt }
}

// WithBackground sets the canvas color (name or #hex).
func WithBackground(color string) Option {
	return func(c *Config) { c.Background = color }
}

// WithIcons switches between server icons and generic shapes.
func WithIcons(enabled bool) Option {
	return func(c *Config) { c.UseIcons = enabled }
}

// WithInterfaceLabels toggles port labels on links.
func WithInterfaceLabels(enabled bool) Option {
	return func(c *Config) { c.ShowInterfaceLabels = enabled }
}

// SetDefaults fills zero sizes and an empty background. Padding is left
// alone: zero is a valid margin.
func (c *Config) SetDefaults() {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.NodeSize == 0 {
		c.NodeSize = DefaultNodeSize
	}
	if c.FontSize == 0 {
		c.FontSize = DefaultFontSize
	}
	if c.Background == "" {
		c.Background = DefaultBackground
	}
}

// Validate reports an INVALID_CONFIG error for non-positive sizes, padding
// that leaves no room for a node, or an unparseable background color.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return snaperrors.New(snaperrors.ErrCodeInvalidConfig, "canvas size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.NodeSize <= 0 {
		return snaperrors.New(snaperrors.ErrCodeInvalidConfig, "node size must be positive, got %d", c.NodeSize)
	}
	if c.FontSize <= 0 {
		return snaperrors.New(snaperrors.ErrCodeInvalidConfig, "font size must be positive, got %d", c.FontSize)
	}
	if c.Padding < 0 {
		return snaperrors.New(snaperrors.ErrCodeInvalidConfig, "padding must not be negative, got %d", c.Padding)
	}
	if c.Width-2*c.Padding-c.NodeSize < 0 || c.Height-2*c.Padding-c.NodeSize < 0 {
		return snaperrors.New(snaperrors.ErrCodeInvalidConfig,
			"padding %d and node size %d leave no room on a %dx%d canvas", c.Padding, c.NodeSize, c.Width, c.Height)
	}
	if _, err := ParseColor(c.Background); err != nil {
		return snaperrors.Wrap(snaperrors.ErrCodeInvalidConfig, err, "background")
	}
	return nil
}

// ParseColor accepts SVG color names, "transparent", and #rgb, #rrggbb or
// #rrggbbaa hex notation.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "transparent" || s == "none" {
		return color.NRGBA{}, nil
	}
	if c, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
