package cubism

import (
	"encoding/json"
	"fmt"
)

// Config holds renderer settings. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	ScreenWidth  int `json:"screenWidth"`
	ScreenHeight int `json:"screenHeight"`

	// MaskTextureSize is the edge length of each mask page in pixels.
	MaskTextureSize int `json:"maskTextureSize"`
	// MaskSubdivisions is the legacy subdivision level (1..5).
	MaskSubdivisions int `json:"maskSubdivisions"`
	// MaskPages selects the balanced layout over that many pages; 0 keeps
	// the legacy single page.
	MaskPages    int `json:"maskPages"`
	MaskChannels int `json:"maskChannels"`

	// OffscreenWidth and OffscreenHeight size offscreen surfaces; zero
	// means the screen size.
	OffscreenWidth     int `json:"offscreenWidth"`
	OffscreenHeight    int `json:"offscreenHeight"`
	OffscreenPoolFloor int `json:"offscreenPoolFloor"`

	// Debug logs per-frame stats at debug level.
	Debug bool `json:"debug"`
}

// DefaultConfig returns a 1280×720 configuration with a legacy mask page.
func DefaultConfig() Config {
	return Config{
		ScreenWidth:      1280,
		ScreenHeight:     720,
		MaskTextureSize:  1024,
		MaskSubdivisions: 3,
		MaskChannels:     DefaultChannelCount,
	}
}

// LoadConfig parses a JSON config on top of DefaultConfig and validates it.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.ScreenWidth <= 0 || c.ScreenHeight <= 0:
		return fmt.Errorf("screen size %dx%d: %w", c.ScreenWidth, c.ScreenHeight, ErrInvalidConfig)
	case c.MaskTextureSize <= 0:
		return fmt.Errorf("mask texture size %d: %w", c.MaskTextureSize, ErrInvalidConfig)
	case c.MaskSubdivisions < 1 || c.MaskSubdivisions > 5:
		return fmt.Errorf("mask subdivisions %d not in 1..5: %w", c.MaskSubdivisions, ErrInvalidConfig)
	case c.MaskPages < 0:
		return fmt.Errorf("mask pages %d: %w", c.MaskPages, ErrInvalidConfig)
	case c.MaskChannels < 1 || c.MaskChannels > DefaultChannelCount:
		return fmt.Errorf("mask channels %d not in 1..%d: %w", c.MaskChannels, DefaultChannelCount, ErrInvalidConfig)
	case c.OffscreenWidth < 0 || c.OffscreenHeight < 0:
		return fmt.Errorf("offscreen size %dx%d: %w", c.OffscreenWidth, c.OffscreenHeight, ErrInvalidConfig)
	case c.OffscreenPoolFloor < 0:
		return fmt.Errorf("offscreen pool floor %d: %w", c.OffscreenPoolFloor, ErrInvalidConfig)
	}
	return nil
}

func (c Config) offscreenSize() (int, int) {
	w, h := c.OffscreenWidth, c.OffscreenHeight
	if w == 0 || h == 0 {
		w, h = c.ScreenWidth, c.ScreenHeight
	}
	return w, h
}
