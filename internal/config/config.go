// Package config loads terrain-model tuning from a JSON file. Fields are
// pointers so a partial file only overrides what it names; the Get*
// accessors supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the root configuration for the terrain model. The schema is
// shared between startup configuration and test fixtures, so all fields
// are optional.
type Config struct {
	// Window geometry
	SizeX *float64 `json:"size_x,omitempty"` // window width in meters
	SizeY *float64 `json:"size_y,omitempty"` // window height in meters
	Scale *float64 `json:"scale,omitempty"`  // meters per pixel

	// Fusion params
	VarianceFactor *float64 `json:"variance_factor,omitempty"`
	DynamicMerge   *bool    `json:"dynamic_merge,omitempty"`

	// Tile persistence
	TileDir     *string `json:"tile_dir,omitempty"`
	TilePattern *string `json:"tile_pattern,omitempty"` // two %d verbs: tile x, tile y
	CatalogDB   *string `json:"catalog_db,omitempty"`   // empty disables the catalog

	// Geo-reference
	UTMZone  *int  `json:"utm_zone,omitempty"`
	UTMNorth *bool `json:"utm_north,omitempty"`
}

// Load reads a Config from a JSON file. Fields omitted from the file keep
// their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.SizeX != nil && *c.SizeX <= 0 {
		return fmt.Errorf("size_x must be positive, got %f", *c.SizeX)
	}
	if c.SizeY != nil && *c.SizeY <= 0 {
		return fmt.Errorf("size_y must be positive, got %f", *c.SizeY)
	}
	if c.Scale != nil && *c.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %f", *c.Scale)
	}
	if c.VarianceFactor != nil && *c.VarianceFactor <= 0 {
		return fmt.Errorf("variance_factor must be positive, got %f", *c.VarianceFactor)
	}
	if c.TilePattern != nil {
		if n := strings.Count(*c.TilePattern, "%d"); n != 2 {
			return fmt.Errorf("tile_pattern needs exactly two %%d verbs, got %d in %q", n, *c.TilePattern)
		}
	}
	if c.UTMZone != nil && (*c.UTMZone < 0 || *c.UTMZone > 60) {
		return fmt.Errorf("utm_zone must be in [0, 60], got %d", *c.UTMZone)
	}
	return nil
}

// GetSizeX returns the window width in meters or the default.
func (c *Config) GetSizeX() float64 {
	if c.SizeX == nil {
		return 90.0 // 3x the usable range of a typical rotating lidar
	}
	return *c.SizeX
}

// GetSizeY returns the window height in meters or the default.
func (c *Config) GetSizeY() float64 {
	if c.SizeY == nil {
		return 90.0
	}
	return *c.SizeY
}

// GetScale returns the pixel size in meters or the default.
func (c *Config) GetScale() float64 {
	if c.Scale == nil {
		return 0.1
	}
	return *c.Scale
}

// GetVarianceFactor returns the flat/vertical threshold multiplier.
func (c *Config) GetVarianceFactor() float64 {
	if c.VarianceFactor == nil {
		return 3.0
	}
	return *c.VarianceFactor
}

// GetDynamicMerge reports whether the dynamic fusion path is selected.
func (c *Config) GetDynamicMerge() bool {
	if c.DynamicMerge == nil {
		return true
	}
	return *c.DynamicMerge
}

// GetTileDir returns the maplet directory or the default.
func (c *Config) GetTileDir() string {
	if c.TileDir == nil || *c.TileDir == "" {
		return "."
	}
	return *c.TileDir
}

// GetTilePattern returns the maplet filename pattern or the default.
func (c *Config) GetTilePattern() string {
	if c.TilePattern == nil || *c.TilePattern == "" {
		return "atlaas.%dx%d.tif"
	}
	return *c.TilePattern
}

// GetCatalogDB returns the tile-catalog sqlite path; empty disables it.
func (c *Config) GetCatalogDB() string {
	if c.CatalogDB == nil {
		return ""
	}
	return *c.CatalogDB
}

// GetUTMZone returns the UTM zone number or 0 when unset.
func (c *Config) GetUTMZone() int {
	if c.UTMZone == nil {
		return 0
	}
	return *c.UTMZone
}

// GetUTMNorth reports the northern-hemisphere flag, defaulting to true.
func (c *Config) GetUTMNorth() bool {
	if c.UTMNorth == nil {
		return true
	}
	return *c.UTMNorth
}
