package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/model"
	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"
)

// Config is the viewer configuration file.
type Config struct {
	// Asset is the OBJ file to draw. Required.
	Asset string `yaml:"asset"`
	// Shader is an optional WGSL file replacing the built-in lit shader.
	Shader string `yaml:"shader"`
	// MissingMaterial is "default_to_zero" or "fail".
	MissingMaterial string `yaml:"missing_material"`
	// VSync is a pointer to distinguish unset from false.
	VSync *bool `yaml:"vsync"`
	// Profile logs frame statistics once per second.
	Profile bool `yaml:"profile"`

	Window    WindowConfig `yaml:"window"`
	Instances GridConfig   `yaml:"instances"`
	Camera    CameraConfig `yaml:"camera"`
	Light     LightConfig  `yaml:"light"`
}

// WindowConfig sizes and titles the viewer window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// GridConfig lays out model instances on the XZ plane, centred on the origin.
type GridConfig struct {
	Columns int     `yaml:"columns"`
	Rows    int     `yaml:"rows"`
	Spacing float32 `yaml:"spacing"`
}

// CameraConfig places the orbit camera.
type CameraConfig struct {
	Eye    [3]float32 `yaml:"eye"`
	Target [3]float32 `yaml:"target"`
	// Fov is the vertical field of view in degrees.
	Fov float32 `yaml:"fov"`
}

// LightConfig places the point light.
type LightConfig struct {
	Position  [3]float32 `yaml:"position"`
	Color     [3]float32 `yaml:"color"`
	Intensity float32    `yaml:"intensity"`
}

// LoadConfig reads the YAML file at path and fills unset fields with defaults.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - Config: the configuration
//   - error: error if the file cannot be read or parsed, or the asset path is missing
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML data and fills unset fields with defaults.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the configuration
//   - error: error if data is malformed, names an unknown field or policy, or has no asset path
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Asset == "" {
		return Config{}, fmt.Errorf("config: asset is required")
	}
	if _, err := model.ParseMissingMaterialPolicy(cfg.MissingMaterial); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.VSync == nil {
		vsync := true
		cfg.VSync = &vsync
	}
	cfg.Window.Title = common.Coalesce(cfg.Window.Title, "oxy-draw viewer")
	cfg.Window.Width = common.Coalesce(cfg.Window.Width, 1280)
	cfg.Window.Height = common.Coalesce(cfg.Window.Height, 720)

	cfg.Instances.Columns = max(cfg.Instances.Columns, 1)
	cfg.Instances.Rows = max(cfg.Instances.Rows, 1)
	cfg.Instances.Spacing = common.Coalesce(cfg.Instances.Spacing, 2)

	cfg.Camera.Eye = common.Coalesce(cfg.Camera.Eye, [3]float32{0, 2, 5})
	cfg.Camera.Fov = common.Coalesce(cfg.Camera.Fov, 45)

	cfg.Light.Position = common.Coalesce(cfg.Light.Position, [3]float32{2, 4, 2})
	cfg.Light.Color = common.Coalesce(cfg.Light.Color, [3]float32{1, 1, 1})
	cfg.Light.Intensity = common.Coalesce(cfg.Light.Intensity, 1)
}

// Policy returns the configured missing-material policy.
//
// Returns:
//   - model.MissingMaterialPolicy: the policy, MissingMaterialDefaultToZero when unset
func (cfg Config) Policy() model.MissingMaterialPolicy {
	p, _ := model.ParseMissingMaterialPolicy(cfg.MissingMaterial)
	return p
}

// Orbit converts the eye position into orbit coordinates around the target.
// An eye on the target falls back to a radius of one looking down -Z.
//
// Returns:
//   - radius: distance from target to eye
//   - azimuth: rotation about +Y in radians, zero on the +Z axis
//   - elevation: angle above the XZ plane in radians
func (c CameraConfig) Orbit() (radius, azimuth, elevation float32) {
	d := [3]float32{c.Eye[0] - c.Target[0], c.Eye[1] - c.Target[1], c.Eye[2] - c.Target[2]}
	radius = math32.Sqrt(common.Dot3(d, d))
	if radius == 0 {
		return 1, 0, 0
	}
	return radius, math32.Atan2(d[0], d[2]), math32.Asin(d[1] / radius)
}

// Grid returns Columns×Rows unrotated instances spaced Spacing apart, row-major from -X,-Z.
//
// Returns:
//   - []model.Instance: the instances
func (g GridConfig) Grid() []model.Instance {
	instances := make([]model.Instance, 0, g.Columns*g.Rows)
	x0 := -float32(g.Columns-1) * g.Spacing / 2
	z0 := -float32(g.Rows-1) * g.Spacing / 2
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Columns; c++ {
			instances = append(instances, model.NewInstance([3]float32{
				x0 + float32(c)*g.Spacing,
				0,
				z0 + float32(r)*g.Spacing,
			}))
		}
	}
	return instances
}
