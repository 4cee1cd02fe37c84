package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/Carmen-Shannon/oxy-draw/engine/loader"
	"github.com/Carmen-Shannon/oxy-draw/engine/texture"
)

// MissingMaterialPolicy decides what Load does with a mesh the asset assigns no material.
type MissingMaterialPolicy int

const (
	// MissingMaterialDefaultToZero assigns material 0.
	MissingMaterialDefaultToZero MissingMaterialPolicy = iota

	// MissingMaterialFail fails the load with ErrMissingMaterial.
	MissingMaterialFail
)

// String returns the policy name used in configuration files.
func (p MissingMaterialPolicy) String() string {
	switch p {
	case MissingMaterialFail:
		return "fail"
	default:
		return "default_to_zero"
	}
}

// TextureLoader uploads the image at path as a sampled texture.
type TextureLoader func(backend gpu.Backend, path string) (*texture.Texture, error)

// LoadOption is a function that configures a Load call.
type LoadOption func(*loadConfig)

type loadConfig struct {
	loader        loader.Loader
	policy        MissingMaterialPolicy
	textureLoader TextureLoader
	name          string
}

func newLoadConfig(options ...LoadOption) *loadConfig {
	cfg := &loadConfig{
		policy: MissingMaterialDefaultToZero,
		textureLoader: func(backend gpu.Backend, path string) (*texture.Texture, error) {
			return texture.Load(backend, path)
		},
	}
	for _, opt := range options {
		opt(cfg)
	}
	if cfg.loader == nil {
		cfg.loader = loader.NewLoader()
	}
	return cfg
}

// WithLoader is an option builder that sets the asset parser.
//
// Parameters:
//   - l: the loader to parse the asset with
//
// Returns:
//   - LoadOption: a function that applies the loader option
func WithLoader(l loader.Loader) LoadOption {
	return func(cfg *loadConfig) {
		cfg.loader = l
	}
}

// WithMissingMaterialPolicy is an option builder that sets how meshes without a material are handled.
//
// Parameters:
//   - policy: MissingMaterialDefaultToZero or MissingMaterialFail
//
// Returns:
//   - LoadOption: a function that applies the policy option
func WithMissingMaterialPolicy(policy MissingMaterialPolicy) LoadOption {
	return func(cfg *loadConfig) {
		cfg.policy = policy
	}
}

// WithTextureLoader is an option builder that replaces the diffuse texture upload.
//
// Parameters:
//   - fn: the texture loader
//
// Returns:
//   - LoadOption: a function that applies the texture loader option
func WithTextureLoader(fn TextureLoader) LoadOption {
	return func(cfg *loadConfig) {
		cfg.textureLoader = fn
	}
}

// WithName is an option builder that sets the model name. Defaults to the asset path.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - LoadOption: a function that applies the name option
func WithName(name string) LoadOption {
	return func(cfg *loadConfig) {
		cfg.name = name
	}
}

// ParseMissingMaterialPolicy converts a configuration string into a policy.
// The empty string selects MissingMaterialDefaultToZero.
//
// Parameters:
//   - s: "default_to_zero", "fail" or ""
//
// Returns:
//   - MissingMaterialPolicy: the policy
//   - error: error if s names no policy
func ParseMissingMaterialPolicy(s string) (MissingMaterialPolicy, error) {
	switch s {
	case "", "default_to_zero":
		return MissingMaterialDefaultToZero, nil
	case "fail":
		return MissingMaterialFail, nil
	default:
		return 0, fmt.Errorf("unknown missing material policy %q", s)
	}
}
