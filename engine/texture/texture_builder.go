package texture

import "github.com/Carmen-Shannon/oxy-draw/common"

// TextureBuilderOption is a functional option for configuring texture uploads.
type TextureBuilderOption func(*textureConfig)

// textureConfig holds the options applied to a single upload.
type textureConfig struct {
	label   string
	sampler common.SamplerStagingData
}

func newTextureConfig(options ...TextureBuilderOption) *textureConfig {
	cfg := &textureConfig{label: "Texture", sampler: DefaultSampler()}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

// WithLabel is an option builder that sets the debug label of the texture and its sampler.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - TextureBuilderOption: a function that applies the label option
func WithLabel(label string) TextureBuilderOption {
	return func(c *textureConfig) {
		if label != "" {
			c.label = label
		}
	}
}

// WithSampler is an option builder that replaces the sampler configuration as a whole.
// Every field is used as given, so zero fields mean Repeat addressing and Nearest filtering.
// Start from DefaultSampler to change single fields. MaxAnisotropy is raised to at least 1.
//
// Parameters:
//   - s: the sampler configuration
//
// Returns:
//   - TextureBuilderOption: a function that applies the sampler option
func WithSampler(s common.SamplerStagingData) TextureBuilderOption {
	return func(c *textureConfig) {
		c.sampler = s
	}
}
