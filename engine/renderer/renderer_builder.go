package renderer

import (
	"github.com/Carmen-Shannon/oxy-draw/engine/model"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-draw/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction.
type RendererBuilderOption func(*rendererConfig)

type rendererConfig struct {
	label         string
	shaderKey     string
	shaderOptions []shader.ShaderBuilderOption
	depthFormat   *wgpu.TextureFormat
	vertexLayouts []wgpu.VertexBufferLayout
}

func newRendererConfig(opts ...RendererBuilderOption) *rendererConfig {
	depth := texture.DepthFormat
	cfg := &rendererConfig{
		label:         pipeline.DefaultLabel,
		shaderKey:     pipeline.ShaderModuleLabel,
		depthFormat:   &depth,
		vertexLayouts: model.VertexLayouts(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithoutDepth builds the pipeline without a depth-stencil state, for passes with no depth attachment.
//
// Returns:
//   - RendererBuilderOption: a function that disables depth testing
func WithoutDepth() RendererBuilderOption {
	return func(c *rendererConfig) {
		c.depthFormat = nil
	}
}

// WithLabel sets the render pipeline label.
//
// Parameters:
//   - label: the pipeline label
//
// Returns:
//   - RendererBuilderOption: a function that sets the label
func WithLabel(label string) RendererBuilderOption {
	return func(c *rendererConfig) {
		c.label = label
	}
}

// WithShaderKey sets the key the shader is compiled under, which appears in compile errors.
//
// Parameters:
//   - key: the shader key, usually the source file path
//
// Returns:
//   - RendererBuilderOption: a function that sets the shader key
func WithShaderKey(key string) RendererBuilderOption {
	return func(c *rendererConfig) {
		c.shaderKey = key
	}
}

// WithShaderOptions passes options through to shader.Compile, e.g. extra includes.
//
// Parameters:
//   - opts: the shader options
//
// Returns:
//   - RendererBuilderOption: a function that appends the shader options
func WithShaderOptions(opts ...shader.ShaderBuilderOption) RendererBuilderOption {
	return func(c *rendererConfig) {
		c.shaderOptions = append(c.shaderOptions, opts...)
	}
}
