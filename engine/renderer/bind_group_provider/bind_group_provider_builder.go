package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithUniform appends a uniform buffer initialized with contents at the next binding index.
//
// Parameters:
//   - contents: the initial buffer bytes, which also fix the buffer size
//
// Returns:
//   - BindGroupProviderOption: a function that adds the uniform to this provider
func WithUniform(contents []byte) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.uniforms = append(p.uniforms, contents)
	}
}

// WithVisibility sets the shader stages every binding is visible to. Defaults to vertex and fragment.
//
// Parameters:
//   - stage: the shader stage mask
//
// Returns:
//   - BindGroupProviderOption: a function that sets the visibility for this provider
func WithVisibility(stage wgpu.ShaderStage) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.visibility = stage
	}
}
