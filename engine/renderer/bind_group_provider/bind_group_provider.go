// Package bind_group_provider owns small uniform buffers together with the bind group layout
// and bind group exposing them, so a subsystem such as the camera or a light can hand a
// ready-made group to the renderer.
package bind_group_provider

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoUniforms is returned when a provider is built without any uniform.
var ErrNoUniforms = errors.New("bind group provider has no uniforms")

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// visibility is the shader stage mask applied to every entry.
	visibility wgpu.ShaderStage

	// uniforms holds the initial contents of each uniform, in binding order.
	uniforms [][]byte

	// The following fields are GPU allocated resources owned by the provider and freed by Release.

	// bindGroup is the GPU bind group exposing every buffer.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the GPU bind group layout the bind group was created against.
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers holds the GPU uniform buffers, indexed by binding.
	buffers []*wgpu.Buffer

	backend gpu.Backend
}

// BindGroupProvider defines the interface for components that own a uniform bind group.
// Components (Camera, Light) hold a BindGroupProvider and rewrite its buffers each frame;
// the renderer only reads the layout at construction and the bind group at draw time.
//
// Usage pattern:
//  1. Component creates a BindGroupProvider with one WithUniform per binding
//  2. Renderer builds its pipeline layout from BindGroupLayout()
//  3. Component calls Write(binding, offset, data) when its uniform changes
//  4. Draw calls set BindGroup() at the component's slot
type BindGroupProvider interface {
	// Release releases every GPU resource held by this provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the bind group for shader binding.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group, or nil after Release
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the bind group layout for this provider.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout, or nil after Release
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the uniform buffer at a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Write queues a write of data into the uniform at binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - offset: byte offset into the buffer
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: error if binding is unknown or the write is rejected
	Write(binding int, offset uint64, data []byte) error
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates the uniform buffers, the layout and the bind group.
// Bindings are numbered in the order of the WithUniform options.
//
// Parameters:
//   - backend: the backend to create GPU objects on
//   - label: the debug label, also used as the prefix of every GPU object label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: the provider
//   - error: ErrNoUniforms, or an error if a GPU object cannot be created
func NewBindGroupProvider(backend gpu.Backend, label string, options ...BindGroupProviderOption) (BindGroupProvider, error) {
	p := &bindGroupProvider{
		label:      label,
		visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		backend:    backend,
	}
	for _, opt := range options {
		opt(p)
	}
	if len(p.uniforms) == 0 {
		return nil, fmt.Errorf("%q: %w", label, ErrNoUniforms)
	}

	rel := gpu.NewReleaser(backend)
	defer rel.Release()

	layoutEntries := make([]wgpu.BindGroupLayoutEntry, len(p.uniforms))
	groupEntries := make([]wgpu.BindGroupEntry, len(p.uniforms))
	for i, contents := range p.uniforms {
		buf, err := backend.CreateBuffer(
			fmt.Sprintf("%s Buffer %d", label, i),
			contents,
			wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create uniform buffer %d for %q: %w", i, label, err)
		}
		rel.Track(buf)
		p.buffers = append(p.buffers, buf)

		layoutEntries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: p.visibility,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: false,
				MinBindingSize:   0,
			},
		}
		groupEntries[i] = wgpu.BindGroupEntry{
			Binding: uint32(i),
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	layout, err := backend.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label + "_bind_group_layout",
		Entries: layoutEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout for %q: %w", label, err)
	}
	rel.Track(layout)

	bg, err := backend.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label + "_bind_group",
		Layout:  layout,
		Entries: groupEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group for %q: %w", label, err)
	}

	rel.Disarm()
	p.bindGroupLayout = layout
	p.bindGroup = bg
	p.uniforms = nil
	common.Logger().Debug("bind group provider created", "label", label, "bindings", len(p.buffers))
	return p, nil
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	if binding < 0 || binding >= len(p.buffers) {
		return nil
	}
	return p.buffers[binding]
}

func (p *bindGroupProvider) Write(binding int, offset uint64, data []byte) error {
	buf := p.Buffer(binding)
	if buf == nil {
		return fmt.Errorf("%q has no buffer at binding %d", p.label, binding)
	}
	if err := p.backend.WriteBuffer(buf, offset, data); err != nil {
		return fmt.Errorf("failed to write %q binding %d: %w", p.label, binding, err)
	}
	return nil
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.backend.Release(p.bindGroup)
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.backend.Release(p.bindGroupLayout)
		p.bindGroupLayout = nil
	}
	for i := len(p.buffers) - 1; i >= 0; i-- {
		p.backend.Release(p.buffers[i])
	}
	p.buffers = nil
}
