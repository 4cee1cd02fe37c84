// Package material pairs a diffuse texture with the bind group that exposes it to the
// fragment stage under the shared material layout.
package material

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/Carmen-Shannon/oxy-draw/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// LayoutLabel is the debug label of the shared material bind group layout.
const LayoutLabel = "material_bind_group_layout"

// ErrNoDiffuse is returned by NewMaterial when no diffuse texture was supplied.
var ErrNoDiffuse = errors.New("material has no diffuse texture")

// material is the implementation of the Material interface.
type material struct {
	name         string
	diffuseColor [3]float32
	diffuse      *texture.Texture
	bindGroup    *wgpu.BindGroup
	backend      gpu.Backend
}

// Material defines the interface for a render material: a diffuse texture and the bind group
// exposing {texture view at binding 0, sampler at binding 1} to the fragment stage.
//
// A Material is immutable once constructed and owns both its texture and its bind group.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// DiffuseColor retrieves the diffuse RGB factor of the material.
	//
	// Returns:
	//   - [3]float32: the diffuse color
	DiffuseColor() [3]float32

	// Diffuse retrieves the diffuse texture.
	//
	// Returns:
	//   - *texture.Texture: the texture, its view and sampler
	Diffuse() *texture.Texture

	// BindGroup retrieves the bind group to set at the material slot.
	//
	// Returns:
	//   - *wgpu.BindGroup: the material bind group
	BindGroup() *wgpu.BindGroup

	// Release frees the bind group and the diffuse texture.
	Release()
}

var _ Material = &material{}

// NewMaterial creates a Material whose bind group is built against layout.
// On success the Material takes ownership of the diffuse texture.
//
// Parameters:
//   - backend: the backend to create the bind group on
//   - layout: the shared material layout, usually from NewLayout
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: the material
//   - error: ErrNoDiffuse, or an error if the bind group cannot be created
func NewMaterial(backend gpu.Backend, layout *wgpu.BindGroupLayout, options ...MaterialBuilderOption) (Material, error) {
	m := &material{
		diffuseColor: [3]float32{1, 1, 1},
		backend:      backend,
	}
	for _, opt := range options {
		opt(m)
	}

	if m.diffuse == nil || m.diffuse.View == nil || m.diffuse.Sampler == nil {
		return nil, fmt.Errorf("material %q: %w", m.name, ErrNoDiffuse)
	}

	bg, err := backend.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  m.name,
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: m.diffuse.View},
			{Binding: 1, Sampler: m.diffuse.Sampler},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group for material %q: %w", m.name, err)
	}
	m.bindGroup = bg

	common.Logger().Debug("material created", "name", m.name, "texture", m.diffuse.Label)
	return m, nil
}

// LayoutDescriptor describes the two-entry layout every material bind group uses: a filterable
// float 2D texture at binding 0 and a filtering sampler at binding 1, both fragment-only.
//
// Returns:
//   - *wgpu.BindGroupLayoutDescriptor: the layout descriptor
func LayoutDescriptor() *wgpu.BindGroupLayoutDescriptor {
	return &wgpu.BindGroupLayoutDescriptor{
		Label: LayoutLabel,
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					Multisampled:  false,
					ViewDimension: wgpu.TextureViewDimension2D,
					SampleType:    wgpu.TextureSampleTypeFloat,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	}
}

// NewLayout creates the shared material bind group layout.
//
// Parameters:
//   - backend: the backend to create the layout on
//
// Returns:
//   - *wgpu.BindGroupLayout: the layout
//   - error: error if creation fails
func NewLayout(backend gpu.Backend) (*wgpu.BindGroupLayout, error) {
	layout, err := backend.CreateBindGroupLayout(LayoutDescriptor())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", LayoutLabel, err)
	}
	return layout, nil
}

func (m *material) Name() string {
	return m.name
}

func (m *material) DiffuseColor() [3]float32 {
	return m.diffuseColor
}

func (m *material) Diffuse() *texture.Texture {
	return m.diffuse
}

func (m *material) BindGroup() *wgpu.BindGroup {
	return m.bindGroup
}

func (m *material) Release() {
	if m.bindGroup != nil {
		m.backend.Release(m.bindGroup)
		m.bindGroup = nil
	}
	if m.diffuse != nil {
		m.diffuse.Release()
		m.diffuse = nil
	}
}
