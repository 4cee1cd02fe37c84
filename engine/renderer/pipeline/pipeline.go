// Package pipeline builds the render pipeline shared by every renderer variant. The primitive,
// blend, multisample and depth settings are fixed; only the formats, vertex layouts and labels
// are configurable.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// DefaultLabel is the render pipeline label used unless WithLabel overrides it.
	DefaultLabel = "Render Pipeline"

	// ShaderModuleLabel is the label of the shader module Build creates.
	ShaderModuleLabel = "Normal Shader"
)

// ErrColorFormat is returned when no color target format is configured.
var ErrColorFormat = errors.New("pipeline color format undefined")

// Config holds everything BuildDescriptor needs. Layout and Module are filled in by Build;
// the remaining fields come from PipelineBuilderOption functions.
type Config struct {
	Label  string
	Layout *wgpu.PipelineLayout
	Module *wgpu.ShaderModule

	// ColorFormat is the format of the single color target.
	ColorFormat wgpu.TextureFormat

	// DepthFormat enables the depth-stencil state when non-nil.
	DepthFormat *wgpu.TextureFormat

	// VertexLayouts are bound to vertex buffer slots in order.
	VertexLayouts []wgpu.VertexBufferLayout
}

// NewConfig applies opts over the default configuration.
//
// Parameters:
//   - opts: a variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Config: the resulting configuration
func NewConfig(opts ...PipelineBuilderOption) Config {
	cfg := Config{Label: DefaultLabel}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// BuildDescriptor produces the render pipeline descriptor for cfg. It performs no GPU work.
//
// The descriptor always uses a triangle list with counter-clockwise front faces and back-face
// culling, a single sample, and one color target that replaces the destination color and alpha.
// Depth testing (write enabled, compare Less) is present only when cfg.DepthFormat is set.
//
// Parameters:
//   - cfg: the pipeline configuration
//
// Returns:
//   - *wgpu.RenderPipelineDescriptor: the descriptor
func BuildDescriptor(cfg Config) *wgpu.RenderPipelineDescriptor {
	replace := wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorZero,
		Operation: wgpu.BlendOperationAdd,
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  cfg.Label,
		Layout: cfg.Layout,
		Vertex: wgpu.VertexState{
			Module:     cfg.Module,
			EntryPoint: shader.VertexEntryPoint,
			Buffers:    cfg.VertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     cfg.Module,
			EntryPoint: shader.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    cfg.ColorFormat,
					Blend:     &wgpu.BlendState{Color: replace, Alpha: replace},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	}

	if cfg.DepthFormat != nil {
		stencil := wgpu.StencilFaceState{
			Compare:     wgpu.CompareFunctionAlways,
			FailOp:      wgpu.StencilOperationKeep,
			DepthFailOp: wgpu.StencilOperationKeep,
			PassOp:      wgpu.StencilOperationKeep,
		}
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:              *cfg.DepthFormat,
			DepthWriteEnabled:   true,
			DepthCompare:        wgpu.CompareFunctionLess,
			StencilFront:        stencil,
			StencilBack:         stencil,
			StencilReadMask:     0,
			StencilWriteMask:    0,
			DepthBias:           0,
			DepthBiasSlopeScale: 0,
			DepthBiasClamp:      0,
		}
	}
	return desc
}

// Build creates a shader module from s and the render pipeline described by layout and opts.
// The shader module is released once the pipeline exists.
//
// Parameters:
//   - backend: the backend to create GPU objects on
//   - layout: the pipeline layout the shader's groups are bound through
//   - s: the compiled shader, which must define vs_main and fs_main
//   - opts: a variadic list of PipelineBuilderOption functions
//
// Returns:
//   - *wgpu.RenderPipeline: the pipeline
//   - error: ErrColorFormat, shader.ErrEntryPoint, or an error if a GPU object cannot be created
func Build(backend gpu.Backend, layout *wgpu.PipelineLayout, s shader.Shader, opts ...PipelineBuilderOption) (*wgpu.RenderPipeline, error) {
	cfg := NewConfig(opts...)
	if cfg.ColorFormat == wgpu.TextureFormatUndefined {
		return nil, fmt.Errorf("%q: %w", cfg.Label, ErrColorFormat)
	}
	if !s.HasEntryPoint(shader.VertexEntryPoint, shader.ShaderTypeVertex) ||
		!s.HasEntryPoint(shader.FragmentEntryPoint, shader.ShaderTypeFragment) {
		return nil, fmt.Errorf("%q: shader %q: %w", cfg.Label, s.Key(), shader.ErrEntryPoint)
	}

	moduleDesc := *s.Module()
	moduleDesc.Label = ShaderModuleLabel
	module, err := backend.CreateShaderModule(&moduleDesc)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module for %q: %w", cfg.Label, err)
	}
	defer backend.Release(module)

	cfg.Layout = layout
	cfg.Module = module
	p, err := backend.CreateRenderPipeline(BuildDescriptor(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", cfg.Label, err)
	}
	common.Logger().Debug("render pipeline created", "label", cfg.Label, "shader", s.Key(),
		"vertex_layouts", len(cfg.VertexLayouts), "depth", cfg.DepthFormat != nil)
	return p, nil
}
