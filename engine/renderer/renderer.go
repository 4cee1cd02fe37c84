// Package renderer builds the render pipelines that draw models and bare meshes, and records
// their draws into a render pass through a DrawContext.
package renderer

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/Carmen-Shannon/oxy-draw/engine/model"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineLayoutLabel is the debug label of every renderer pipeline layout.
const PipelineLayoutLabel = "Render Pipeline Layout"

// DefaultShaderSource is the textured, lit shader for a ModelRenderer.
// It binds the material at group 0, the camera at group 1 and the light at group 2.
//
//go:embed assets/shader.wgsl
var DefaultShaderSource string

// MeshShaderSource is the untextured, lit shader for a MeshRenderer.
// It binds the camera at group 0 and the light at group 1.
//
//go:embed assets/mesh_shader.wgsl
var MeshShaderSource string

// ErrShaderContract is returned when a shader reads a bind group or vertex location the
// renderer does not provide.
var ErrShaderContract = errors.New("shader does not match renderer bindings")

// BindingSource is anything that owns a ready-made bind group and its layout, such as the
// camera and the light.
type BindingSource interface {
	BindGroupLayout() *wgpu.BindGroupLayout
	BindGroup() *wgpu.BindGroup
}

// renderer holds what both renderer variants share: the pipeline, its layout and the slot plan.
type renderer struct {
	backend  gpu.Backend
	shader   shader.Shader
	plan     BindingPlan
	layout   *wgpu.PipelineLayout
	pipeline *wgpu.RenderPipeline

	// sources are bound as the auxiliary groups when a draw supplies none.
	sources []BindingSource
}

// ModelRenderer draws one Model with its materials bound at group 0 and the camera and light
// as auxiliary groups 1 and 2.
type ModelRenderer struct {
	renderer
	model *model.Model
}

// MeshRenderer draws bare geometry with the camera and light bound at groups 0 and 1.
type MeshRenderer struct {
	renderer
}

// NewModelRenderer compiles shaderSource and builds a pipeline whose layout is
// {m.Layout, camera, light}. The renderer takes ownership of m.
//
// Parameters:
//   - backend: the backend to create GPU objects on
//   - surfaceFormat: the color target format
//   - camera: the camera bind group source
//   - light: the light bind group source
//   - shaderSource: WGSL source defining vs_main and fs_main, e.g. DefaultShaderSource
//   - m: the model to draw
//   - opts: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - *ModelRenderer: the renderer
//   - error: shader.ErrCompile, ErrShaderContract, ErrBindingPlan, or a GPU creation error
func NewModelRenderer(backend gpu.Backend, surfaceFormat wgpu.TextureFormat, camera, light BindingSource, shaderSource string, m *model.Model, opts ...RendererBuilderOption) (*ModelRenderer, error) {
	if m == nil {
		return nil, fmt.Errorf("model renderer: %w", ErrUnpopulated)
	}
	r, err := newRenderer(backend, surfaceFormat, BindingPlan{Material: true, Auxiliary: 2}, m.Layout, []BindingSource{camera, light}, shaderSource, opts...)
	if err != nil {
		return nil, fmt.Errorf("model renderer %q: %w", m.Name, err)
	}
	return &ModelRenderer{renderer: *r, model: m}, nil
}

// NewMeshRenderer compiles shaderSource and builds a pipeline whose layout is {camera, light}.
//
// Parameters:
//   - backend: the backend to create GPU objects on
//   - surfaceFormat: the color target format
//   - camera: the camera bind group source
//   - light: the light bind group source
//   - shaderSource: WGSL source defining vs_main and fs_main, e.g. MeshShaderSource
//   - opts: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - *MeshRenderer: the renderer
//   - error: shader.ErrCompile, ErrShaderContract, ErrBindingPlan, or a GPU creation error
func NewMeshRenderer(backend gpu.Backend, surfaceFormat wgpu.TextureFormat, camera, light BindingSource, shaderSource string, opts ...RendererBuilderOption) (*MeshRenderer, error) {
	r, err := newRenderer(backend, surfaceFormat, BindingPlan{Material: false, Auxiliary: 2}, nil, []BindingSource{camera, light}, shaderSource, opts...)
	if err != nil {
		return nil, fmt.Errorf("mesh renderer: %w", err)
	}
	return &MeshRenderer{renderer: *r}, nil
}

func newRenderer(backend gpu.Backend, surfaceFormat wgpu.TextureFormat, plan BindingPlan, materialLayout *wgpu.BindGroupLayout, sources []BindingSource, shaderSource string, opts ...RendererBuilderOption) (*renderer, error) {
	cfg := newRendererConfig(opts...)

	auxLayouts := make([]*wgpu.BindGroupLayout, len(sources))
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("%w: auxiliary source %d is nil", ErrBindingPlan, i)
		}
		auxLayouts[i] = src.BindGroupLayout()
	}
	layouts, err := plan.Layouts(materialLayout, auxLayouts...)
	if err != nil {
		return nil, err
	}

	s, err := shader.Compile(cfg.shaderKey, shaderSource, cfg.shaderOptions...)
	if err != nil {
		return nil, err
	}
	if err := checkShaderContract(s, plan, cfg.vertexLayouts); err != nil {
		return nil, err
	}

	rel := gpu.NewReleaser(backend)
	defer rel.Release()

	layout, err := backend.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            PipelineLayoutLabel,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout: %w", err)
	}
	rel.Track(layout)

	pipelineOpts := []pipeline.PipelineBuilderOption{
		pipeline.WithLabel(cfg.label),
		pipeline.WithColorFormat(surfaceFormat),
		pipeline.WithVertexLayouts(cfg.vertexLayouts...),
	}
	if cfg.depthFormat != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithDepthFormat(*cfg.depthFormat))
	}
	p, err := pipeline.Build(backend, layout, s, pipelineOpts...)
	if err != nil {
		return nil, err
	}

	rel.Disarm()
	common.Logger().Debug("renderer created", "label", cfg.label, "groups", plan.Groups(), "material", plan.Material)
	return &renderer{
		backend:  backend,
		shader:   s,
		plan:     plan,
		layout:   layout,
		pipeline: p,
		sources:  sources,
	}, nil
}

// checkShaderContract rejects a shader that reads a group outside the plan or a vertex
// location none of the vertex layouts provides.
func checkShaderContract(s shader.Shader, plan BindingPlan, layouts []wgpu.VertexBufferLayout) error {
	for _, g := range s.Groups() {
		if int(g) >= plan.Groups() {
			return fmt.Errorf("%w: shader %q declares @group(%d), renderer binds %d groups", ErrShaderContract, s.Key(), g, plan.Groups())
		}
	}

	var provided []uint32
	for _, l := range layouts {
		for _, a := range l.Attributes {
			provided = append(provided, a.ShaderLocation)
		}
	}
	for _, loc := range s.VertexLocations(shader.VertexEntryPoint) {
		if !slices.Contains(provided, loc) {
			return fmt.Errorf("%w: shader %q reads @location(%d), which no vertex layout provides", ErrShaderContract, s.Key(), loc)
		}
	}
	return nil
}

// Pipeline returns the render pipeline.
//
// Returns:
//   - *wgpu.RenderPipeline: the pipeline, or nil after Release
func (r *renderer) Pipeline() *wgpu.RenderPipeline {
	return r.pipeline
}

// Plan returns the slot plan draws are recorded with.
//
// Returns:
//   - BindingPlan: the plan
func (r *renderer) Plan() BindingPlan {
	return r.plan
}

// Shader returns the compiled shader the pipeline was built from.
//
// Returns:
//   - shader.Shader: the shader
func (r *renderer) Shader() shader.Shader {
	return r.shader
}

// auxiliary returns aux, or the bind groups of the renderer's sources when aux is empty.
func (r *renderer) auxiliary(aux []*wgpu.BindGroup) []*wgpu.BindGroup {
	if len(aux) > 0 {
		return aux
	}
	groups := make([]*wgpu.BindGroup, len(r.sources))
	for i, src := range r.sources {
		groups[i] = src.BindGroup()
	}
	return groups
}

// begin binds the pipeline and switches ctx to the renderer's plan. The returned func restores ctx.
func (r *renderer) begin(ctx *DrawContext) func() {
	prev := ctx.plan
	ctx.WithPlan(r.plan)
	ctx.SetPipeline(r.pipeline)
	return func() { ctx.plan = prev }
}

func (r *renderer) release() {
	if r.pipeline != nil {
		r.backend.Release(r.pipeline)
		r.pipeline = nil
	}
	if r.layout != nil {
		r.backend.Release(r.layout)
		r.layout = nil
	}
}

// Model returns the model this renderer draws.
//
// Returns:
//   - *model.Model: the model
func (r *ModelRenderer) Model() *model.Model {
	return r.model
}

// Draw binds the pipeline and draws the model over instances. Without aux, the camera and
// light bind groups the renderer was built with are used.
//
// Parameters:
//   - ctx: the draw context
//   - instances: the instance range
//   - aux: optional auxiliary bind groups replacing the camera and light groups
//
// Returns:
//   - error: ErrUnpopulated after Release, or any DrawContext.DrawModelInstanced error
func (r *ModelRenderer) Draw(ctx *DrawContext, instances Range, aux ...*wgpu.BindGroup) error {
	if r.model == nil || r.pipeline == nil {
		return fmt.Errorf("%w: model renderer is released", ErrUnpopulated)
	}
	defer r.begin(ctx)()
	return ctx.DrawModelInstanced(r.model, instances, r.auxiliary(aux)...)
}

// Release frees the pipeline, its layout and the model.
func (r *ModelRenderer) Release() {
	r.release()
	if r.model != nil {
		r.model.Release()
		r.model = nil
	}
}

// Draw binds the pipeline and draws mesh over instances. Without aux, the camera and light
// bind groups the renderer was built with are used.
//
// Parameters:
//   - ctx: the draw context
//   - mesh: the geometry to draw
//   - instances: the instance range
//   - aux: optional auxiliary bind groups replacing the camera and light groups
//
// Returns:
//   - error: ErrUnpopulated after Release, or any DrawContext.DrawMeshInstanced error
func (r *MeshRenderer) Draw(ctx *DrawContext, mesh *model.Geometry, instances Range, aux ...*wgpu.BindGroup) error {
	if r.pipeline == nil {
		return fmt.Errorf("%w: mesh renderer is released", ErrUnpopulated)
	}
	defer r.begin(ctx)()
	return ctx.DrawMeshInstanced(mesh, nil, instances, r.auxiliary(aux)...)
}

// Release frees the pipeline and its layout.
func (r *MeshRenderer) Release() {
	r.release()
}
