package renderer

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-draw/engine/model"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-draw/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// call is one recorded RenderPass method call.
type call struct {
	Op        string
	Slot      uint32
	Pipeline  *wgpu.RenderPipeline
	Buffer    *wgpu.Buffer
	BindGroup *wgpu.BindGroup
	Draw      [5]int64
}

type recordingPass struct {
	calls []call
}

func (p *recordingPass) SetPipeline(pipeline *wgpu.RenderPipeline) {
	p.calls = append(p.calls, call{Op: "SetPipeline", Pipeline: pipeline})
}

func (p *recordingPass) SetVertexBuffer(slot uint32, buf *wgpu.Buffer, offset, size uint64) {
	p.calls = append(p.calls, call{Op: "SetVertexBuffer", Slot: slot, Buffer: buf})
}

func (p *recordingPass) SetIndexBuffer(buf *wgpu.Buffer, format wgpu.IndexFormat, offset, size uint64) {
	p.calls = append(p.calls, call{Op: "SetIndexBuffer", Buffer: buf})
}

func (p *recordingPass) SetBindGroup(group uint32, bg *wgpu.BindGroup, dynamicOffsets []uint32) {
	p.calls = append(p.calls, call{Op: "SetBindGroup", Slot: group, BindGroup: bg})
}

func (p *recordingPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.calls = append(p.calls, call{Op: "DrawIndexed", Draw: [5]int64{
		int64(indexCount), int64(instanceCount), int64(firstIndex), int64(baseVertex), int64(firstInstance),
	}})
}

func (p *recordingPass) ops() []string {
	ops := make([]string, len(p.calls))
	for i, c := range p.calls {
		ops[i] = c.Op
	}
	return ops
}

// bindGroupsAt returns the bind group set at each slot, in call order.
func (p *recordingPass) bindGroupsAt() map[uint32][]*wgpu.BindGroup {
	out := make(map[uint32][]*wgpu.BindGroup)
	for _, c := range p.calls {
		if c.Op == "SetBindGroup" {
			out[c.Slot] = append(out[c.Slot], c.BindGroup)
		}
	}
	return out
}

type stubMaterial struct {
	name      string
	bindGroup *wgpu.BindGroup
	released  bool
}

var _ material.Material = &stubMaterial{}

func (m *stubMaterial) Name() string { return m.name }
func (m *stubMaterial) DiffuseColor() [3]float32 { return [3]float32{1, 1, 1} }
func (m *stubMaterial) Diffuse() *texture.Texture { return nil }
func (m *stubMaterial) BindGroup() *wgpu.BindGroup { return m.bindGroup }
func (m *stubMaterial) Release() { m.released = true }

type stubSource struct {
	layout    *wgpu.BindGroupLayout
	bindGroup *wgpu.BindGroup
}

func (s *stubSource) BindGroupLayout() *wgpu.BindGroupLayout { return s.layout }
func (s *stubSource) BindGroup() *wgpu.BindGroup { return s.bindGroup }

func newGeometry(numElements uint32) *model.Geometry {
	return &model.Geometry{
		VertexBuffer: &wgpu.Buffer{},
		IndexBuffer:  &wgpu.Buffer{},
		NumElements:  numElements,
	}
}

func newTestModel() *model.Model {
	return &model.Model{
		Name: "cube",
		Meshes: []model.Mesh{
			{Name: "top", Geometry: newGeometry(6), Material: 1},
			{Name: "body", Geometry: newGeometry(30), Material: 0},
		},
		Materials: []material.Material{
			&stubMaterial{name: "stone", bindGroup: &wgpu.BindGroup{}},
			&stubMaterial{name: "grass", bindGroup: &wgpu.BindGroup{}},
		},
		Layout: &wgpu.BindGroupLayout{},
	}
}

func newSource() *stubSource {
	return &stubSource{layout: &wgpu.BindGroupLayout{}, bindGroup: &wgpu.BindGroup{}}
}

func TestBindingPlanSlots(t *testing.T) {
	withMaterial := BindingPlan{Material: true, Auxiliary: 2}
	assert.Equal(t, uint32(0), withMaterial.MaterialSlot())
	assert.Equal(t, uint32(1), withMaterial.AuxiliarySlot(0))
	assert.Equal(t, uint32(2), withMaterial.AuxiliarySlot(1))
	assert.Equal(t, 3, withMaterial.Groups())

	bare := BindingPlan{Material: false, Auxiliary: 2}
	assert.Equal(t, uint32(0), bare.AuxiliarySlot(0))
	assert.Equal(t, uint32(1), bare.AuxiliarySlot(1))
	assert.Equal(t, 2, bare.Groups())
}

func TestBindingPlanCheck(t *testing.T) {
	bg := &wgpu.BindGroup{}
	plan := BindingPlan{Material: true, Auxiliary: 1}

	assert.NoError(t, plan.Check(bg, []*wgpu.BindGroup{bg}))
	assert.ErrorIs(t, plan.Check(nil, []*wgpu.BindGroup{bg}), ErrBindingPlan)
	assert.ErrorIs(t, plan.Check(bg, nil), ErrBindingPlan)
	assert.ErrorIs(t, plan.Check(bg, []*wgpu.BindGroup{nil}), ErrBindingPlan)
	assert.ErrorIs(t, BindingPlan{Auxiliary: 1}.Check(bg, []*wgpu.BindGroup{bg}), ErrBindingPlan)
}

func TestBindingPlanLayouts(t *testing.T) {
	mat, cam, light := &wgpu.BindGroupLayout{}, &wgpu.BindGroupLayout{}, &wgpu.BindGroupLayout{}

	layouts, err := BindingPlan{Material: true, Auxiliary: 2}.Layouts(mat, cam, light)
	require.NoError(t, err)
	require.Len(t, layouts, 3)
	assert.Same(t, mat, layouts[0])
	assert.Same(t, cam, layouts[1])
	assert.Same(t, light, layouts[2])

	layouts, err = BindingPlan{Auxiliary: 2}.Layouts(mat, cam, light)
	require.NoError(t, err)
	require.Len(t, layouts, 2)
	assert.Same(t, cam, layouts[0])

	_, err = BindingPlan{Material: true, Auxiliary: 2}.Layouts(nil, cam, light)
	assert.ErrorIs(t, err, ErrBindingPlan)
	_, err = BindingPlan{Auxiliary: 2}.Layouts(nil, cam)
	assert.ErrorIs(t, err, ErrBindingPlan)
}

func TestDrawMeshInstancedWithMaterial(t *testing.T) {
	pass := &recordingPass{}
	ctx := NewDrawContext(pass)
	mesh := newGeometry(36)
	mat, cam, light := &wgpu.BindGroup{}, &wgpu.BindGroup{}, &wgpu.BindGroup{}

	require.NoError(t, ctx.DrawMeshInstanced(mesh, mat, Range{Start: 2, End: 5}, cam, light))

	require.Equal(t, []string{"SetVertexBuffer", "SetIndexBuffer", "SetBindGroup", "SetBindGroup", "SetBindGroup", "DrawIndexed"}, pass.ops())
	assert.Equal(t, uint32(0), pass.calls[0].Slot)
	assert.Same(t, mesh.VertexBuffer, pass.calls[0].Buffer)
	assert.Same(t, mesh.IndexBuffer, pass.calls[1].Buffer)
	assert.Equal(t, call{Op: "SetBindGroup", Slot: 0, BindGroup: mat}, pass.calls[2])
	assert.Equal(t, call{Op: "SetBindGroup", Slot: 1, BindGroup: cam}, pass.calls[3])
	assert.Equal(t, call{Op: "SetBindGroup", Slot: 2, BindGroup: light}, pass.calls[4])
	assert.Equal(t, [5]int64{36, 3, 0, 0, 2}, pass.calls[5].Draw)
}

func TestDrawMeshWithoutMaterial(t *testing.T) {
	pass := &recordingPass{}
	ctx := NewDrawContext(pass)
	cam, light := &wgpu.BindGroup{}, &wgpu.BindGroup{}

	require.NoError(t, ctx.DrawMesh(newGeometry(3), nil, cam, light))

	groups := pass.bindGroupsAt()
	assert.Equal(t, []*wgpu.BindGroup{cam}, groups[0])
	assert.Equal(t, []*wgpu.BindGroup{light}, groups[1])
	assert.NotContains(t, groups, uint32(2))
	assert.Equal(t, [5]int64{3, 1, 0, 0, 0}, pass.calls[len(pass.calls)-1].Draw)
}

func TestDrawRejectsBadArguments(t *testing.T) {
	bg := &wgpu.BindGroup{}
	tests := []struct {
		name      string
		mesh      *model.Geometry
		instances Range
		plan      *BindingPlan
		target    error
	}{
		{name: "empty range", mesh: newGeometry(3), instances: Range{Start: 3, End: 3}, target: ErrInstanceRange},
		{name: "inverted range", mesh: newGeometry(3), instances: Range{Start: 4, End: 2}, target: ErrInstanceRange},
		{name: "nil geometry", mesh: nil, instances: Single, target: ErrUnpopulated},
		{name: "no index buffer", mesh: &model.Geometry{VertexBuffer: &wgpu.Buffer{}}, instances: Single, target: ErrUnpopulated},
		{name: "plan mismatch", mesh: newGeometry(3), instances: Single, plan: &BindingPlan{Material: true, Auxiliary: 2}, target: ErrBindingPlan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass := &recordingPass{}
			ctx := NewDrawContext(pass)
			if tt.plan != nil {
				ctx.WithPlan(*tt.plan)
			}
			err := ctx.DrawMeshInstanced(tt.mesh, bg, tt.instances, bg)
			assert.ErrorIs(t, err, tt.target)
			assert.Empty(t, pass.calls)
		})
	}
}

func TestDrawModelUsesMeshMaterials(t *testing.T) {
	pass := &recordingPass{}
	ctx := NewDrawContext(pass).WithPlan(BindingPlan{Material: true, Auxiliary: 2})
	m := newTestModel()
	cam, light := &wgpu.BindGroup{}, &wgpu.BindGroup{}

	require.NoError(t, ctx.DrawModel(m, cam, light))

	groups := pass.bindGroupsAt()
	assert.Equal(t, []*wgpu.BindGroup{m.Materials[1].BindGroup(), m.Materials[0].BindGroup()}, groups[0])
	assert.Equal(t, []*wgpu.BindGroup{cam, cam}, groups[1])
	assert.Equal(t, []*wgpu.BindGroup{light, light}, groups[2])

	var draws [][5]int64
	for _, c := range pass.calls {
		if c.Op == "DrawIndexed" {
			draws = append(draws, c.Draw)
		}
	}
	assert.Equal(t, [][5]int64{{6, 1, 0, 0, 0}, {30, 1, 0, 0, 0}}, draws)
}

func TestDrawModelInstancedChecksEveryMeshFirst(t *testing.T) {
	pass := &recordingPass{}
	ctx := NewDrawContext(pass)
	m := newTestModel()
	m.Meshes[1].Material = 5

	err := ctx.DrawModelInstanced(m, Range{Start: 0, End: 4}, &wgpu.BindGroup{})
	assert.ErrorIs(t, err, model.ErrMaterialIndex)
	assert.Empty(t, pass.calls)

	m.Meshes[1].Material = 0
	m.Meshes[1].Geometry = nil
	assert.ErrorIs(t, ctx.DrawModelInstanced(m, Range{Start: 0, End: 4}), ErrUnpopulated)
	assert.Empty(t, pass.calls)

	assert.ErrorIs(t, ctx.DrawModelInstanced(nil, Single), ErrUnpopulated)
	assert.ErrorIs(t, ctx.DrawModel(nil), ErrUnpopulated)
	assert.Empty(t, pass.calls)
}

func TestDrawModelMatchesSingleInstanceRange(t *testing.T) {
	m := newTestModel()
	cam, light := &wgpu.BindGroup{}, &wgpu.BindGroup{}

	plain := &recordingPass{}
	require.NoError(t, NewDrawContext(plain).DrawModel(m, cam, light))
	instanced := &recordingPass{}
	require.NoError(t, NewDrawContext(instanced).DrawModelInstanced(m, Range{Start: 0, End: 1}, cam, light))

	require.NotEmpty(t, plain.calls)
	assert.Equal(t, instanced.calls, plain.calls)

	plain.calls, instanced.calls = nil, nil
	mesh := newGeometry(9)
	require.NoError(t, NewDrawContext(plain).DrawMesh(mesh, nil, cam))
	require.NoError(t, NewDrawContext(instanced).DrawMeshInstanced(mesh, nil, Range{Start: 0, End: 1}, cam))
	assert.Equal(t, instanced.calls, plain.calls)
}

const triangleOBJ = `mtllib tri.mtl
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
usemtl red
f 1/1/1 2/2/1 3/3/1
`

func TestLoadedTriangleDrawsOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.mtl"), []byte("newmtl red\nmap_Kd red.png\n"), 0o644))
	path := filepath.Join(dir, "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte(triangleOBJ), 0o644))

	fb := gputest.NewFakeBackend()
	m, err := model.Load(fb, path, model.WithTextureLoader(func(backend gpu.Backend, p string) (*texture.Texture, error) {
		return texture.FromImage(backend, filepath.Base(p), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	}))
	require.NoError(t, err)
	defer m.Release()

	require.Len(t, m.Meshes, 1)
	require.Len(t, m.Materials, 1)
	assert.Equal(t, uint32(3), m.Meshes[0].Geometry.NumElements)

	cam, light := &wgpu.BindGroup{}, &wgpu.BindGroup{}
	pass := &recordingPass{}
	ctx := NewDrawContext(pass).WithPlan(BindingPlan{Material: true, Auxiliary: 2})
	require.NoError(t, ctx.DrawModel(m, cam, light))

	assert.Equal(t, []string{"SetVertexBuffer", "SetIndexBuffer", "SetBindGroup", "SetBindGroup", "SetBindGroup", "DrawIndexed"}, pass.ops())
	assert.Equal(t, call{Op: "SetVertexBuffer", Slot: 0, Buffer: m.Meshes[0].Geometry.VertexBuffer}, pass.calls[0])
	assert.Equal(t, call{Op: "SetBindGroup", Slot: 0, BindGroup: m.Materials[0].BindGroup()}, pass.calls[2])
	assert.Equal(t, [5]int64{3, 1, 0, 0, 0}, pass.calls[5].Draw)
}

func TestSetInstanceBuffer(t *testing.T) {
	pass := &recordingPass{}
	buf := &wgpu.Buffer{}
	NewDrawContext(pass).SetInstanceBuffer(buf)
	assert.Equal(t, []call{{Op: "SetVertexBuffer", Slot: InstanceSlot, Buffer: buf}}, pass.calls)
}

func TestNewModelRenderer(t *testing.T) {
	fb := gputest.NewFakeBackend()
	m := newTestModel()
	cam, light := newSource(), newSource()

	r, err := NewModelRenderer(fb, wgpu.TextureFormatBGRA8UnormSrgb, cam, light, DefaultShaderSource, m)
	require.NoError(t, err)
	assert.Equal(t, BindingPlan{Material: true, Auxiliary: 2}, r.Plan())
	assert.Same(t, m, r.Model())

	require.Len(t, fb.PipelineLayouts, 1)
	for _, desc := range fb.PipelineLayouts {
		assert.Equal(t, PipelineLayoutLabel, desc.Label)
		assert.Equal(t, []*wgpu.BindGroupLayout{m.Layout, cam.layout, light.layout}, desc.BindGroupLayouts)
	}

	desc := fb.Pipelines[r.Pipeline()]
	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, texture.DepthFormat, desc.DepthStencil.Format)
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, desc.Fragment.Targets[0].Format)
	assert.Len(t, desc.Vertex.Buffers, 2)

	pass := &recordingPass{}
	ctx := NewDrawContext(pass)
	require.NoError(t, r.Draw(ctx, Range{Start: 0, End: 9}))
	assert.Equal(t, call{Op: "SetPipeline", Pipeline: r.Pipeline()}, pass.calls[0])
	groups := pass.bindGroupsAt()
	assert.Equal(t, []*wgpu.BindGroup{cam.bindGroup, cam.bindGroup}, groups[1])
	assert.Equal(t, []*wgpu.BindGroup{light.bindGroup, light.bindGroup}, groups[2])
	_, hasPlan := ctx.Plan()
	assert.False(t, hasPlan)

	// Explicit auxiliary groups replace the defaults and are checked against the plan.
	assert.ErrorIs(t, r.Draw(ctx, Single, &wgpu.BindGroup{}), ErrBindingPlan)

	pipeline := r.Pipeline()
	r.Release()
	assert.Zero(t, fb.Live())
	assert.True(t, fb.IsReleased(pipeline))
	assert.True(t, m.Materials[0].(*stubMaterial).released)
	assert.Nil(t, r.Pipeline())

	recorded := len(pass.calls)
	assert.ErrorIs(t, r.Draw(ctx, Single), ErrUnpopulated)
	assert.Len(t, pass.calls, recorded)
}

func TestNewModelRendererWithoutDepth(t *testing.T) {
	fb := gputest.NewFakeBackend()
	r, err := NewModelRenderer(fb, wgpu.TextureFormatBGRA8Unorm, newSource(), newSource(), DefaultShaderSource, newTestModel(),
		WithoutDepth(), WithLabel("Model Pipeline"))
	require.NoError(t, err)

	desc := fb.Pipelines[r.Pipeline()]
	assert.Nil(t, desc.DepthStencil)
	assert.Equal(t, "Model Pipeline", desc.Label)
}

func TestNewMeshRenderer(t *testing.T) {
	fb := gputest.NewFakeBackend()
	cam, light := newSource(), newSource()

	r, err := NewMeshRenderer(fb, wgpu.TextureFormatBGRA8Unorm, cam, light, MeshShaderSource)
	require.NoError(t, err)
	assert.Equal(t, BindingPlan{Auxiliary: 2}, r.Plan())
	assert.Equal(t, []uint32{0, 1}, r.Shader().Groups())

	for _, desc := range fb.PipelineLayouts {
		assert.Equal(t, []*wgpu.BindGroupLayout{cam.layout, light.layout}, desc.BindGroupLayouts)
	}

	pass := &recordingPass{}
	mesh := newGeometry(12)
	require.NoError(t, r.Draw(NewDrawContext(pass), mesh, Range{Start: 1, End: 3}))
	groups := pass.bindGroupsAt()
	assert.Equal(t, []*wgpu.BindGroup{cam.bindGroup}, groups[0])
	assert.Equal(t, []*wgpu.BindGroup{light.bindGroup}, groups[1])
	assert.Equal(t, [5]int64{12, 2, 0, 0, 1}, pass.calls[len(pass.calls)-1].Draw)

	r.Release()
	assert.Zero(t, fb.Live())

	recorded := len(pass.calls)
	assert.ErrorIs(t, r.Draw(NewDrawContext(pass), mesh, Single), ErrUnpopulated)
	assert.Len(t, pass.calls, recorded)
}

const tintedMeshShader = `
//@oxy:include tint

@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(tint(), 1.0);
}
`

func TestNewMeshRendererShaderOptions(t *testing.T) {
	fb := gputest.NewFakeBackend()
	r, err := NewMeshRenderer(fb, wgpu.TextureFormatBGRA8Unorm, newSource(), newSource(), tintedMeshShader,
		WithShaderKey("tinted"),
		WithShaderOptions(shader.WithInclude("tint", "fn tint() -> vec3<f32> { return vec3<f32>(1.0, 0.5, 0.0); }")),
	)
	require.NoError(t, err)

	assert.Equal(t, "tinted", r.Shader().Key())
	assert.Equal(t, []string{"tint"}, r.Shader().Included())
	assert.Equal(t, []uint32{0}, r.Shader().VertexLocations(shader.VertexEntryPoint))

	_, err = NewMeshRenderer(fb, wgpu.TextureFormatBGRA8Unorm, newSource(), newSource(), tintedMeshShader)
	assert.ErrorIs(t, err, shader.ErrInclude)
}

func TestRendererShaderContract(t *testing.T) {
	fb := gputest.NewFakeBackend()

	// The model shader reads @group(2), which a mesh renderer does not bind.
	_, err := NewMeshRenderer(fb, wgpu.TextureFormatBGRA8Unorm, newSource(), newSource(), DefaultShaderSource)
	assert.ErrorIs(t, err, ErrShaderContract)

	badLocation := `
@vertex
fn vs_main(@location(3) extra: vec4<f32>) -> @builtin(position) vec4<f32> {
    return extra;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`
	_, err = NewMeshRenderer(fb, wgpu.TextureFormatBGRA8Unorm, newSource(), newSource(), badLocation)
	assert.ErrorIs(t, err, ErrShaderContract)

	_, err = NewMeshRenderer(fb, wgpu.TextureFormatBGRA8Unorm, newSource(), newSource(), "fn broken(")
	assert.ErrorIs(t, err, shader.ErrCompile)

	_, err = NewMeshRenderer(fb, wgpu.TextureFormatBGRA8Unorm, nil, newSource(), MeshShaderSource)
	assert.ErrorIs(t, err, ErrBindingPlan)

	_, err = NewModelRenderer(fb, wgpu.TextureFormatBGRA8Unorm, newSource(), newSource(), DefaultShaderSource, nil)
	assert.ErrorIs(t, err, ErrUnpopulated)

	assert.Zero(t, fb.Live())
}

func TestNewRendererReleasesLayoutOnPipelineFailure(t *testing.T) {
	fb := gputest.NewFakeBackend().FailOn(gputest.OpCreateRenderPipeline, 1)
	_, err := NewModelRenderer(fb, wgpu.TextureFormatBGRA8Unorm, newSource(), newSource(), DefaultShaderSource, newTestModel())
	assert.ErrorIs(t, err, gputest.ErrInjected)
	assert.Zero(t, fb.Live())
	assert.Equal(t, 1, fb.Count(gputest.OpCreatePipelineLayout))
}
