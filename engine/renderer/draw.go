package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrInstanceRange is returned for an empty or inverted instance Range.
	ErrInstanceRange = errors.New("invalid instance range")

	// ErrUnpopulated is returned when a draw references geometry without buffers.
	ErrUnpopulated = errors.New("geometry has no GPU buffers")
)

// InstanceSlot is the vertex buffer slot the per-instance buffer is bound to.
const InstanceSlot = 1

// Range is a half-open range [Start, End) of instance indices.
type Range struct {
	Start, End uint32
}

// Single is the instance range of a non-instanced draw.
var Single = Range{Start: 0, End: 1}

// Count returns the number of instances in r.
//
// Returns:
//   - uint32: End - Start, or 0 for an inverted range
func (r Range) Count() uint32 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// DrawContext records draws into a RenderPass. It borrows the pass for each call and holds
// no GPU objects of its own.
type DrawContext struct {
	pass RenderPass
	plan *BindingPlan
}

// NewDrawContext wraps pass.
//
// Parameters:
//   - pass: the pass to record into, usually from WrapRenderPass
//
// Returns:
//   - *DrawContext: the draw context
func NewDrawContext(pass RenderPass) *DrawContext {
	return &DrawContext{pass: pass}
}

// WithPlan makes every following draw check its bind groups against plan before recording.
//
// Parameters:
//   - plan: the plan draws must match
//
// Returns:
//   - *DrawContext: the context, for chaining
func (c *DrawContext) WithPlan(plan BindingPlan) *DrawContext {
	c.plan = &plan
	return c
}

// Plan returns the plan draws are checked against, if any.
//
// Returns:
//   - BindingPlan: the plan
//   - bool: false when draws follow the raw slot rule
func (c *DrawContext) Plan() (BindingPlan, bool) {
	if c.plan == nil {
		return BindingPlan{}, false
	}
	return *c.plan, true
}

// SetPipeline binds the render pipeline for the following draws.
//
// Parameters:
//   - p: the render pipeline
func (c *DrawContext) SetPipeline(p *wgpu.RenderPipeline) {
	c.pass.SetPipeline(p)
}

// SetInstanceBuffer binds the per-instance buffer at InstanceSlot.
//
// Parameters:
//   - buf: a buffer of packed model.InstanceRaw records
func (c *DrawContext) SetInstanceBuffer(buf *wgpu.Buffer) {
	c.pass.SetVertexBuffer(InstanceSlot, buf, 0, wgpu.WholeSize)
}

// DrawMeshInstanced records one indexed draw of mesh over instances.
//
// The vertex buffer is bound at slot 0 and the index buffer as uint32. A non-nil material is
// bound at group 0 and shifts the auxiliary groups up by one; aux[i] is bound at group
// offset+i. Nothing is recorded when an argument is rejected.
//
// Parameters:
//   - mesh: the geometry to draw
//   - material: the material bind group, or nil
//   - instances: the instance range
//   - aux: the auxiliary bind groups in slot order
//
// Returns:
//   - error: ErrUnpopulated, ErrInstanceRange or ErrBindingPlan
func (c *DrawContext) DrawMeshInstanced(mesh *model.Geometry, material *wgpu.BindGroup, instances Range, aux ...*wgpu.BindGroup) error {
	if err := c.check(mesh, material, instances, aux); err != nil {
		return err
	}
	c.record(mesh, material, instances, aux)
	return nil
}

// DrawMesh is DrawMeshInstanced over the single instance range [0, 1).
//
// Parameters:
//   - mesh: the geometry to draw
//   - material: the material bind group, or nil
//   - aux: the auxiliary bind groups in slot order
//
// Returns:
//   - error: see DrawMeshInstanced
func (c *DrawContext) DrawMesh(mesh *model.Geometry, material *wgpu.BindGroup, aux ...*wgpu.BindGroup) error {
	return c.DrawMeshInstanced(mesh, material, Single, aux...)
}

// DrawModelInstanced draws every mesh of m in order, each with the bind group of its material.
// Every mesh is checked before the first one is recorded.
//
// Parameters:
//   - m: the model to draw
//   - instances: the instance range
//   - aux: the auxiliary bind groups in slot order
//
// Returns:
//   - error: ErrUnpopulated for a nil model, model.ErrMaterialIndex, or any DrawMeshInstanced error
func (c *DrawContext) DrawModelInstanced(m *model.Model, instances Range, aux ...*wgpu.BindGroup) error {
	if m == nil {
		return fmt.Errorf("%w: nil model", ErrUnpopulated)
	}
	materials := make([]*wgpu.BindGroup, len(m.Meshes))
	for i, mesh := range m.Meshes {
		if mesh.Material < 0 || mesh.Material >= len(m.Materials) {
			return fmt.Errorf("mesh %d %q: %w: %d of %d", i, mesh.Name, model.ErrMaterialIndex, mesh.Material, len(m.Materials))
		}
		materials[i] = m.Materials[mesh.Material].BindGroup()
		if err := c.check(mesh.Geometry, materials[i], instances, aux); err != nil {
			return fmt.Errorf("mesh %d %q: %w", i, mesh.Name, err)
		}
	}
	for i, mesh := range m.Meshes {
		c.record(mesh.Geometry, materials[i], instances, aux)
	}
	return nil
}

// DrawModel is DrawModelInstanced over the single instance range [0, 1).
//
// Parameters:
//   - m: the model to draw
//   - aux: the auxiliary bind groups in slot order
//
// Returns:
//   - error: see DrawModelInstanced
func (c *DrawContext) DrawModel(m *model.Model, aux ...*wgpu.BindGroup) error {
	return c.DrawModelInstanced(m, Single, aux...)
}

func (c *DrawContext) check(mesh *model.Geometry, material *wgpu.BindGroup, instances Range, aux []*wgpu.BindGroup) error {
	if mesh == nil || mesh.VertexBuffer == nil || mesh.IndexBuffer == nil {
		return ErrUnpopulated
	}
	if instances.Count() == 0 {
		return fmt.Errorf("%w: [%d, %d)", ErrInstanceRange, instances.Start, instances.End)
	}
	if c.plan != nil {
		return c.plan.Check(material, aux)
	}
	return nil
}

func (c *DrawContext) record(mesh *model.Geometry, material *wgpu.BindGroup, instances Range, aux []*wgpu.BindGroup) {
	c.pass.SetVertexBuffer(0, mesh.VertexBuffer, 0, wgpu.WholeSize)
	c.pass.SetIndexBuffer(mesh.IndexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)

	plan := BindingPlan{Material: material != nil, Auxiliary: len(aux)}
	if material != nil {
		c.pass.SetBindGroup(plan.MaterialSlot(), material, nil)
	}
	for i, bg := range aux {
		c.pass.SetBindGroup(plan.AuxiliarySlot(i), bg, nil)
	}
	c.pass.DrawIndexed(mesh.NumElements, instances.Count(), 0, 0, instances.Start)
}
