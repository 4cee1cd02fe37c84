// Package model turns parsed mesh assets into GPU-resident geometry and materials, and defines
// the vertex and instance records the model pipelines consume.
package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrLoad is the single error every failed Load unwraps to.
	ErrLoad = errors.New("model load failed")

	// ErrVertexArrays is returned when position, texcoord and normal arrays disagree on the vertex count.
	ErrVertexArrays = errors.New("mismatched vertex attribute arrays")

	// ErrMaterialIndex is returned when a mesh references a material that does not exist.
	ErrMaterialIndex = errors.New("material index out of range")

	// ErrNoMaterials is returned when an asset has meshes but no materials.
	ErrNoMaterials = errors.New("model has meshes but no materials")

	// ErrIndexRange is returned when an index addresses a vertex past the end of the vertex array.
	ErrIndexRange = errors.New("index out of range")

	// ErrMissingMaterial is returned under MissingMaterialFail for a mesh without a material id.
	ErrMissingMaterial = errors.New("mesh has no material")
)

// LoadError reports a failed Load. It unwraps to both ErrLoad and the underlying cause.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoad, e.Err}
}

// Geometry is an immutable vertex and index buffer pair. Indices are always uint32.
type Geometry struct {
	Name         string
	VertexBuffer *wgpu.Buffer
	IndexBuffer  *wgpu.Buffer

	// NumElements is the number of indices drawn.
	NumElements uint32

	// VertexCount is the number of ModelVertex records in VertexBuffer.
	VertexCount uint32

	backend gpu.Backend
}

var _ gpu.Releasable = &Geometry{}

// Mesh is one Geometry and the index of its material in the owning Model.
type Mesh struct {
	Name     string
	Geometry *Geometry
	Material int
}

// Model is the result of Load: meshes and materials in source order plus the shared material
// layout. A Model is immutable and owns every GPU object it references.
type Model struct {
	Name      string
	Meshes    []Mesh
	Materials []material.Material
	Layout    *wgpu.BindGroupLayout

	backend gpu.Backend
}

var _ gpu.Releasable = &Model{}

// NewGeometry uploads vertices and indices as immutable vertex and index buffers.
// Every index must address one of the given vertices.
//
// Parameters:
//   - backend: the backend to create buffers on
//   - name: the geometry name, e.g. the mesh partition name
//   - label: the buffer label prefix, e.g. the asset path
//   - vertices: the interleaved vertices
//   - indices: the triangle list indices
//
// Returns:
//   - *Geometry: the uploaded geometry
//   - error: ErrIndexRange, or an error if a buffer cannot be created
func NewGeometry(backend gpu.Backend, name, label string, vertices []ModelVertex, indices []uint32) (*Geometry, error) {
	if err := checkIndices(indices, len(vertices)); err != nil {
		return nil, fmt.Errorf("geometry %q: %w", name, err)
	}

	rel := gpu.NewReleaser(backend)
	defer rel.Release()

	vb, err := backend.CreateBuffer(label+" Vertex Buffer", MarshalVertices(vertices), wgpu.BufferUsageVertex)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex buffer for %q: %w", label, err)
	}
	rel.Track(vb)

	ib, err := backend.CreateBuffer(label+" Index Buffer", MarshalIndices(indices), wgpu.BufferUsageIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to create index buffer for %q: %w", label, err)
	}

	rel.Disarm()
	return &Geometry{
		Name:         name,
		VertexBuffer: vb,
		IndexBuffer:  ib,
		NumElements:  uint32(len(indices)),
		VertexCount:  uint32(len(vertices)),
		backend:      backend,
	}, nil
}

// Release frees the index and vertex buffers. Safe to call more than once.
func (g *Geometry) Release() {
	if g == nil || g.backend == nil {
		return
	}
	if g.IndexBuffer != nil {
		g.backend.Release(g.IndexBuffer)
		g.IndexBuffer = nil
	}
	if g.VertexBuffer != nil {
		g.backend.Release(g.VertexBuffer)
		g.VertexBuffer = nil
	}
}

// Release frees every mesh, then every material, then the material layout.
func (m *Model) Release() {
	if m == nil {
		return
	}
	for i := len(m.Meshes) - 1; i >= 0; i-- {
		m.Meshes[i].Geometry.Release()
	}
	for i := len(m.Materials) - 1; i >= 0; i-- {
		m.Materials[i].Release()
	}
	if m.Layout != nil && m.backend != nil {
		m.backend.Release(m.Layout)
		m.Layout = nil
	}
	common.Logger().Debug("model released", "name", m.Name)
}

func checkIndices(indices []uint32, vertexCount int) error {
	for i, idx := range indices {
		if int64(idx) >= int64(vertexCount) {
			return fmt.Errorf("%w: index %d at position %d, vertex count %d", ErrIndexRange, idx, i, vertexCount)
		}
	}
	return nil
}
