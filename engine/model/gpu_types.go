package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// ModelVertexSource is the canonical WGSL definition of the VertexInput struct consumed by
// model pipelines. Matches ModelVertex layout exactly (32 bytes, tightly packed).
//
//go:embed assets/model_vertex.wgsl
var ModelVertexSource string

// InstanceSource is the canonical WGSL definition of the InstanceInput struct consumed by
// model pipelines. Matches InstanceRaw layout exactly (100 bytes, tightly packed).
//
//go:embed assets/instance.wgsl
var InstanceSource string

// ModelVertexSize is the byte stride of one ModelVertex.
const ModelVertexSize = 32

// InstanceRawSize is the byte stride of one InstanceRaw.
const InstanceRawSize = 100

// FirstInstanceLocation is the first shader location used by InstanceRaw. Locations 3 and 4
// stay free for future per-vertex attributes.
const FirstInstanceLocation = 5

// ModelVertex is the GPU representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly (see ModelVertexSource).
// Size: 32 bytes, no padding.
type ModelVertex struct {
	Position  [3]float32 // offset  0: vertex position in model space (12 bytes)
	TexCoords [2]float32 // offset 12: UV texture coordinate (8 bytes)
	Normal    [3]float32 // offset 20: vertex normal (12 bytes)
}

// Size returns the size of the ModelVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *ModelVertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the ModelVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (v *ModelVertex) Marshal() []byte {
	buf := make([]byte, ModelVertexSize)
	v.marshalInto(buf)
	return buf
}

func (v *ModelVertex) marshalInto(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.TexCoords[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.TexCoords[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Normal[0]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(v.Normal[1]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(v.Normal[2]))
}

// ModelVertexLayout describes ModelVertex to the vertex stage: per-vertex stepping,
// position at location 0, tex coords at location 1 and normal at location 2.
//
// Returns:
//   - wgpu.VertexBufferLayout: the vertex buffer layout
func ModelVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: ModelVertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 20, ShaderLocation: 2},
		},
	}
}

// InstanceRaw is the GPU representation of one instance: a model matrix followed by a
// normal matrix, both column-major. Matches the WGSL InstanceInput struct (see InstanceSource).
// Size: 100 bytes, no padding.
type InstanceRaw struct {
	Model  [4][4]float32 // offset  0: model matrix columns (64 bytes)
	Normal [3][3]float32 // offset 64: normal matrix columns (36 bytes)
}

// Size returns the size of the InstanceRaw struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (r *InstanceRaw) Size() int {
	return int(unsafe.Sizeof(*r))
}

// Marshal serializes the InstanceRaw struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 100-byte buffer ready for GPU upload.
func (r *InstanceRaw) Marshal() []byte {
	buf := make([]byte, InstanceRawSize)
	r.marshalInto(buf)
	return buf
}

func (r *InstanceRaw) marshalInto(buf []byte) {
	off := 0
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(r.Model[c][row]))
			off += 4
		}
	}
	for c := 0; c < 3; c++ {
		for row := 0; row < 3; row++ {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(r.Normal[c][row]))
			off += 4
		}
	}
}

// InstanceLayout describes InstanceRaw to the vertex stage: per-instance stepping, the four
// model matrix columns at locations 5-8 and the three normal matrix columns at locations 9-11.
//
// Returns:
//   - wgpu.VertexBufferLayout: the instance buffer layout
func InstanceLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: InstanceRawSize,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 5},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 6},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 7},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 8},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 64, ShaderLocation: 9},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 76, ShaderLocation: 10},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 88, ShaderLocation: 11},
		},
	}
}

// VertexLayouts returns the vertex buffer layouts every model pipeline is built over,
// in buffer slot order: ModelVertex at slot 0 and InstanceRaw at slot 1.
//
// Returns:
//   - []wgpu.VertexBufferLayout: the layouts
func VertexLayouts() []wgpu.VertexBufferLayout {
	return []wgpu.VertexBufferLayout{ModelVertexLayout(), InstanceLayout()}
}

// MarshalVertices packs vertices into a contiguous vertex buffer.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices)*32 bytes
func MarshalVertices(vertices []ModelVertex) []byte {
	buf := make([]byte, len(vertices)*ModelVertexSize)
	for i := range vertices {
		vertices[i].marshalInto(buf[i*ModelVertexSize:])
	}
	return buf
}

// MarshalIndices packs 32-bit indices little-endian.
//
// Parameters:
//   - indices: the indices to pack
//
// Returns:
//   - []byte: len(indices)*4 bytes
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
