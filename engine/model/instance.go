package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Instance is the CPU-side placement of one drawn copy of a mesh.
type Instance struct {
	Position [3]float32
	Rotation [4]float32 // unit quaternion, x y z w
	Scale    float32
}

// NewInstance creates an unrotated instance at position with unit scale.
//
// Parameters:
//   - position: the world-space translation
//
// Returns:
//   - Instance: the instance
func NewInstance(position [3]float32) Instance {
	return Instance{Position: position, Rotation: [4]float32{0, 0, 0, 1}, Scale: 1}
}

// ToRaw builds the per-instance GPU record: the model matrix is translation × rotation × scale
// and the normal matrix is the rotation alone. A zero Scale is treated as 1.
//
// Returns:
//   - InstanceRaw: the GPU record
func (i Instance) ToRaw() InstanceRaw {
	scale := common.Coalesce(i.Scale, 1)
	rot := i.Rotation
	if rot == [4]float32{} {
		rot = [4]float32{0, 0, 0, 1}
	}
	return InstanceRaw{
		Model:  common.ComposeTRS(i.Position, rot, scale),
		Normal: common.QuatToMat3(rot),
	}
}

// MarshalInstances packs instances into a contiguous instance buffer.
//
// Parameters:
//   - instances: the instances to pack
//
// Returns:
//   - []byte: len(instances)*100 bytes
func MarshalInstances(instances []Instance) []byte {
	buf := make([]byte, len(instances)*InstanceRawSize)
	for i, inst := range instances {
		raw := inst.ToRaw()
		raw.marshalInto(buf[i*InstanceRawSize:])
	}
	return buf
}

// NewInstanceBuffer uploads instances into a vertex buffer that can be rewritten with
// UpdateInstanceBuffer. Bind it at vertex buffer slot 1.
//
// Parameters:
//   - backend: the backend to create the buffer on
//   - label: the buffer label
//   - instances: the initial instances
//
// Returns:
//   - *wgpu.Buffer: the instance buffer
//   - error: error if the buffer cannot be created
func NewInstanceBuffer(backend gpu.Backend, label string, instances []Instance) (*wgpu.Buffer, error) {
	buf, err := backend.CreateBuffer(label, MarshalInstances(instances), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance buffer %q: %w", label, err)
	}
	return buf, nil
}

// UpdateInstanceBuffer rewrites buf with instances starting at the first record.
//
// Parameters:
//   - backend: the backend owning buf
//   - buf: a buffer from NewInstanceBuffer
//   - instances: the instances to write; must fit the buffer
//
// Returns:
//   - error: error if the write is rejected
func UpdateInstanceBuffer(backend gpu.Backend, buf *wgpu.Buffer, instances []Instance) error {
	if err := backend.WriteBuffer(buf, 0, MarshalInstances(instances)); err != nil {
		return fmt.Errorf("failed to update instance buffer: %w", err)
	}
	return nil
}
