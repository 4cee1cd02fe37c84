package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu/gputest"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceToRawIdentityRotation(t *testing.T) {
	raw := NewInstance([3]float32{1, 2, 3}).ToRaw()

	assert.Equal(t, [4][4]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{1, 2, 3, 1},
	}, raw.Model)
	assert.Equal(t, [3][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, raw.Normal)
}

func TestInstanceToRawRotationAndScale(t *testing.T) {
	inst := Instance{
		Position: [3]float32{0, 0, 5},
		Rotation: common.QuatFromAxisAngle([3]float32{0, 0, 1}, math32.Pi/2),
		Scale:    2,
	}
	raw := inst.ToRaw()

	// +X maps to +Y: the first column of the rotation is (0, 1, 0).
	assert.InDelta(t, 0, raw.Normal[0][0], 1e-6)
	assert.InDelta(t, 1, raw.Normal[0][1], 1e-6)
	assert.InDelta(t, 0, raw.Model[0][0], 1e-6)
	assert.InDelta(t, 2, raw.Model[0][1], 1e-6)
	assert.Equal(t, [4]float32{0, 0, 5, 1}, raw.Model[3])
}

func TestInstanceZeroValueIsIdentity(t *testing.T) {
	raw := Instance{}.ToRaw()
	assert.Equal(t, float32(1), raw.Model[0][0])
	assert.Equal(t, float32(1), raw.Model[3][3])
}

func TestInstanceBuffer(t *testing.T) {
	fb := gputest.NewFakeBackend()
	instances := []Instance{NewInstance([3]float32{0, 0, 0}), NewInstance([3]float32{1, 0, 0})}

	buf, err := NewInstanceBuffer(fb, "Instance Buffer", instances)
	require.NoError(t, err)
	rec := fb.Buffers[buf]
	assert.Len(t, rec.Contents, 2*InstanceRawSize)
	assert.Equal(t, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, rec.Usage)

	instances[1].Position = [3]float32{9, 0, 0}
	require.NoError(t, UpdateInstanceBuffer(fb, buf, instances))
	assert.Equal(t, float32(9), readFloat(fb.Buffers[buf].Contents, InstanceRawSize+48))

	err = UpdateInstanceBuffer(fb, buf, append(instances, Instance{}))
	assert.Error(t, err)
}
