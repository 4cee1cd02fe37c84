package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func assertVec3(t *testing.T, want, got [3]float32) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d", i)
	}
}

func TestMul4Identity(t *testing.T) {
	a := make([]float32, 16)
	for i := range a {
		a[i] = float32(i + 1)
	}
	id := make([]float32, 16)
	Identity(id)

	out := make([]float32, 16)
	Mul4(out, a, id)
	assert.Equal(t, a, out)
	Mul4(out, id, a)
	assert.Equal(t, a, out)
}

func TestPerspectiveDepthRange(t *testing.T) {
	m := make([]float32, 16)
	Perspective(m, math32.Pi/2, 1, 1, 10)

	// clip z / w for a point on the near and far planes
	depth := func(z float32) float32 {
		return (m[10]*z + m[14]) / (m[11] * z)
	}
	assert.InDelta(t, 0, depth(-1), 1e-5)
	assert.InDelta(t, 1, depth(-10), 1e-5)
	assert.InDelta(t, 1, m[0], 1e-5)
}

func TestLookAtMapsEyeToOrigin(t *testing.T) {
	m := make([]float32, 16)
	eye := [3]float32{3, 4, 5}
	LookAt(m, eye, [3]float32{}, [3]float32{0, 1, 0})

	var got [3]float32
	for row := 0; row < 3; row++ {
		got[row] = m[row]*eye[0] + m[4+row]*eye[1] + m[8+row]*eye[2] + m[12+row]
	}
	assertVec3(t, [3]float32{}, got)
}

func TestQuaternionRotation(t *testing.T) {
	q := QuatFromAxisAngle([3]float32{0, 0, 2}, math32.Pi/2)
	r := QuatToMat3(q)

	// +X rotates to +Y about +Z
	assertVec3(t, [3]float32{0, 1, 0}, r[0])
	assertVec3(t, [3]float32{-1, 0, 0}, r[1])
	assertVec3(t, [3]float32{0, 0, 1}, r[2])

	assert.Equal(t, [4]float32{0, 0, 0, 1}, QuatFromAxisAngle([3]float32{}, 1))
	assert.Equal(t, [3][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, QuatToMat3([4]float32{}))
}

func TestComposeTRS(t *testing.T) {
	m := ComposeTRS([3]float32{1, 2, 3}, [4]float32{0, 0, 0, 1}, 2)
	assert.Equal(t, [4][4]float32{
		{2, 0, 0, 0},
		{0, 2, 0, 0},
		{0, 0, 2, 0},
		{1, 2, 3, 1},
	}, m)
}

func TestVectorHelpers(t *testing.T) {
	assert.Equal(t, float32(32), Dot3([3]float32{1, 2, 3}, [3]float32{4, 5, 6}))
	assert.Equal(t, [3]float32{0, 0, 1}, Cross3([3]float32{1, 0, 0}, [3]float32{0, 1, 0}))
	assertVec3(t, [3]float32{0.6, 0.8, 0}, Normalize3([3]float32{3, 4, 0}))
	assert.Equal(t, [3]float32{}, Normalize3([3]float32{}))
}
