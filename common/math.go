package common

import (
	"github.com/chewxy/math32"
)

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// Perspective creates a right-handed perspective projection matrix that maps depth
// into the WebGPU clip space range [0, 1].
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
func Perspective(out []float32, fovY, aspect, near, far float32) {
	f := 1.0 / math32.Tan(fovY/2.0)
	Identity(out)

	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	out[15] = 0.0
}

// LookAt creates a view matrix that positions and orients the camera.
// The resulting matrix transforms world coordinates to view/camera space.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - eye: camera position in world space
//   - center: target point the camera looks at
//   - up: up vector defining camera orientation (typically 0,1,0)
func LookAt(out []float32, eye, center, up [3]float32) {
	z := Normalize3([3]float32{eye[0] - center[0], eye[1] - center[1], eye[2] - center[2]})
	x := Normalize3(Cross3(up, z))
	y := Cross3(z, x)

	out[0], out[4], out[8], out[12] = x[0], x[1], x[2], -Dot3(x, eye)
	out[1], out[5], out[9], out[13] = y[0], y[1], y[2], -Dot3(y, eye)
	out[2], out[6], out[10], out[14] = z[0], z[1], z[2], -Dot3(z, eye)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

// Dot3 returns the dot product of two 3-vectors.
func Dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Cross3 returns the cross product a × b.
func Cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Normalize3 scales v to unit length. A zero vector is returned unchanged.
func Normalize3(v [3]float32) [3]float32 {
	l := math32.Sqrt(Dot3(v, v))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// QuatFromAxisAngle builds a unit quaternion (x, y, z, w) rotating angle radians around axis.
// A zero axis yields the identity rotation.
//
// Parameters:
//   - axis: the rotation axis, normalized internally
//   - angle: the rotation angle in radians
//
// Returns:
//   - [4]float32: the quaternion in x, y, z, w order
func QuatFromAxisAngle(axis [3]float32, angle float32) [4]float32 {
	n := Normalize3(axis)
	if n == ([3]float32{}) {
		return [4]float32{0, 0, 0, 1}
	}
	s, c := math32.Sincos(angle / 2)
	return [4]float32{n[0] * s, n[1] * s, n[2] * s, c}
}

// QuatToMat3 converts a quaternion (x, y, z, w) into a 3x3 rotation matrix stored as columns.
// The quaternion is normalized first so slightly denormalized input stays a pure rotation.
//
// Parameters:
//   - q: the quaternion in x, y, z, w order
//
// Returns:
//   - [3][3]float32: the rotation matrix, indexed [column][row]
func QuatToMat3(q [4]float32) [3][3]float32 {
	l := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l == 0 {
		return [3][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	x, y, z, w := q[0]/l, q[1]/l, q[2]/l, q[3]/l
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2

	return [3][3]float32{
		{1 - (yy + zz), xy + wz, xz - wy},
		{xy - wz, 1 - (xx + zz), yz + wx},
		{xz + wy, yz - wx, 1 - (xx + yy)},
	}
}

// ComposeTRS builds a column-major model matrix equal to translation * rotation * scale.
//
// Parameters:
//   - position: translation in world space
//   - rotation: the rotation quaternion in x, y, z, w order
//   - scale: uniform scale factor
//
// Returns:
//   - [4][4]float32: the model matrix, indexed [column][row]
func ComposeTRS(position [3]float32, rotation [4]float32, scale float32) [4][4]float32 {
	r := QuatToMat3(rotation)
	return [4][4]float32{
		{r[0][0] * scale, r[0][1] * scale, r[0][2] * scale, 0},
		{r[1][0] * scale, r[1][1] * scale, r[1][2] * scale, 0},
		{r[2][0] * scale, r[2][1] * scale, r[2][2] * scale, 0},
		{position[0], position[1], position[2], 1},
	}
}
