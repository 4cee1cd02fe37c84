package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// CameraUniformSize is the byte size of the camera uniform buffer: a mat4x4<f32>
// followed by a vec3<f32> padded out to 16 bytes.
const CameraUniformSize = 80

// positionOffset is where camera_position starts, directly after view_proj.
const positionOffset = 16 * 4

// GPUCameraUniformSource declares the WGSL CameraUniform struct. The shader pre-processor
// splices it into every shader that includes the camera.
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform holds the per-frame camera values bound at the camera group.
// Field order follows CameraUniform in GPUCameraUniformSource.
type GPUCameraUniform struct {
	// ViewProj maps world space to clip space, column-major.
	ViewProj [16]float32
	// CameraPosition is the eye position in world space, used for specular lighting.
	CameraPosition [3]float32
}

// Size reports the upload size, which includes the trailing vec3 padding.
//
// Returns:
//   - int: CameraUniformSize
func (g *GPUCameraUniform) Size() int {
	return CameraUniformSize
}

// Marshal encodes the uniform little-endian. The padding word after CameraPosition is zero.
//
// Returns:
//   - []byte: CameraUniformSize bytes
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, CameraUniformSize)
	putFloats(buf, g.ViewProj[:])
	putFloats(buf[positionOffset:], g.CameraPosition[:])
	return buf
}

func putFloats(dst []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
