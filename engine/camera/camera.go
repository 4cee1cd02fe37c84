// Package camera computes the view-projection matrix of a perspective camera and keeps it in a
// uniform buffer the renderer binds as one of its auxiliary groups.
package camera

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/bind_group_provider"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32
	position             [3]float32

	controller        CameraController
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings, reads position and target from its CameraController,
// and uploads the resulting GPUCameraUniform on Update.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// SetAspect sets the aspect ratio, typically after a surface resize. Takes effect on the next Update.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// Position returns the eye position used by the last Update.
	//
	// Returns:
	//   - [3]float32: world-space eye position
	Position() [3]float32

	// ViewMatrix returns the view matrix computed by the last Update (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the projection matrix computed by the last Update (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the combined view-projection matrix computed by the last Update (column-major).
	//
	// Returns:
	//   - [16]float32: the view-projection matrix
	ViewProjectionMatrix() [16]float32

	// Controller returns the attached CameraController.
	//
	// Returns:
	//   - CameraController: the controller
	Controller() CameraController

	// Uniform returns the GPU representation of the current camera state.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform value
	Uniform() GPUCameraUniform

	// Update recomputes every matrix from the controller and writes the uniform buffer.
	// Should be called once per frame before drawing.
	//
	// Returns:
	//   - error: error if the uniform write is rejected
	Update() error

	// BindGroupLayout returns the layout of the camera bind group.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout
	BindGroupLayout() *wgpu.BindGroupLayout

	// BindGroup returns the camera bind group.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group
	BindGroup() *wgpu.BindGroup

	// Release frees the uniform buffer and its bind group.
	Release()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with default perspective settings and allocates its uniform buffer.
// Without WithController, an orbit controller with default settings is attached.
//
// Parameters:
//   - backend: the backend the uniform buffer is created on
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
//   - error: error if the uniform resources cannot be created
func NewCamera(backend gpu.Backend, options ...CameraBuilderOption) (Camera, error) {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     [3]float32{0, 1, 0},
		fov:    45.0 * (math32.Pi / 180.0), // radians
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewCameraController()
	}
	c.updateMatrices()

	uniform := c.uniform()
	provider, err := bind_group_provider.NewBindGroupProvider(backend,
		"camera_"+strconv.FormatUint(cameraCount.Add(1)-1, 10),
		bind_group_provider.WithUniform(uniform.Marshal()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create camera uniform: %w", err)
	}
	c.bindGroupProvider = provider
	common.Logger().Debug("camera created", "label", provider.Label(), "eye", c.position)
	return c, nil
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Controller() CameraController {
	return c.controller
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uniform()
}

func (c *cameraImpl) Update() error {
	c.mu.Lock()
	c.updateMatrices()
	uniform := c.uniform()
	c.mu.Unlock()
	return c.bindGroupProvider.Write(0, 0, uniform.Marshal())
}

func (c *cameraImpl) BindGroupLayout() *wgpu.BindGroupLayout {
	return c.bindGroupProvider.BindGroupLayout()
}

func (c *cameraImpl) BindGroup() *wgpu.BindGroup {
	return c.bindGroupProvider.BindGroup()
}

func (c *cameraImpl) Release() {
	c.bindGroupProvider.Release()
}

// uniform packs the current matrices. Caller must hold the mutex.
func (c *cameraImpl) uniform() GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:       c.viewProjectionMatrix,
		CameraPosition: c.position,
	}
}

// updateMatrices recalculates the view, projection and view-projection matrices from the controller.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.position = c.controller.Position()
	common.LookAt(c.viewMatrix[:], c.position, c.controller.Target(), c.up)
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}
