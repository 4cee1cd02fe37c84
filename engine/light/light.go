// Package light holds the scene's point light and keeps it in a uniform buffer the renderer
// binds as one of its auxiliary groups.
package light

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

var lightCount atomic.Uint64

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	position  [3]float32
	color     [3]float32
	intensity float32

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Light defines the interface for a point light source.
//
// Setters only change the CPU-side state; Update uploads it. The bind group is created
// once at construction and stays valid until Release.
type Light interface {
	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - position: position as (x, y, z)
	SetPosition(position [3]float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - color: color as (r, g, b)
	SetColor(color [3]float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// Uniform returns the GPU representation of the light.
	//
	// Returns:
	//   - GPULight: the uniform value
	Uniform() GPULight

	// Update writes the current state into the uniform buffer.
	//
	// Returns:
	//   - error: error if the write is rejected
	Update() error

	// BindGroupLayout returns the layout of the light bind group.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout
	BindGroupLayout() *wgpu.BindGroupLayout

	// BindGroup returns the light bind group.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group
	BindGroup() *wgpu.BindGroup

	// Release frees the uniform buffer and its bind group.
	Release()
}

var _ Light = &lightImpl{}

// NewLight creates a white point light at the origin with any provided options applied,
// and allocates its uniform buffer.
//
// Parameters:
//   - backend: the backend the uniform buffer is created on
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
//   - error: error if the uniform resources cannot be created
func NewLight(backend gpu.Backend, opts ...LightBuilderOption) (Light, error) {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		color:     [3]float32{1, 1, 1},
		intensity: 1.0,
	}
	for _, opt := range opts {
		opt(l)
	}

	uniform := l.uniform()
	provider, err := bind_group_provider.NewBindGroupProvider(backend,
		"light_"+strconv.FormatUint(lightCount.Add(1)-1, 10),
		bind_group_provider.WithUniform(uniform.Marshal()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create light uniform: %w", err)
	}
	l.bindGroupProvider = provider
	common.Logger().Debug("light created", "label", provider.Label(), "position", l.position, "color", l.color)
	return l, nil
}

func (l *lightImpl) Position() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) SetPosition(position [3]float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = position
}

func (l *lightImpl) SetColor(color [3]float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = color
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) Uniform() GPULight {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.uniform()
}

func (l *lightImpl) Update() error {
	uniform := l.Uniform()
	return l.bindGroupProvider.Write(0, 0, uniform.Marshal())
}

func (l *lightImpl) BindGroupLayout() *wgpu.BindGroupLayout {
	return l.bindGroupProvider.BindGroupLayout()
}

func (l *lightImpl) BindGroup() *wgpu.BindGroup {
	return l.bindGroupProvider.BindGroup()
}

func (l *lightImpl) Release() {
	l.bindGroupProvider.Release()
}

// uniform packs the light state. Caller must hold the mutex.
func (l *lightImpl) uniform() GPULight {
	return GPULight{
		Position:  l.position,
		Color:     l.color,
		Intensity: l.intensity,
	}
}
