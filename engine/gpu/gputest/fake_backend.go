// Package gputest provides a recording gpu.Backend for tests that run without a GPU.
//
// Handles returned by FakeBackend are zero-value wgpu objects used only as identity tokens:
// they can be compared, stored in descriptors and passed back to the fake, but must never be
// handed to real wgpu calls or released directly.
package gputest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrInjected is returned by operations configured to fail through FailOn.
var ErrInjected = errors.New("injected failure")

// Op names the backend operations a FakeBackend records and can fail.
type Op string

const (
	OpCreateBuffer          Op = "CreateBuffer"
	OpWriteBuffer           Op = "WriteBuffer"
	OpCreateTexture         Op = "CreateTexture"
	OpWriteTexture          Op = "WriteTexture"
	OpCreateTextureView     Op = "CreateTextureView"
	OpCreateSampler         Op = "CreateSampler"
	OpCreateBindGroupLayout Op = "CreateBindGroupLayout"
	OpCreateBindGroup       Op = "CreateBindGroup"
	OpCreateShaderModule    Op = "CreateShaderModule"
	OpCreatePipelineLayout  Op = "CreatePipelineLayout"
	OpCreateRenderPipeline  Op = "CreateRenderPipeline"
)

// BufferRecord captures one CreateBuffer call.
type BufferRecord struct {
	Label    string
	Contents []byte
	Usage    wgpu.BufferUsage
}

// FakeBackend records every call and hands out distinct identity handles.
type FakeBackend struct {
	mu sync.Mutex

	// Calls lists every operation in call order.
	Calls []Op

	// Buffers maps each created buffer to its creation record.
	Buffers map[*wgpu.Buffer]BufferRecord

	// Textures maps each created texture to its descriptor.
	Textures map[*wgpu.Texture]wgpu.TextureDescriptor

	// TextureWrites maps each written texture to the staging data uploaded into it.
	TextureWrites map[*wgpu.Texture]common.TextureStagingData

	// Samplers maps each created sampler to its descriptor.
	Samplers map[*wgpu.Sampler]wgpu.SamplerDescriptor

	// BindGroupLayouts maps each created layout to its descriptor.
	BindGroupLayouts map[*wgpu.BindGroupLayout]wgpu.BindGroupLayoutDescriptor

	// BindGroups maps each created bind group to its descriptor.
	BindGroups map[*wgpu.BindGroup]wgpu.BindGroupDescriptor

	// ShaderModules maps each created shader module to its descriptor.
	ShaderModules map[*wgpu.ShaderModule]wgpu.ShaderModuleDescriptor

	// PipelineLayouts maps each created pipeline layout to its descriptor.
	PipelineLayouts map[*wgpu.PipelineLayout]wgpu.PipelineLayoutDescriptor

	// Pipelines maps each created render pipeline to its descriptor.
	Pipelines map[*wgpu.RenderPipeline]wgpu.RenderPipelineDescriptor

	// Released lists released objects in release order.
	Released []gpu.Releasable

	live     map[gpu.Releasable]Op
	failOn   map[Op]int
	opCounts map[Op]int
}

var _ gpu.Backend = &FakeBackend{}

// NewFakeBackend creates an empty recording backend.
//
// Returns:
//   - *FakeBackend: the backend
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Buffers:          make(map[*wgpu.Buffer]BufferRecord),
		Textures:         make(map[*wgpu.Texture]wgpu.TextureDescriptor),
		TextureWrites:    make(map[*wgpu.Texture]common.TextureStagingData),
		Samplers:         make(map[*wgpu.Sampler]wgpu.SamplerDescriptor),
		BindGroupLayouts: make(map[*wgpu.BindGroupLayout]wgpu.BindGroupLayoutDescriptor),
		BindGroups:       make(map[*wgpu.BindGroup]wgpu.BindGroupDescriptor),
		ShaderModules:    make(map[*wgpu.ShaderModule]wgpu.ShaderModuleDescriptor),
		PipelineLayouts:  make(map[*wgpu.PipelineLayout]wgpu.PipelineLayoutDescriptor),
		Pipelines:        make(map[*wgpu.RenderPipeline]wgpu.RenderPipelineDescriptor),
		live:             make(map[gpu.Releasable]Op),
		failOn:           make(map[Op]int),
		opCounts:         make(map[Op]int),
	}
}

// FailOn makes the nth call (1-based) of op return ErrInjected.
//
// Parameters:
//   - op: the operation to fail
//   - nth: which call of op fails
//
// Returns:
//   - *FakeBackend: the backend, for chaining
func (f *FakeBackend) FailOn(op Op, nth int) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[op] = nth
	return f
}

// Live returns the number of created objects that have not been released.
func (f *FakeBackend) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// Count returns how many times op was called.
func (f *FakeBackend) Count(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opCounts[op]
}

// IsReleased reports whether r has been released.
func (f *FakeBackend) IsReleased(r gpu.Releasable) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rel := range f.Released {
		if rel == r {
			return true
		}
	}
	return false
}

// record registers a call and reports the injected failure, if any. The caller holds f.mu.
func (f *FakeBackend) record(op Op) error {
	f.Calls = append(f.Calls, op)
	f.opCounts[op]++
	if nth, ok := f.failOn[op]; ok && nth == f.opCounts[op] {
		return fmt.Errorf("%s #%d: %w", op, nth, ErrInjected)
	}
	return nil
}

func (f *FakeBackend) CreateBuffer(label string, contents []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreateBuffer); err != nil {
		return nil, err
	}
	buf := &wgpu.Buffer{}
	f.Buffers[buf] = BufferRecord{Label: label, Contents: append([]byte(nil), contents...), Usage: usage}
	f.live[buf] = OpCreateBuffer
	return buf, nil
}

func (f *FakeBackend) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpWriteBuffer); err != nil {
		return err
	}
	rec, ok := f.Buffers[buf]
	if !ok {
		return errors.New("write to unknown buffer")
	}
	end := offset + uint64(len(data))
	if end > uint64(len(rec.Contents)) {
		return fmt.Errorf("write of %d bytes at %d overflows buffer %q of %d bytes", len(data), offset, rec.Label, len(rec.Contents))
	}
	copy(rec.Contents[offset:end], data)
	return nil
}

func (f *FakeBackend) CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreateTexture); err != nil {
		return nil, err
	}
	tex := &wgpu.Texture{}
	f.Textures[tex] = *desc
	f.live[tex] = OpCreateTexture
	return tex, nil
}

func (f *FakeBackend) WriteTexture(tex *wgpu.Texture, staging common.TextureStagingData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpWriteTexture); err != nil {
		return err
	}
	f.TextureWrites[tex] = staging
	return nil
}

func (f *FakeBackend) CreateTextureView(tex *wgpu.Texture) (*wgpu.TextureView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreateTextureView); err != nil {
		return nil, err
	}
	view := &wgpu.TextureView{}
	f.live[view] = OpCreateTextureView
	return view, nil
}

func (f *FakeBackend) CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreateSampler); err != nil {
		return nil, err
	}
	s := &wgpu.Sampler{}
	f.Samplers[s] = *desc
	f.live[s] = OpCreateSampler
	return s, nil
}

func (f *FakeBackend) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreateBindGroupLayout); err != nil {
		return nil, err
	}
	l := &wgpu.BindGroupLayout{}
	f.BindGroupLayouts[l] = *desc
	f.live[l] = OpCreateBindGroupLayout
	return l, nil
}

func (f *FakeBackend) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreateBindGroup); err != nil {
		return nil, err
	}
	bg := &wgpu.BindGroup{}
	f.BindGroups[bg] = *desc
	f.live[bg] = OpCreateBindGroup
	return bg, nil
}

func (f *FakeBackend) CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreateShaderModule); err != nil {
		return nil, err
	}
	m := &wgpu.ShaderModule{}
	f.ShaderModules[m] = *desc
	f.live[m] = OpCreateShaderModule
	return m, nil
}

func (f *FakeBackend) CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreatePipelineLayout); err != nil {
		return nil, err
	}
	l := &wgpu.PipelineLayout{}
	f.PipelineLayouts[l] = *desc
	f.live[l] = OpCreatePipelineLayout
	return l, nil
}

func (f *FakeBackend) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreateRenderPipeline); err != nil {
		return nil, err
	}
	p := &wgpu.RenderPipeline{}
	f.Pipelines[p] = *desc
	f.live[p] = OpCreateRenderPipeline
	return p, nil
}

func (f *FakeBackend) Release(r gpu.Releasable) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Released = append(f.Released, r)
	delete(f.live, r)
}
