package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RenderPass is the subset of a render pass encoder the draw dispatcher records into.
type RenderPass interface {
	SetPipeline(p *wgpu.RenderPipeline)
	SetVertexBuffer(slot uint32, buf *wgpu.Buffer, offset, size uint64)
	SetIndexBuffer(buf *wgpu.Buffer, format wgpu.IndexFormat, offset, size uint64)
	SetBindGroup(group uint32, bg *wgpu.BindGroup, dynamicOffsets []uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// wgpuRenderPass adapts *wgpu.RenderPassEncoder to RenderPass.
type wgpuRenderPass struct {
	enc *wgpu.RenderPassEncoder
}

var _ RenderPass = &wgpuRenderPass{}

// WrapRenderPass adapts a wgpu render pass encoder for use with a DrawContext.
//
// Parameters:
//   - enc: the encoder returned by BeginRenderPass
//
// Returns:
//   - RenderPass: the adapted pass
func WrapRenderPass(enc *wgpu.RenderPassEncoder) RenderPass {
	return &wgpuRenderPass{enc: enc}
}

func (p *wgpuRenderPass) SetPipeline(pipeline *wgpu.RenderPipeline) {
	p.enc.SetPipeline(pipeline)
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buf *wgpu.Buffer, offset, size uint64) {
	p.enc.SetVertexBuffer(slot, buf, offset, size)
}

func (p *wgpuRenderPass) SetIndexBuffer(buf *wgpu.Buffer, format wgpu.IndexFormat, offset, size uint64) {
	p.enc.SetIndexBuffer(buf, format, offset, size)
}

func (p *wgpuRenderPass) SetBindGroup(group uint32, bg *wgpu.BindGroup, dynamicOffsets []uint32) {
	p.enc.SetBindGroup(group, bg, dynamicOffsets)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.enc.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}
