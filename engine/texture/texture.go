// Package texture uploads images to sampled GPU textures and creates depth attachments.
package texture

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the depth attachment format used by every depth-tested pipeline.
const DepthFormat = wgpu.TextureFormatDepth32Float

// ColorFormat is the format sampled textures are uploaded in.
const ColorFormat = wgpu.TextureFormatRGBA8UnormSrgb

// ErrDecode is returned when an image cannot be read or decoded.
var ErrDecode = errors.New("texture decode failed")

// DefaultSampler returns the sampler used unless WithSampler replaces it: clamp-to-edge
// addressing, linear magnification, nearest minification and nearest mipmap selection.
//
// Returns:
//   - common.SamplerStagingData: the default sampler configuration
func DefaultSampler() common.SamplerStagingData {
	return common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// Texture is a GPU texture together with its default view and a sampler.
// It owns all three and frees them on Release.
type Texture struct {
	Label   string
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Sampler *wgpu.Sampler
	Width   uint32
	Height  uint32

	backend gpu.Backend
}

var _ gpu.Releasable = &Texture{}

// Load decodes the image at path and uploads it as a sampled texture.
//
// Parameters:
//   - backend: the backend to create GPU objects on
//   - path: the image file path
//   - options: texture options such as WithSampler
//
// Returns:
//   - *Texture: the uploaded texture
//   - error: ErrDecode if the file cannot be read or decoded, or a GPU creation error
func Load(backend gpu.Backend, path string, options ...TextureBuilderOption) (*Texture, error) {
	src := &common.ImportedTexture{Path: path}
	staging, err := src.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	options = append([]TextureBuilderOption{WithLabel(filepath.Base(path))}, options...)
	return FromStaging(backend, staging, options...)
}

// LoadBytes decodes encoded image bytes (PNG, JPEG, BMP, TIFF or WebP) and uploads them.
//
// Parameters:
//   - backend: the backend to create GPU objects on
//   - label: debug label for the texture
//   - data: the encoded image
//   - options: texture options such as WithSampler
//
// Returns:
//   - *Texture: the uploaded texture
//   - error: ErrDecode if the bytes cannot be decoded, or a GPU creation error
func LoadBytes(backend gpu.Backend, label string, data []byte, options ...TextureBuilderOption) (*Texture, error) {
	src := &common.ImportedTexture{Data: data}
	staging, err := src.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	options = append([]TextureBuilderOption{WithLabel(label)}, options...)
	return FromStaging(backend, staging, options...)
}

// FromImage uploads an in-memory image.
//
// Parameters:
//   - backend: the backend to create GPU objects on
//   - label: debug label for the texture
//   - img: the image to upload
//   - options: texture options such as WithSampler
//
// Returns:
//   - *Texture: the uploaded texture
//   - error: a GPU creation error
func FromImage(backend gpu.Backend, label string, img image.Image, options ...TextureBuilderOption) (*Texture, error) {
	options = append([]TextureBuilderOption{WithLabel(label)}, options...)
	return FromStaging(backend, common.ToRGBA(img), options...)
}

// FromStaging creates an RGBA8 sRGB texture, uploads staging into it, and creates its view and sampler.
// Partially created objects are released on failure.
//
// Parameters:
//   - backend: the backend to create GPU objects on
//   - staging: the RGBA8 pixel data
//   - options: texture options
//
// Returns:
//   - *Texture: the uploaded texture
//   - error: error if any GPU object cannot be created
func FromStaging(backend gpu.Backend, staging common.TextureStagingData, options ...TextureBuilderOption) (*Texture, error) {
	cfg := newTextureConfig(options...)
	if staging.Width == 0 || staging.Height == 0 {
		return nil, fmt.Errorf("%w: %q has zero size", ErrDecode, cfg.label)
	}

	rel := gpu.NewReleaser(backend)
	defer rel.Release()

	tex, err := backend.CreateTexture(&wgpu.TextureDescriptor{
		Label:     cfg.label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        ColorFormat,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", cfg.label, err)
	}
	rel.Track(tex)

	if err := backend.WriteTexture(tex, staging); err != nil {
		return nil, fmt.Errorf("failed to upload texture %q: %w", cfg.label, err)
	}

	view, err := backend.CreateTextureView(tex)
	if err != nil {
		return nil, fmt.Errorf("failed to create view for texture %q: %w", cfg.label, err)
	}
	rel.Track(view)

	s := cfg.sampler
	samp, err := backend.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         cfg.label + " Sampler",
		AddressModeU:  s.AddressModeU,
		AddressModeV:  s.AddressModeV,
		AddressModeW:  s.AddressModeW,
		MagFilter:     s.MagFilter,
		MinFilter:     s.MinFilter,
		MipmapFilter:  s.MipmapFilter,
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   s.LodMaxClamp,
		MaxAnisotropy: max(s.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler for texture %q: %w", cfg.label, err)
	}

	rel.Disarm()
	common.Logger().Debug("texture uploaded", "label", cfg.label, "width", staging.Width, "height", staging.Height)

	return &Texture{
		Label:   cfg.label,
		Texture: tex,
		View:    view,
		Sampler: samp,
		Width:   staging.Width,
		Height:  staging.Height,
		backend: backend,
	}, nil
}

// CreateDepthTexture creates a DepthFormat render attachment of the given size with a
// comparison sampler, suitable both as a depth buffer and for sampling in a later pass.
//
// Parameters:
//   - backend: the backend to create GPU objects on
//   - width: attachment width in pixels
//   - height: attachment height in pixels
//
// Returns:
//   - *Texture: the depth texture
//   - error: error if any GPU object cannot be created
func CreateDepthTexture(backend gpu.Backend, width, height int) (*Texture, error) {
	rel := gpu.NewReleaser(backend)
	defer rel.Release()

	tex, err := backend.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(max(width, 1)),
			Height:             uint32(max(height, 1)),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create depth texture: %w", err)
	}
	rel.Track(tex)

	view, err := backend.CreateTextureView(tex)
	if err != nil {
		return nil, fmt.Errorf("failed to create depth texture view: %w", err)
	}
	rel.Track(view)

	samp, err := backend.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Depth Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLessEqual,
		LodMinClamp:   0,
		LodMaxClamp:   100,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create depth sampler: %w", err)
	}

	rel.Disarm()
	return &Texture{
		Label:   "Depth Texture",
		Texture: tex,
		View:    view,
		Sampler: samp,
		Width:   uint32(max(width, 1)),
		Height:  uint32(max(height, 1)),
		backend: backend,
	}, nil
}

// Release frees the sampler, view and texture. Safe to call more than once.
func (t *Texture) Release() {
	if t == nil || t.backend == nil {
		return
	}
	if t.Sampler != nil {
		t.backend.Release(t.Sampler)
		t.Sampler = nil
	}
	if t.View != nil {
		t.backend.Release(t.View)
		t.View = nil
	}
	if t.Texture != nil {
		t.backend.Release(t.Texture)
		t.Texture = nil
	}
}
