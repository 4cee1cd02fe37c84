package texture_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-draw/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoadUploadsPixels(t *testing.T) {
	fb := gputest.NewFakeBackend()
	path := writePNG(t, t.TempDir(), "diffuse.png", 4, 2)

	tex, err := texture.Load(fb, path)
	require.NoError(t, err)
	assert.Equal(t, "diffuse.png", tex.Label)
	assert.Equal(t, uint32(4), tex.Width)
	assert.Equal(t, uint32(2), tex.Height)

	desc := fb.Textures[tex.Texture]
	assert.Equal(t, texture.ColorFormat, desc.Format)
	assert.Equal(t, wgpu.TextureDimension2D, desc.Dimension)
	assert.Equal(t, uint32(1), desc.SampleCount)

	staging := fb.TextureWrites[tex.Texture]
	require.Len(t, staging.Pixels, 4*2*4)
	// Pixel (3, 1): R = x, G = y.
	off := (1*4 + 3) * 4
	assert.Equal(t, []byte{3, 1, 7, 255}, staging.Pixels[off:off+4])

	assert.Equal(t, 3, fb.Live())
	tex.Release()
	tex.Release()
	assert.Zero(t, fb.Live())
}

func TestLoadMissingFileIsDecodeError(t *testing.T) {
	fb := gputest.NewFakeBackend()

	_, err := texture.Load(fb, filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, texture.ErrDecode)
	assert.Empty(t, fb.Calls)
}

func TestLoadBytesRejectsGarbage(t *testing.T) {
	fb := gputest.NewFakeBackend()

	_, err := texture.LoadBytes(fb, "junk", []byte("not an image"))
	assert.ErrorIs(t, err, texture.ErrDecode)
}

func TestFromStagingReleasesOnSamplerFailure(t *testing.T) {
	fb := gputest.NewFakeBackend().FailOn(gputest.OpCreateSampler, 1)
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))

	_, err := texture.FromImage(fb, "one", img)
	assert.ErrorIs(t, err, gputest.ErrInjected)
	assert.Zero(t, fb.Live())
	assert.Len(t, fb.Released, 2)
}

func TestDefaultSampler(t *testing.T) {
	fb := gputest.NewFakeBackend()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	tex, err := texture.FromImage(fb, "plain", img)
	require.NoError(t, err)

	desc := fb.Samplers[tex.Sampler]
	assert.Equal(t, "plain Sampler", desc.Label)
	assert.Equal(t, wgpu.AddressModeClampToEdge, desc.AddressModeU)
	assert.Equal(t, wgpu.FilterModeLinear, desc.MagFilter)
	assert.Equal(t, float32(32), desc.LodMaxClamp)
	assert.Equal(t, uint16(1), desc.MaxAnisotropy)
}

func TestWithSamplerKeepsZeroValuedModes(t *testing.T) {
	fb := gputest.NewFakeBackend()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	// Repeat and Nearest are the zero values of their enums.
	tex, err := texture.FromImage(fb, "rep", img, texture.WithSampler(common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeMirrorRepeat,
		MagFilter:    wgpu.FilterModeNearest,
	}))
	require.NoError(t, err)

	desc := fb.Samplers[tex.Sampler]
	assert.Equal(t, wgpu.AddressModeRepeat, desc.AddressModeU)
	assert.Equal(t, wgpu.AddressModeMirrorRepeat, desc.AddressModeV)
	assert.Equal(t, wgpu.FilterModeNearest, desc.MagFilter)
	assert.Equal(t, uint16(1), desc.MaxAnisotropy)

	s := texture.DefaultSampler()
	s.MagFilter = wgpu.FilterModeNearest
	tex, err = texture.FromImage(fb, "pixel", img, texture.WithSampler(s))
	require.NoError(t, err)
	desc = fb.Samplers[tex.Sampler]
	assert.Equal(t, wgpu.FilterModeNearest, desc.MagFilter)
	assert.Equal(t, wgpu.AddressModeClampToEdge, desc.AddressModeU)
}

func TestCreateDepthTexture(t *testing.T) {
	fb := gputest.NewFakeBackend()

	depth, err := texture.CreateDepthTexture(fb, 800, 600)
	require.NoError(t, err)
	desc := fb.Textures[depth.Texture]
	assert.Equal(t, texture.DepthFormat, desc.Format)
	assert.Equal(t, uint32(800), desc.Size.Width)
	assert.Equal(t, uint32(600), desc.Size.Height)
	assert.NotZero(t, desc.Usage&wgpu.TextureUsageRenderAttachment)
}
