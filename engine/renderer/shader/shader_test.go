package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litSource = `//@oxy:include model_vertex
//@oxy:include instance
//@oxy:include camera
//@oxy:include light

@group(0) @binding(0)
var t_diffuse: texture_2d<f32>;
@group(0) @binding(1)
var s_diffuse: sampler;

@group(1) @binding(0)
var<uniform> camera: CameraUniform;

@group(2) @binding(0)
var<uniform> light: Light;

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) tex_coords: vec2<f32>,
};

@vertex
fn vs_main(model: VertexInput, instance: InstanceInput) -> VertexOutput {
    let model_matrix = mat4x4<f32>(
        instance.model_matrix_0,
        instance.model_matrix_1,
        instance.model_matrix_2,
        instance.model_matrix_3,
    );
    var out: VertexOutput;
    out.tex_coords = model.tex_coords;
    out.clip_position = camera.view_proj * model_matrix * vec4<f32>(model.position, 1.0);
    return out;
}

@fragment
fn fs_main(frag: VertexOutput) -> @location(0) vec4<f32> {
    let color = textureSample(t_diffuse, s_diffuse, frag.tex_coords);
    return vec4<f32>(color.xyz * light.color, color.a);
}
`

const vertexOnlySource = `
@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 1.0);
}
`

func TestPreProcessorExpandsIncludesOnce(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:include model_vertex\n  //@oxy:include camera\n//@oxy:include model_vertex\nfn f() {}\n")
	require.NoError(t, err)

	assert.Equal(t, []string{IncludeModelVertex, IncludeCamera}, pp.Included())
	assert.Equal(t, 1, strings.Count(out, "struct VertexInput"))
	assert.Contains(t, out, "struct CameraUniform")
	assert.Contains(t, out, "fn f() {}")
	assert.NotContains(t, out, includePrefix)
}

func TestPreProcessorErrors(t *testing.T) {
	pp := NewPreProcessor()

	_, err := pp.Process("fn f() {}\n//@oxy:include shadows\n")
	assert.ErrorIs(t, err, ErrInclude)
	assert.Contains(t, err.Error(), "line 2")

	_, err = pp.Process("//@oxy:include\n")
	assert.ErrorIs(t, err, ErrInclude)

	_, err = pp.Process("//@oxy:include camera light\n")
	assert.ErrorIs(t, err, ErrInclude)
}

func TestPreProcessorRegister(t *testing.T) {
	pp := NewPreProcessor()
	pp.Register("tint", "const TINT: f32 = 0.5;")
	out, err := pp.Process("//@oxy:include tint\n")
	require.NoError(t, err)
	assert.Contains(t, out, "const TINT: f32 = 0.5;")
	assert.Equal(t, []string{"tint"}, pp.Included())
}

func TestCompileReflectsLitShader(t *testing.T) {
	s, err := Compile("lit", litSource)
	require.NoError(t, err)

	assert.Equal(t, "lit", s.Key())
	assert.True(t, s.HasEntryPoint(VertexEntryPoint, ShaderTypeVertex))
	assert.True(t, s.HasEntryPoint(FragmentEntryPoint, ShaderTypeFragment))
	assert.False(t, s.HasEntryPoint(FragmentEntryPoint, ShaderTypeVertex))
	assert.Len(t, s.EntryPoints(), 2)

	assert.Equal(t, []uint32{0, 1, 2}, s.Groups())
	assert.Equal(t, []uint32{0, 1}, s.Bindings(0))
	assert.Equal(t, []uint32{0}, s.Bindings(2))
	assert.Nil(t, s.Bindings(3))

	assert.Equal(t, []uint32{0, 1, 2, 5, 6, 7, 8, 9, 10, 11}, s.VertexLocations(VertexEntryPoint))
	assert.Nil(t, s.VertexLocations(FragmentEntryPoint))

	assert.Equal(t, []string{IncludeModelVertex, IncludeInstance, IncludeCamera, IncludeLight}, s.Included())

	module := s.Module()
	require.NotNil(t, module.WGSLDescriptor)
	assert.Equal(t, "lit", module.Label)
	assert.Equal(t, s.Source(), module.WGSLDescriptor.Code)
	assert.Contains(t, s.Source(), "struct InstanceInput")
}

func TestCompileEntryPoints(t *testing.T) {
	_, err := Compile("vertex-only", vertexOnlySource)
	assert.ErrorIs(t, err, ErrEntryPoint)
	assert.Contains(t, err.Error(), FragmentEntryPoint)

	s, err := Compile("vertex-only", vertexOnlySource, WithoutEntryPointCheck())
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, s.VertexLocations(VertexEntryPoint))
	assert.Empty(t, s.Groups())

	s, err = Compile("compute", "@compute @workgroup_size(1)\nfn main() {}\n", WithoutEntryPointCheck())
	require.NoError(t, err)
	assert.Equal(t, []EntryPoint{{Name: "main", Type: ShaderTypeCompute}}, s.EntryPoints())
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("broken", "fn vs_main( {")
	assert.ErrorIs(t, err, ErrCompile)
	assert.Contains(t, err.Error(), `"broken"`)

	_, err = Compile("unknown", "//@oxy:include nope\n")
	assert.ErrorIs(t, err, ErrInclude)
}

func TestCompileWithInclude(t *testing.T) {
	src := "//@oxy:include position\n" + `
@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position * SCALE, 1.0);
}
`
	s, err := Compile("scaled", src, WithInclude("position", "const SCALE: f32 = 2.0;"), WithoutEntryPointCheck())
	require.NoError(t, err)
	assert.Equal(t, []string{"position"}, s.Included())
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lit.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(litSource), 0o644))

	s, err := CompileFile("lit", path)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, s.Groups())

	_, err = CompileFile("missing", filepath.Join(dir, "missing.wgsl"))
	assert.Error(t, err)
}
